package academic

import (
	"math"
	"time"
)

// DueStatus classifies a work item against the current day.
type DueStatus string

const (
	DueActive  DueStatus = "active"
	DueSoon    DueStatus = "due-soon"
	DueOverdue DueStatus = "overdue"
)

// DefaultDueSoonDays is the window in which an item counts as due soon.
const DefaultDueSoonDays = 2

// Valid reports whether s is a known status.
func (s DueStatus) Valid() bool {
	switch s {
	case DueActive, DueSoon, DueOverdue:
		return true
	}
	return false
}

// DueRule evaluates due dates in a school's calendar.
type DueRule struct {
	Location *time.Location
	SoonDays int
}

// NewDueRule builds a rule, falling back to UTC and the default window.
func NewDueRule(loc *time.Location, soonDays int) DueRule {
	if loc == nil {
		loc = time.UTC
	}
	if soonDays < 0 {
		soonDays = DefaultDueSoonDays
	}
	return DueRule{Location: loc, SoonDays: soonDays}
}

// Status returns overdue when the due day has passed, due-soon when it falls
// within SoonDays of today (today included) and active otherwise.
func (r DueRule) Status(dueDate, now time.Time) DueStatus {
	days := DaysUntil(dueDate, Today(now, r.Location))
	switch {
	case days < 0:
		return DueOverdue
	case days <= r.SoonDays:
		return DueSoon
	default:
		return DueActive
	}
}

// ClassifyDue applies the default rule in UTC.
func ClassifyDue(dueDate, now time.Time) DueStatus {
	return NewDueRule(time.UTC, DefaultDueSoonDays).Status(dueDate, now)
}

// AttendancePercentage returns present/total as a whole percentage.
// Negative counts are treated as zero and present never exceeds total.
func AttendancePercentage(present, total int) int {
	present, total = clamp(present), clamp(total)
	if total == 0 {
		return 0
	}
	if present > total {
		present = total
	}
	return int(math.Round(float64(present) / float64(total) * 100))
}

// AssignmentCompletion returns checked/total as a percentage with one decimal.
func AssignmentCompletion(checked, total int) float64 {
	checked, total = clamp(checked), clamp(total)
	if total == 0 {
		return 0
	}
	if checked > total {
		checked = total
	}
	return math.Round(float64(checked)/float64(total)*1000) / 10
}

// ClassDistribution counts students per class id. Students without a class
// are counted under the empty key.
func ClassDistribution(classIDs []string) map[string]int {
	dist := make(map[string]int)
	for _, id := range classIDs {
		dist[id]++
	}
	return dist
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
