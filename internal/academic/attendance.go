package academic

import "fmt"

// AttendanceStatus is the mark recorded for a student in a session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

// Valid reports whether the status is recognised.
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// SheetEntry is one student's line on an attendance sheet.
type SheetEntry struct {
	StudentID string           `json:"student_id"`
	Status    AttendanceStatus `json:"status"`
}

// AttendanceSummary aggregates a sheet.
type AttendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// InitializeSheet returns one entry per roster student at the baseline status.
func InitializeSheet(roster []string, baseline AttendanceStatus) []SheetEntry {
	entries := make([]SheetEntry, 0, len(roster))
	for _, id := range roster {
		entries = append(entries, SheetEntry{StudentID: id, Status: baseline})
	}
	return entries
}

// BulkSetStatus returns a copy of entries with every status replaced.
func BulkSetStatus(entries []SheetEntry, status AttendanceStatus) []SheetEntry {
	out := make([]SheetEntry, len(entries))
	for i, entry := range entries {
		out[i] = SheetEntry{StudentID: entry.StudentID, Status: status}
	}
	return out
}

// Summarize counts present and absent entries.
func Summarize(entries []SheetEntry) AttendanceSummary {
	var summary AttendanceSummary
	for _, entry := range entries {
		switch entry.Status {
		case StatusPresent:
			summary.Present++
		case StatusAbsent:
			summary.Absent++
		}
	}
	summary.Total = summary.Present + summary.Absent
	return summary
}

// ValidateSheet checks a submitted sheet against the class roster. It fails on
// the first unknown student, duplicate or unrecognised status.
func ValidateSheet(roster []string, entries []SheetEntry) error {
	enrolled := toSet(roster)
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.StudentID == "" {
			return fmt.Errorf("student id is required")
		}
		if _, ok := enrolled[entry.StudentID]; !ok {
			return fmt.Errorf("student %s is not enrolled in the class", entry.StudentID)
		}
		if _, dup := seen[entry.StudentID]; dup {
			return fmt.Errorf("student %s appears more than once", entry.StudentID)
		}
		seen[entry.StudentID] = struct{}{}
		if !entry.Status.Valid() {
			return fmt.Errorf("status %q for student %s must be present or absent", entry.Status, entry.StudentID)
		}
	}
	return nil
}

// CompleteSheet appends roster students missing from entries with the fallback status.
// Roster order is kept for the appended lines.
func CompleteSheet(roster []string, entries []SheetEntry, fallback AttendanceStatus) []SheetEntry {
	present := make(map[string]struct{}, len(entries))
	out := make([]SheetEntry, 0, len(roster))
	for _, entry := range entries {
		present[entry.StudentID] = struct{}{}
		out = append(out, entry)
	}
	for _, id := range roster {
		if _, ok := present[id]; !ok {
			out = append(out, SheetEntry{StudentID: id, Status: fallback})
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
