package academic

import (
	"fmt"
	"math"
)

// MarksCeiling bounds maximum marks of tests and total marks of assignments.
// Scores carry at most two decimals.
const MarksCeiling = 1000

// HasMarkPrecision reports whether v has at most two decimal places.
func HasMarkPrecision(v float64) bool {
	scaled := v * 100
	return math.Abs(scaled-math.Round(scaled)) < 1e-6
}

// MarkEntry is a score recorded for one student.
type MarkEntry struct {
	StudentID string  `json:"student_id"`
	Marks     float64 `json:"marks"`
}

// MarkRow is a roster line on a marks sheet. Marks is nil for students without a score.
type MarkRow struct {
	StudentID string   `json:"student_id"`
	Marks     *float64 `json:"marks"`
}

// MarkSheet is the merge of stored marks with the current roster.
type MarkSheet struct {
	Rows   []MarkRow   `json:"rows"`
	Former []MarkEntry `json:"former,omitempty"`
}

// ValidateMarks checks a batch against the test bounds and roster. A single bad
// entry invalidates the batch.
func ValidateMarks(entries []MarkEntry, maxMarks int, roster []string) error {
	if maxMarks <= 0 || maxMarks > MarksCeiling {
		return fmt.Errorf("test maximum marks must be between 1 and %d", MarksCeiling)
	}
	if len(entries) == 0 {
		return fmt.Errorf("at least one mark entry is required")
	}
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
		if math.IsNaN(entry.Marks) || entry.Marks < 0 || entry.Marks > float64(maxMarks) {
			return fmt.Errorf("marks for student %s must be between 0 and %d", entry.StudentID, maxMarks)
		}
		if !HasMarkPrecision(entry.Marks) {
			return fmt.Errorf("marks for student %s can have at most two decimals", entry.StudentID)
		}
	}
	return nil
}

// MergeMarks lays stored marks over the current roster. Students added after
// grading get a blank row; marks of students no longer enrolled are returned in Former.
func MergeMarks(roster []string, stored []MarkEntry) MarkSheet {
	byStudent := make(map[string]float64, len(stored))
	for _, entry := range stored {
		byStudent[entry.StudentID] = entry.Marks
	}

	sheet := MarkSheet{Rows: make([]MarkRow, 0, len(roster))}
	enrolled := make(map[string]struct{}, len(roster))
	for _, id := range roster {
		enrolled[id] = struct{}{}
		row := MarkRow{StudentID: id}
		if marks, ok := byStudent[id]; ok {
			m := marks
			row.Marks = &m
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	for _, entry := range stored {
		if _, ok := enrolled[entry.StudentID]; !ok {
			sheet.Former = append(sheet.Former, entry)
		}
	}
	return sheet
}
