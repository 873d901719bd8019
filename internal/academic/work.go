package academic

import (
	"errors"
	"fmt"
	"math"
)

// WorkType distinguishes graded assignments from homework.
type WorkType string

const (
	WorkAssignment WorkType = "assignment"
	WorkHomework   WorkType = "homework"
)

// Valid reports whether the work type is known.
func (t WorkType) Valid() bool {
	return t == WorkAssignment || t == WorkHomework
}

// SubmissionStatus tracks grading of a submission.
type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionChecked SubmissionStatus = "checked"
)

// ErrAlreadyChecked is returned when a checked submission is graded or replaced again.
var ErrAlreadyChecked = errors.New("submission has already been checked")

// ValidateWorkItem enforces that assignments carry positive total marks and homework carries none.
func ValidateWorkItem(t WorkType, totalMarks *int) error {
	switch t {
	case WorkAssignment:
		if totalMarks == nil {
			return fmt.Errorf("total marks are required for assignments")
		}
		if *totalMarks <= 0 || *totalMarks > MarksCeiling {
			return fmt.Errorf("total marks must be between 1 and %d", MarksCeiling)
		}
	case WorkHomework:
		if totalMarks != nil {
			return fmt.Errorf("homework cannot carry total marks")
		}
	default:
		return fmt.Errorf("type must be assignment or homework")
	}
	return nil
}

// CheckTransition moves a submission from pending to checked.
func CheckTransition(current SubmissionStatus) (SubmissionStatus, error) {
	switch current {
	case SubmissionPending, "":
		return SubmissionChecked, nil
	case SubmissionChecked:
		return current, ErrAlreadyChecked
	default:
		return current, fmt.Errorf("unknown submission status %q", current)
	}
}

// ValidateScore checks marks awarded to a submission.
func ValidateScore(t WorkType, totalMarks *int, marks float64) error {
	if math.IsNaN(marks) || marks < 0 {
		return fmt.Errorf("marks obtained cannot be negative")
	}
	if t == WorkAssignment && totalMarks != nil && marks > float64(*totalMarks) {
		return fmt.Errorf("marks obtained cannot exceed total marks %d", *totalMarks)
	}
	if marks > MarksCeiling {
		return fmt.Errorf("marks obtained cannot exceed %d", MarksCeiling)
	}
	if !HasMarkPrecision(marks) {
		return fmt.Errorf("marks obtained can have at most two decimals")
	}
	return nil
}
