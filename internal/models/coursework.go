package models

import (
	"time"

	"github.com/noah-isme/sma-academic-api/internal/academic"
)

// Assignment is a work item handed to a class: a graded assignment or ungraded homework.
type Assignment struct {
	ID          string            `db:"id" json:"id"`
	ClassID     string            `db:"class_id" json:"class_id"`
	SubjectID   string            `db:"subject_id" json:"subject_id"`
	Title       string            `db:"title" json:"title"`
	Description string            `db:"description" json:"description"`
	DueDate     Date              `db:"due_date" json:"due_date"`
	Type        academic.WorkType `db:"type" json:"type"`
	TotalMarks  *int              `db:"total_marks" json:"total_marks,omitempty"`
	CreatedBy   *string           `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter narrows work item listings.
type AssignmentFilter struct {
	ClassID   string
	SubjectID string
	Type      academic.WorkType
}

// AssignmentStats counts submissions of a work item.
type AssignmentStats struct {
	AssignmentID string `db:"assignment_id" json:"-"`
	Submitted    int    `db:"submitted" json:"submitted"`
	Checked      int    `db:"checked" json:"checked"`
}

// AssignmentView is a work item with derived status.
type AssignmentView struct {
	Assignment
	DueStatus  academic.DueStatus `json:"due_status"`
	Submitted  int                `json:"submitted"`
	Checked    int                `json:"checked"`
	Completion float64            `json:"completion"`
}

// Submission is a student's answer to a work item.
type Submission struct {
	ID             string                    `db:"id" json:"id"`
	AssignmentID   string                    `db:"assignment_id" json:"assignment_id"`
	StudentID      string                    `db:"student_id" json:"student_id"`
	StudentName    string                    `db:"student_name" json:"student_name,omitempty"`
	SubmittedAt    time.Time                 `db:"submitted_at" json:"submitted_at"`
	SubmissionText string                    `db:"submission_text" json:"submission_text"`
	Status         academic.SubmissionStatus `db:"status" json:"status"`
	MarksObtained  *float64                  `db:"marks_obtained" json:"marks_obtained,omitempty"`
	CheckedAt      *time.Time                `db:"checked_at" json:"checked_at,omitempty"`
	CheckedBy      *string                   `db:"checked_by" json:"checked_by,omitempty"`
}
