package models

import "time"

// Test is a graded examination for one class-subject pair.
type Test struct {
	ID          string    `db:"id" json:"id"`
	ClassID     string    `db:"class_id" json:"class_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	TestName    string    `db:"test_name" json:"test_name"`
	TestDate    Date      `db:"test_date" json:"test_date"`
	MaxMarks    int       `db:"max_marks" json:"max_marks"`
	Description string    `db:"description" json:"description"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	Staffed     bool      `db:"staffed" json:"staffed"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TestFilter narrows test listings.
type TestFilter struct {
	ClassID   string
	SubjectID string
}

// Mark is the score a student obtained in a test.
type Mark struct {
	ID            string    `db:"id" json:"id"`
	TestID        string    `db:"test_id" json:"test_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	MarksObtained float64   `db:"marks_obtained" json:"marks_obtained"`
	Remarks       *string   `db:"remarks" json:"remarks,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentMark is a mark joined with its test for student views.
type StudentMark struct {
	TestID        string  `db:"test_id" json:"test_id"`
	TestName      string  `db:"test_name" json:"test_name"`
	TestDate      Date    `db:"test_date" json:"test_date"`
	MaxMarks      int     `db:"max_marks" json:"max_marks"`
	SubjectID     string  `db:"subject_id" json:"subject_id"`
	SubjectName   string  `db:"subject_name" json:"subject_name"`
	MarksObtained float64 `db:"marks_obtained" json:"marks_obtained"`
}
