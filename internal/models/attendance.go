package models

import (
	"time"

	"github.com/noah-isme/sma-academic-api/internal/academic"
)

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus = academic.AttendanceStatus

const (
	AttendancePresent = academic.StatusPresent
	AttendanceAbsent  = academic.StatusAbsent
)

// AttendanceRecord is one student's status for a class-subject session on a day.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	StudentName string           `db:"student_name" json:"student_name,omitempty"`
	ClassID     string           `db:"class_id" json:"class_id"`
	SubjectID   string           `db:"subject_id" json:"subject_id"`
	SubjectName string           `db:"subject_name" json:"subject_name,omitempty"`
	Date        Date             `db:"date" json:"date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	MarkedBy    *string          `db:"marked_by" json:"marked_by,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceSession identifies a class-subject session on a day.
type AttendanceSession struct {
	ClassID   string
	SubjectID string
	Date      Date
}

// SheetEntries converts records into sheet lines.
func SheetEntries(records []AttendanceRecord) []academic.SheetEntry {
	entries := make([]academic.SheetEntry, len(records))
	for i, r := range records {
		entries[i] = academic.SheetEntry{StudentID: r.StudentID, Status: r.Status}
	}
	return entries
}
