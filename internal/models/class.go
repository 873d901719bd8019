package models

import "time"

// Class represents a class section such as 10-A.
type Class struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Section          string    `db:"section" json:"section"`
	ClassTeacherID   *string   `db:"class_teacher_id" json:"class_teacher_id,omitempty"`
	ClassTeacherName *string   `db:"class_teacher_name" json:"class_teacher_name,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Label joins name and section, e.g. "10-A".
func (c Class) Label() string {
	if c.Section == "" {
		return c.Name
	}
	return c.Name + "-" + c.Section
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ClassSubjectAssignment maps a subject taught in a class to its teacher.
type ClassSubjectAssignment struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSubjectDetail is an assignment joined with display names.
type ClassSubjectDetail struct {
	ClassSubjectAssignment
	ClassName    string `db:"class_name" json:"class_name"`
	ClassSection string `db:"class_section" json:"class_section"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	SubjectCode  string `db:"subject_code" json:"subject_code"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
}
