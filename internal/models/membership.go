package models

import "time"

// ClassMembership places a student in a class. A student holds at most one active membership.
type ClassMembership struct {
	ID        string     `db:"id" json:"id"`
	ClassID   string     `db:"class_id" json:"class_id"`
	StudentID string     `db:"student_id" json:"student_id"`
	Active    bool       `db:"active" json:"active"`
	JoinedAt  time.Time  `db:"joined_at" json:"joined_at"`
	LeftAt    *time.Time `db:"left_at" json:"left_at,omitempty"`
}

// RosterStudent is an enrolled student as listed on class sheets.
type RosterStudent struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	RollNo      *string   `db:"roll_no" json:"roll_no,omitempty"`
	AdmissionNo *string   `db:"admission_no" json:"admission_no,omitempty"`
	JoinedAt    time.Time `db:"joined_at" json:"joined_at"`
}

// RosterIDs extracts student ids in roster order.
func RosterIDs(roster []RosterStudent) []string {
	ids := make([]string, len(roster))
	for i, s := range roster {
		ids[i] = s.StudentID
	}
	return ids
}
