package dto

import "time"

// ActiveSplit counts a population by the active flag.
type ActiveSplit struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// RosterCounts summarises the roster registry.
type RosterCounts struct {
	Classes     ActiveSplit `json:"classes"`
	Subjects    ActiveSplit `json:"subjects"`
	Admins      ActiveSplit `json:"admins"`
	Teachers    ActiveSplit `json:"teachers"`
	Students    ActiveSplit `json:"students"`
	Accountants ActiveSplit `json:"accountants"`
}

// ClassHeadcount is the number of active students placed in a class.
type ClassHeadcount struct {
	ClassID  string `json:"classId"`
	Students int    `json:"students"`
}

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Counts            RosterCounts     `json:"counts"`
	ClassDistribution []ClassHeadcount `json:"classDistribution"`
	UnplacedStudents  int              `json:"unplacedStudents"`
	UnstaffedPairs    int              `json:"unstaffedPairs"`
	GeneratedAt       time.Time        `json:"generatedAt"`
}

// AccountantDashboardResponse is the read-only roster view for accountants.
type AccountantDashboardResponse struct {
	Counts      RosterCounts `json:"counts"`
	GeneratedAt time.Time    `json:"generatedAt"`
}

// DueBuckets counts work items per due status.
type DueBuckets struct {
	Active  int `json:"active"`
	DueSoon int `json:"dueSoon"`
	Overdue int `json:"overdue"`
}

// TeacherPairSummary is one class-subject pair of a teacher.
type TeacherPairSummary struct {
	AssignmentID string `json:"assignmentId"`
	ClassID      string `json:"classId"`
	ClassLabel   string `json:"classLabel"`
	SubjectID    string `json:"subjectId"`
	SubjectName  string `json:"subjectName"`
	Tests        int    `json:"tests"`
}

// TeacherDashboardResponse captures personalised teacher dashboard data.
type TeacherDashboardResponse struct {
	TeacherID          string               `json:"teacherId"`
	Assignments        []TeacherPairSummary `json:"assignments"`
	WorkItems          DueBuckets           `json:"workItems"`
	PendingSubmissions int                  `json:"pendingSubmissions"`
	GeneratedAt        time.Time            `json:"generatedAt"`
}

// StudentAttendance summarises a student's attendance.
type StudentAttendance struct {
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// UpcomingWork is a work item that is not yet overdue.
type UpcomingWork struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	DueDate   string `json:"dueDate"`
	DueStatus string `json:"dueStatus"`
	Submitted bool   `json:"submitted"`
}

// RecentMark is one of the latest test results of a student.
type RecentMark struct {
	TestID        string  `json:"testId"`
	TestName      string  `json:"testName"`
	SubjectName   string  `json:"subjectName"`
	TestDate      string  `json:"testDate"`
	MarksObtained float64 `json:"marksObtained"`
	MaxMarks      int     `json:"maxMarks"`
}

// StudentDashboardResponse captures the student's own summary.
type StudentDashboardResponse struct {
	StudentID   string            `json:"studentId"`
	ClassID     string            `json:"classId,omitempty"`
	Attendance  StudentAttendance `json:"attendance"`
	WorkItems   DueBuckets        `json:"workItems"`
	Upcoming    []UpcomingWork    `json:"upcoming"`
	RecentMarks []RecentMark      `json:"recentMarks"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
