package models

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/sma-academic-api/internal/academic"
)

// UserRole represents the available roles for the RBAC system.
type UserRole = academic.Role

const (
	RoleAdmin      = academic.RoleAdmin
	RoleTeacher    = academic.RoleTeacher
	RoleStudent    = academic.RoleStudent
	RoleAccountant = academic.RoleAccountant
)

// User represents an application user stored in the users table. Role specific
// columns are exposed through Profile.
type User struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	PasswordHash     string    `db:"password_hash"`
	FullName         string    `db:"full_name"`
	Gender           string    `db:"gender"`
	DateOfBirth      *Date     `db:"date_of_birth"`
	Role             UserRole  `db:"role"`
	Active           bool      `db:"active"`
	SubjectSpecialty *string   `db:"subject_specialty"`
	AssignedClass    *string   `db:"assigned_class"`
	RollNo           *string   `db:"roll_no"`
	AdmissionNo      *string   `db:"admission_no"`
	ClassID          *string   `db:"class_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// Profile returns the role specific attributes of the user.
func (u User) Profile() academic.RoleProfile {
	switch u.Role {
	case RoleTeacher:
		return academic.TeacherProfile{Subject: deref(u.SubjectSpecialty), AssignedClass: deref(u.AssignedClass)}
	case RoleStudent:
		return academic.StudentProfile{ClassID: deref(u.ClassID), RollNo: deref(u.RollNo), AdmissionNo: deref(u.AdmissionNo)}
	case RoleAccountant:
		return academic.AccountantProfile{}
	default:
		return academic.AdminProfile{}
	}
}

// MarshalJSON renders the common fields plus the role profile.
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID          string               `json:"id"`
		Email       string               `json:"email"`
		FullName    string               `json:"full_name"`
		Gender      string               `json:"gender,omitempty"`
		DateOfBirth *Date                `json:"date_of_birth,omitempty"`
		Role        UserRole             `json:"role"`
		Active      bool                 `json:"active"`
		Profile     academic.RoleProfile `json:"profile"`
		CreatedAt   time.Time            `json:"created_at"`
		UpdatedAt   time.Time            `json:"updated_at"`
	}{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Gender:      u.Gender,
		DateOfBirth: u.DateOfBirth,
		Role:        u.Role,
		Active:      u.Active,
		Profile:     u.Profile(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RoleCount aggregates users per role and status.
type RoleCount struct {
	Role     UserRole `db:"role" json:"role"`
	Active   int      `db:"active" json:"active"`
	Inactive int      `db:"inactive" json:"inactive"`
}

// ActiveCount splits a population by the active flag.
type ActiveCount struct {
	Active   int `db:"active" json:"active"`
	Inactive int `db:"inactive" json:"inactive"`
}
