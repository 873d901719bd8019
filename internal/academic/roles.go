package academic

import (
	"fmt"
	"strings"
)

// Role identifies what a user may do.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleAccountant Role = "accountant"
)

// ParseRole normalises a role name.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleAdmin, RoleTeacher, RoleStudent, RoleAccountant:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// RoleProfile carries the attributes that only exist for one role.
type RoleProfile interface {
	Role() Role
}

type AdminProfile struct{}

type TeacherProfile struct {
	Subject       string `json:"subject,omitempty"`
	AssignedClass string `json:"assigned_class,omitempty"`
}

type StudentProfile struct {
	ClassID     string `json:"class_id,omitempty"`
	RollNo      string `json:"roll_no,omitempty"`
	AdmissionNo string `json:"admission_no,omitempty"`
}

type AccountantProfile struct{}

func (AdminProfile) Role() Role      { return RoleAdmin }
func (TeacherProfile) Role() Role    { return RoleTeacher }
func (StudentProfile) Role() Role    { return RoleStudent }
func (AccountantProfile) Role() Role { return RoleAccountant }

// RoleAttributes are the role specific fields of a create or update request.
type RoleAttributes struct {
	Subject       *string
	AssignedClass *string
	RollNo        *string
	AdmissionNo   *string
}

// ValidateRoleAttributes rejects attributes that belong to a different role.
func ValidateRoleAttributes(role Role, attrs RoleAttributes) error {
	teacherFields := attrs.Subject != nil || attrs.AssignedClass != nil
	studentFields := attrs.RollNo != nil || attrs.AdmissionNo != nil

	switch role {
	case RoleTeacher:
		if studentFields {
			return fmt.Errorf("roll number and admission number apply to students only")
		}
	case RoleStudent:
		if teacherFields {
			return fmt.Errorf("subject and assigned class apply to teachers only")
		}
	case RoleAdmin, RoleAccountant:
		if teacherFields || studentFields {
			return fmt.Errorf("role %s does not take teacher or student attributes", role)
		}
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	return nil
}
