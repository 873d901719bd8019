package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestCreateUserValidatesRoleAttributes(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	cases := map[string]CreateUserRequest{
		"unknown role":         {Email: "x@school.test", Password: "secret1", FullName: "X", Role: "janitor"},
		"short password":       {Email: "x@school.test", Password: "123", FullName: "X", Role: "admin"},
		"bad email":            {Email: "nope", Password: "secret1", FullName: "X", Role: "admin"},
		"roll no on teacher":   {Email: "x@school.test", Password: "secret1", FullName: "X", Role: "teacher", RollNo: strPtr("5")},
		"subject on student":   {Email: "x@school.test", Password: "secret1", FullName: "X", Role: "student", SubjectSpecialty: strPtr("Math")},
		"admission on admin":   {Email: "x@school.test", Password: "secret1", FullName: "X", Role: "admin", AdmissionNo: strPtr("A1")},
		"malformed birth date": {Email: "x@school.test", Password: "secret1", FullName: "X", Role: "admin", DateOfBirth: strPtr("1/2/2010")},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sc.svc.Users.Create(ctx, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	_, err := sc.svc.Users.Create(ctx, CreateUserRequest{Email: " T1@School.test ", Password: "secret1", FullName: "Dup", Role: "admin"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	teacher, err := sc.svc.Users.Create(ctx, CreateUserRequest{
		Email: "Bu.Sari@School.test", Password: "secret1", FullName: " Sari ", Role: "teacher",
		SubjectSpecialty: strPtr("Physics"), AssignedClass: strPtr("10-A"),
	})
	require.NoError(t, err)
	assert.Equal(t, "bu.sari@school.test", teacher.Email)
	assert.Equal(t, "Sari", teacher.FullName)
	assert.True(t, teacher.Active)
	assert.NotEqual(t, "secret1", teacher.PasswordHash)
	assert.Equal(t, academic.TeacherProfile{Subject: "Physics", AssignedClass: "10-A"}, teacher.Profile())
}

func TestUpdateUserKeepsRoleAndChecksEmail(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, err := sc.svc.Users.Update(ctx, sc.student.ID, UpdateUserRequest{Email: "s1@school.test", FullName: "S1", SubjectSpecialty: strPtr("Math")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = sc.svc.Users.Update(ctx, sc.student.ID, UpdateUserRequest{Email: "t1@school.test", FullName: "S1"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = sc.svc.Users.Update(ctx, "missing", UpdateUserRequest{Email: "a@school.test", FullName: "A"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	updated, err := sc.svc.Users.Update(ctx, sc.student.ID, UpdateUserRequest{
		Email: "s1@school.test", FullName: "S1 Renamed", RollNo: strPtr("11"), DateOfBirth: strPtr("2008-05-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, updated.Role)
	assert.Equal(t, "S1 Renamed", updated.FullName)
	require.NotNil(t, updated.RollNo)
	assert.Equal(t, "11", *updated.RollNo)
	require.NotNil(t, updated.DateOfBirth)
	assert.Equal(t, "2008-05-01", updated.DateOfBirth.String())
	require.NotNil(t, updated.ClassID)
	assert.Equal(t, sc.class.ID, *updated.ClassID)
}

func TestListUsersFiltersByRoleAndSearch(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	sc.addStudent(t, "budi@school.test", "Budi Santoso", "02")

	role := models.RoleStudent
	users, page, err := sc.svc.Users.List(ctx, models.UserFilter{Role: &role, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 2, page.TotalCount)

	users, _, err = sc.svc.Users.List(ctx, models.UserFilter{Search: "budi"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Budi Santoso", users[0].FullName)
}

func TestDeactivatedTeacherCannotBeAssigned(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	other := sc.addTeacher(t, "t2@school.test", "T2")

	_, err := sc.svc.Users.SetActive(ctx, other.ID, false)
	require.NoError(t, err)

	_, err = sc.svc.Graph.UpdateAssignmentTeacher(ctx, sc.pair.ID, ChangeTeacherRequest{TeacherID: other.ID})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	reactivated, err := sc.svc.Users.SetActive(ctx, other.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.Active)
	_, err = sc.svc.Graph.UpdateAssignmentTeacher(ctx, sc.pair.ID, ChangeTeacherRequest{TeacherID: other.ID})
	assert.NoError(t, err)
}

func TestClassNamesAreUniqueAmongActiveClasses(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, err := sc.svc.Classes.Create(ctx, CreateClassRequest{Name: "10", Section: "A"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = sc.svc.Classes.SetActive(ctx, sc.class.ID, false)
	require.NoError(t, err)
	replacement, err := sc.svc.Classes.Create(ctx, CreateClassRequest{Name: "10", Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, "10-A", replacement.Label())

	_, err = sc.svc.Classes.SetActive(ctx, sc.class.ID, true)
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = sc.svc.Classes.Create(ctx, CreateClassRequest{Name: "11", Section: "B", ClassTeacherID: &sc.student.ID})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	withTeacher, err := sc.svc.Classes.Update(ctx, replacement.ID, UpdateClassRequest{Name: "10", Section: "A", ClassTeacherID: &sc.teacher.ID})
	require.NoError(t, err)
	require.NotNil(t, withTeacher.ClassTeacherID)
	assert.Equal(t, sc.teacher.ID, *withTeacher.ClassTeacherID)
}

func TestSubjectCodesAreNormalisedAndUnique(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, err := sc.svc.Subjects.Create(ctx, CreateSubjectRequest{Name: "Maths again", Code: " mth101 "})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	physics, err := sc.svc.Subjects.Create(ctx, CreateSubjectRequest{Name: "Physics", Code: "phy101"})
	require.NoError(t, err)
	assert.Equal(t, "PHY101", physics.Code)

	_, err = sc.svc.Subjects.Update(ctx, physics.ID, UpdateSubjectRequest{Name: "Physics", Code: "MTH101"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = sc.svc.Subjects.SetActive(ctx, sc.subject.ID, false)
	require.NoError(t, err)
	_, err = sc.svc.Subjects.Update(ctx, physics.ID, UpdateSubjectRequest{Name: "Physics", Code: "MTH101"})
	assert.NoError(t, err)

	_, err = sc.svc.Subjects.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
