package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestAssignSubjectNeverOverwritesExistingMapping(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	other := sc.addTeacher(t, "t2@school.test", "T2")

	_, err := sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, TeacherID: other.ID,
	})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	subjects, err := sc.svc.Graph.GetAssignedSubjects(ctx, sc.class.ID)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, sc.teacher.ID, subjects[0].TeacherID)

	changed, err := sc.svc.Graph.UpdateAssignmentTeacher(ctx, sc.pair.ID, ChangeTeacherRequest{TeacherID: other.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, changed.TeacherID)
	assert.Equal(t, sc.pair.ID, changed.ID)

	err = sc.svc.Graph.EnsureTeaches(ctx, sc.teacherActor(), sc.class.ID, sc.subject.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.NoError(t, sc.svc.Graph.EnsureTeaches(ctx, Actor{ID: other.ID, Role: models.RoleTeacher}, sc.class.ID, sc.subject.ID))
}

func TestAssignSubjectRequiresActiveParticipants(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	science, err := sc.svc.Subjects.Create(ctx, CreateSubjectRequest{Name: "Science", Code: "SCI"})
	require.NoError(t, err)

	_, err = sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{ClassID: sc.class.ID, SubjectID: science.ID, TeacherID: sc.student.ID})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	_, err = sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{ClassID: sc.class.ID, SubjectID: science.ID, TeacherID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
	_, err = sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{ClassID: sc.class.ID, SubjectID: science.ID})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = sc.svc.Subjects.SetActive(ctx, science.ID, false)
	require.NoError(t, err)
	_, err = sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{ClassID: sc.class.ID, SubjectID: science.ID, TeacherID: sc.teacher.ID})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestStudentBelongsToAtMostOneClass(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	other, err := sc.svc.Classes.Create(ctx, CreateClassRequest{Name: "11", Section: "B"})
	require.NoError(t, err)

	_, err = sc.svc.Graph.AssignStudentToClass(ctx, other.ID, AssignStudentRequest{StudentID: sc.student.ID})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = sc.svc.Graph.AssignStudentToClass(ctx, sc.class.ID, AssignStudentRequest{StudentID: sc.student.ID})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = sc.svc.Graph.AssignStudentToClass(ctx, other.ID, AssignStudentRequest{StudentID: sc.teacher.ID})
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	require.NoError(t, sc.svc.Graph.RemoveStudentFromClass(ctx, sc.class.ID, sc.student.ID))
	err = sc.svc.Graph.RemoveStudentFromClass(ctx, sc.class.ID, sc.student.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	moved, err := sc.svc.Graph.AssignStudentToClass(ctx, other.ID, AssignStudentRequest{StudentID: sc.student.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.ClassID)

	roster, err := sc.svc.Graph.GetAssignedStudents(ctx, sc.class.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)
	roster, err = sc.svc.Graph.GetAssignedStudents(ctx, other.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, sc.student.ID, roster[0].StudentID)
}

func TestTeacherAssignmentsAndClassScope(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	pairs, err := sc.svc.Graph.GetTeacherAssignments(ctx, sc.teacher.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, "Math", pairs[0].SubjectName)
	assert.Equal(t, "10", pairs[0].ClassName)

	assert.NoError(t, sc.svc.Graph.EnsureTeachesClass(ctx, sc.teacherActor(), sc.class.ID))
	assert.NoError(t, sc.svc.Graph.EnsureTeachesClass(ctx, adminActor(), "any"))
	assert.ErrorIs(t, sc.svc.Graph.EnsureTeachesClass(ctx, sc.teacherActor(), "other"), appErrors.ErrForbidden)
	assert.ErrorIs(t, sc.svc.Graph.EnsureTeaches(ctx, sc.studentActor(), sc.class.ID, sc.subject.ID), appErrors.ErrForbidden)

	_, err = sc.svc.Graph.GetAssignedSubjects(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.ErrorIs(t, sc.svc.Graph.RemoveAssignment(ctx, "missing"), appErrors.ErrNotFound)
}

func TestGraphMutationsInvalidateDashboards(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, hit, err := sc.svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = sc.svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, hit)

	require.NoError(t, sc.svc.Graph.RemoveAssignment(ctx, sc.pair.ID))
	assert.Contains(t, sc.cacheRepo.invalidated, "dash:*")
	_, hit, err = sc.svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
}
