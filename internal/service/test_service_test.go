package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestSaveMarksRejectsBatchWithOneBadEntry(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	other := sc.addStudent(t, "s2@school.test", "S2", "02")
	sc.enroll(t, other.ID)
	test := sc.createTest(t, "Quiz", 20)

	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(18)},
		{StudentID: other.ID, Marks: floatPtr(-1)},
	}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	view, err := sc.svc.Tests.LoadMarks(ctx, sc.teacherActor(), test.ID)
	require.NoError(t, err)
	for _, row := range view.Rows {
		assert.Nil(t, row.Marks, "no mark may be stored for %s", row.StudentID)
	}

	cases := map[string]SaveMarksRequest{
		"empty batch":   {},
		"missing marks": {Marks: []MarkInput{{StudentID: sc.student.ID}}},
		"not enrolled":  {Marks: []MarkInput{{StudentID: "ghost", Marks: floatPtr(1)}}},
		"duplicate":     {Marks: []MarkInput{{StudentID: other.ID, Marks: floatPtr(1)}, {StudentID: other.ID, Marks: floatPtr(2)}}},
		"above maximum": {Marks: []MarkInput{{StudentID: other.ID, Marks: floatPtr(20.5)}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestSaveMarksUpsertsAndMergesAgainstCurrentRoster(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	leaver := sc.addStudent(t, "s2@school.test", "S2", "02")
	sc.enroll(t, leaver.ID)
	test := sc.createTest(t, "Unit-2", 50)

	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(30)},
		{StudentID: leaver.ID, Marks: floatPtr(40), Remarks: strPtr("good")},
	}})
	require.NoError(t, err)
	view, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(32.5)},
	}})
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, 32.5, *view.Rows[0].Marks)
	assert.Equal(t, 40.0, *view.Rows[1].Marks)

	require.NoError(t, sc.svc.Graph.RemoveStudentFromClass(ctx, sc.class.ID, leaver.ID))
	newcomer := sc.addStudent(t, "s3@school.test", "S3", "03")
	sc.enroll(t, newcomer.ID)

	view, err = sc.svc.Tests.LoadMarks(ctx, sc.teacherActor(), test.ID)
	require.NoError(t, err)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, sc.student.ID, view.Rows[0].StudentID)
	assert.Equal(t, newcomer.ID, view.Rows[1].StudentID)
	assert.Nil(t, view.Rows[1].Marks)
	require.Len(t, view.Former, 1)
	assert.Equal(t, leaver.ID, view.Former[0].StudentID)
}

func TestTestsAreScopedToTheAssignedTeacher(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	outsider := Actor{ID: sc.addTeacher(t, "t2@school.test", "T2").ID, Role: models.RoleTeacher}
	test := sc.createTest(t, "Unit-1", 50)

	_, err := sc.svc.Tests.CreateTest(ctx, outsider, CreateTestRequest{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, TestName: "X", TestDate: "2024-03-01", MaxMarks: 10,
	})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = sc.svc.Tests.LoadMarks(ctx, outsider, test.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = sc.svc.Tests.ListTests(ctx, outsider, models.TestFilter{ClassID: sc.class.ID, SubjectID: sc.subject.ID})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = sc.svc.Tests.ListTests(ctx, sc.teacherActor(), models.TestFilter{ClassID: sc.class.ID})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	tests, err := sc.svc.Tests.ListTests(ctx, adminActor(), models.TestFilter{})
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.True(t, tests[0].Staffed)
}

func TestUpdateTestKeepsMaximumAboveStoredMarks(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	test := sc.createTest(t, "Unit-1", 50)
	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(45)},
	}})
	require.NoError(t, err)

	_, err = sc.svc.Tests.UpdateTest(ctx, sc.teacherActor(), test.ID, UpdateTestRequest{MaxMarks: intPtr(40)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	updated, err := sc.svc.Tests.UpdateTest(ctx, sc.teacherActor(), test.ID, UpdateTestRequest{
		MaxMarks: intPtr(45), TestName: strPtr(" Unit-1 (revised) "), TestDate: strPtr("2024-03-06"),
	})
	require.NoError(t, err)
	assert.Equal(t, 45, updated.MaxMarks)
	assert.Equal(t, "Unit-1 (revised)", updated.TestName)
	assert.Equal(t, "2024-03-06", updated.TestDate.String())

	_, err = sc.svc.Tests.UpdateTest(ctx, sc.teacherActor(), test.ID, UpdateTestRequest{TestName: strPtr("  ")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMarksStayWithinStorableRange(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, err := sc.svc.Tests.CreateTest(ctx, sc.teacherActor(), CreateTestRequest{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, TestName: "Huge", TestDate: "2024-03-05", MaxMarks: 100000,
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	test := sc.createTest(t, "Unit-1", 1000)
	_, err = sc.svc.Tests.UpdateTest(ctx, sc.teacherActor(), test.ID, UpdateTestRequest{MaxMarks: intPtr(1001)})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(12.345)},
	}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	sheet, err := sc.svc.Tests.LoadMarks(ctx, sc.teacherActor(), test.ID)
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Nil(t, sheet.Rows[0].Marks)
}

func TestDeleteTestNeedsConfirmationAndDropsMarks(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	test := sc.createTest(t, "Unit-1", 50)
	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(45)},
	}})
	require.NoError(t, err)

	err = sc.svc.Tests.DeleteTest(ctx, sc.teacherActor(), test.ID, false)
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)

	require.NoError(t, sc.svc.Tests.DeleteTest(ctx, sc.teacherActor(), test.ID, true))
	_, err = sc.svc.Tests.GetTest(ctx, sc.teacherActor(), test.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	marks, err := sc.svc.Tests.StudentMarks(ctx, sc.student.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, marks)
}

func TestRemovedAssignmentLeavesTestsReadableButUnstaffed(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	sc.createTest(t, "Unit-1", 50)

	require.NoError(t, sc.svc.Graph.RemoveAssignment(ctx, sc.pair.ID))

	tests, err := sc.svc.Tests.ListTests(ctx, adminActor(), models.TestFilter{ClassID: sc.class.ID, SubjectID: sc.subject.ID})
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.False(t, tests[0].Staffed)

	_, err = sc.svc.Tests.ListTests(ctx, sc.teacherActor(), models.TestFilter{ClassID: sc.class.ID, SubjectID: sc.subject.ID})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
