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

func TestRosterViewListAndDetail(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	second := sc.addStudent(t, "s0@school.test", "S0", "00")
	sc.enroll(t, second.ID)

	list, err := sc.svc.RosterView.View(ctx, sc.teacherActor(), sc.class.ID, RosterViewQuery{})
	require.NoError(t, err)
	assert.Equal(t, academic.ViewList, list.View)
	require.Len(t, list.Students, 2)
	assert.Equal(t, second.ID, list.Students[0].StudentID)
	assert.Nil(t, list.Student)

	detail, err := sc.svc.RosterView.View(ctx, sc.teacherActor(), sc.class.ID, RosterViewQuery{View: "detail", StudentID: sc.student.ID})
	require.NoError(t, err)
	assert.Equal(t, academic.ViewDetail, detail.View)
	require.NotNil(t, detail.Profile)
	assert.Equal(t, "s1@school.test", detail.Profile.Email)
	assert.Nil(t, detail.Performance)
	assert.Empty(t, detail.Students)
}

func TestRosterViewPerformance(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	test := sc.createTest(t, "Unit-1", 50)
	_, err := sc.svc.Tests.SaveMarks(ctx, sc.teacherActor(), test.ID, SaveMarksRequest{Marks: []MarkInput{
		{StudentID: sc.student.ID, Marks: floatPtr(40)},
	}})
	require.NoError(t, err)
	_, err = sc.svc.Attendance.MarkAttendance(ctx, sc.teacherActor(), markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "absent"}))
	require.NoError(t, err)

	checkedItem, err := sc.svc.Coursework.CreateAssignment(ctx, sc.teacherActor(), workItem(sc, "Essay", "assignment", "2030-01-01", intPtr(10)))
	require.NoError(t, err)
	_, err = sc.svc.Coursework.CreateAssignment(ctx, sc.teacherActor(), workItem(sc, "Reading", "homework", "2030-01-02", nil))
	require.NoError(t, err)
	sub, err := sc.svc.Coursework.SubmitWork(ctx, sc.studentActor(), checkedItem.ID, SubmitWorkRequest{Text: "essay"})
	require.NoError(t, err)
	_, err = sc.svc.Coursework.CheckSubmission(ctx, sc.teacherActor(), sub.ID, CheckSubmissionRequest{MarksObtained: floatPtr(9)})
	require.NoError(t, err)

	view, err := sc.svc.RosterView.View(ctx, adminActor(), sc.class.ID, RosterViewQuery{View: "performance", StudentID: sc.student.ID})
	require.NoError(t, err)
	require.NotNil(t, view.Performance)
	perf := view.Performance
	assert.Equal(t, academic.AttendanceSummary{Absent: 1, Total: 1}, perf.Attendance)
	assert.Equal(t, 0, perf.Percentage)
	require.Len(t, perf.Marks, 1)
	assert.Equal(t, 40.0, perf.Marks[0].MarksObtained)
	assert.Len(t, perf.Work, 2)
	assert.Equal(t, 50.0, perf.Completion)
}

func TestRosterViewRejectsBadRequests(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	outsider := Actor{ID: sc.addTeacher(t, "t2@school.test", "T2").ID, Role: models.RoleTeacher}

	_, err := sc.svc.RosterView.View(ctx, sc.teacherActor(), sc.class.ID, RosterViewQuery{View: "detail"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = sc.svc.RosterView.View(ctx, sc.teacherActor(), sc.class.ID, RosterViewQuery{View: "grid"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = sc.svc.RosterView.View(ctx, outsider, sc.class.ID, RosterViewQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = sc.svc.RosterView.View(ctx, sc.teacherActor(), sc.class.ID, RosterViewQuery{View: "detail", StudentID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
