package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func markRequest(sc *school, records ...AttendanceEntry) MarkAttendanceRequest {
	return MarkAttendanceRequest{ClassID: sc.class.ID, SubjectID: sc.subject.ID, Date: "2024-03-01", Records: records}
}

func TestMarkAttendanceFreshSheetBeforeMarking(t *testing.T) {
	sc := newSchool(t)
	sheet, err := sc.svc.Attendance.GetAttendance(context.Background(), sc.teacherActor(), AttendanceQuery{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, Date: "2024-03-01",
	})
	require.NoError(t, err)
	assert.False(t, sheet.Marked)
	assert.Empty(t, sheet.Records)
	assert.Equal(t, []academic.SheetEntry{{StudentID: sc.student.ID, Status: academic.StatusPresent}}, sheet.Sheet)
	assert.Len(t, sheet.Roster, 1)
}

func TestMarkAttendanceRejectsWholeBatch(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	stranger := sc.addStudent(t, "s9@school.test", "S9", "09")

	cases := map[string]MarkAttendanceRequest{
		"not enrolled": markRequest(sc,
			AttendanceEntry{StudentID: sc.student.ID, Status: "present"},
			AttendanceEntry{StudentID: stranger.ID, Status: "present"}),
		"duplicate student": markRequest(sc,
			AttendanceEntry{StudentID: sc.student.ID, Status: "present"},
			AttendanceEntry{StudentID: sc.student.ID, Status: "absent"}),
		"unknown status": markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "late"}),
		"bad date":       {ClassID: sc.class.ID, SubjectID: sc.subject.ID, Date: "01/03/2024"},
		"missing class":  {SubjectID: sc.subject.ID, Date: "2024-03-01"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := sc.svc.Attendance.MarkAttendance(ctx, sc.teacherActor(), req)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	sheet, err := sc.svc.Attendance.GetAttendance(ctx, sc.teacherActor(), AttendanceQuery{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, Date: "2024-03-01",
	})
	require.NoError(t, err)
	assert.False(t, sheet.Marked)
	assert.Equal(t, float64(len(cases)), testutil.ToFloat64(sc.svc.Metrics.rejectedBatches.WithLabelValues(BatchAttendance)))
}

func TestMarkAttendanceFillsMissingStudentsWithDefault(t *testing.T) {
	sc := newSchool(t)
	other := sc.addStudent(t, "s2@school.test", "S2", "02")
	sc.enroll(t, other.ID)

	req := markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "absent"})
	sheet, err := sc.svc.Attendance.MarkAttendance(context.Background(), sc.teacherActor(), req)
	require.NoError(t, err)
	assert.Equal(t, academic.AttendanceSummary{Present: 1, Absent: 1, Total: 2}, sheet.Summary)

	req.DefaultStatus = "absent"
	sheet, err = sc.svc.Attendance.MarkAttendance(context.Background(), sc.teacherActor(), req)
	require.NoError(t, err)
	assert.Equal(t, academic.AttendanceSummary{Present: 0, Absent: 2, Total: 2}, sheet.Summary)
	for _, rec := range sheet.Records {
		require.NotNil(t, rec.MarkedBy)
		assert.Equal(t, sc.teacher.ID, *rec.MarkedBy)
	}
}

func TestMarkAttendanceRejectsFutureDates(t *testing.T) {
	sc := newSchool(t)
	sc.svc.Attendance.now = func() time.Time { return time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC) }

	req := markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "present"})
	_, err := sc.svc.Attendance.MarkAttendance(context.Background(), sc.teacherActor(), req)
	require.NoError(t, err)

	req.Date = "2024-03-02"
	_, err = sc.svc.Attendance.MarkAttendance(context.Background(), sc.teacherActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestMarkAttendanceScopedToAssignedTeacher(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	outsider := sc.addTeacher(t, "t2@school.test", "T2")
	req := markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "present"})

	_, err := sc.svc.Attendance.MarkAttendance(ctx, Actor{ID: outsider.ID, Role: models.RoleTeacher}, req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = sc.svc.Attendance.MarkAttendance(ctx, sc.studentActor(), req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = sc.svc.Attendance.MarkAttendance(ctx, adminActor(), req)
	assert.NoError(t, err)
}

func TestMarkAttendanceRequiresActiveClassAndRoster(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	empty, err := sc.svc.Classes.Create(ctx, CreateClassRequest{Name: "10", Section: "B"})
	require.NoError(t, err)
	_, err = sc.svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{ClassID: empty.ID, SubjectID: sc.subject.ID, TeacherID: sc.teacher.ID})
	require.NoError(t, err)
	_, err = sc.svc.Attendance.MarkAttendance(ctx, sc.teacherActor(), MarkAttendanceRequest{
		ClassID: empty.ID, SubjectID: sc.subject.ID, Date: "2024-03-01",
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = sc.svc.Classes.SetActive(ctx, sc.class.ID, false)
	require.NoError(t, err)
	_, err = sc.svc.Attendance.MarkAttendance(ctx, sc.teacherActor(), markRequest(sc, AttendanceEntry{StudentID: sc.student.ID, Status: "present"}))
	assert.ErrorIs(t, err, appErrors.ErrPreconditionFailed)
}

func TestBulkSetStatusPersistsNothing(t *testing.T) {
	sc := newSchool(t)
	preview, err := sc.svc.Attendance.BulkSetStatus(BulkStatusRequest{
		Records: []academic.SheetEntry{
			{StudentID: "a", Status: academic.StatusPresent},
			{StudentID: "b", Status: academic.StatusAbsent},
		},
		Status: "absent",
	})
	require.NoError(t, err)
	assert.Equal(t, academic.AttendanceSummary{Absent: 2, Total: 2}, preview.Summary)

	_, err = sc.svc.Attendance.BulkSetStatus(BulkStatusRequest{Records: []academic.SheetEntry{}, Status: "late"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	history, err := sc.svc.Attendance.StudentHistory(context.Background(), sc.student.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Records)
}

type failingAttendanceRepo struct {
	attendanceRepository
}

func (failingAttendanceRepo) ListByStudent(context.Context, string) ([]models.AttendanceRecord, error) {
	return nil, errors.New("connection reset")
}

func TestStudentHistoryWrapsStorageErrors(t *testing.T) {
	svc := NewAttendanceService(AttendanceServiceParams{Records: failingAttendanceRepo{}})
	_, err := svc.StudentHistory(context.Background(), "s1")
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
