package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/dto"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestAdminDashboardCountsAndDistribution(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	sc.addStudent(t, "s2@school.test", "S2", "02")
	_, err := sc.svc.Users.SetActive(ctx, sc.teacher.ID, false)
	require.NoError(t, err)

	summary, hit, err := sc.svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, dto.ActiveSplit{Active: 1}, summary.Counts.Classes)
	assert.Equal(t, dto.ActiveSplit{Active: 1}, summary.Counts.Subjects)
	assert.Equal(t, dto.ActiveSplit{Inactive: 1}, summary.Counts.Teachers)
	assert.Equal(t, dto.ActiveSplit{Active: 2}, summary.Counts.Students)
	assert.Equal(t, []dto.ClassHeadcount{{ClassID: sc.class.ID, Students: 1}}, summary.ClassDistribution)
	assert.Equal(t, 1, summary.UnplacedStudents)
	assert.Equal(t, 1, summary.UnstaffedPairs)

	cached, hit, err := sc.svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, summary.Counts, cached.Counts)

	accountant, _, err := sc.svc.Dashboard.Accountant(ctx)
	require.NoError(t, err)
	assert.Equal(t, summary.Counts, accountant.Counts)
}

func TestTeacherDashboardBucketsWorkAndPending(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	today := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	sc.svc.Dashboard.now = func() time.Time { return today }
	sc.createTest(t, "Unit-1", 50)

	var first string
	for _, due := range []string{"2024-01-01", "2024-01-04", "2024-03-01"} {
		item, err := sc.svc.Coursework.CreateAssignment(ctx, sc.teacherActor(), workItem(sc, "Due "+due, "homework", due, nil))
		require.NoError(t, err)
		if first == "" {
			first = item.ID
		}
	}
	_, err := sc.svc.Coursework.SubmitWork(ctx, sc.studentActor(), first, SubmitWorkRequest{Text: "done"})
	require.NoError(t, err)

	summary, _, err := sc.svc.Dashboard.Teacher(ctx, sc.teacher.ID)
	require.NoError(t, err)
	require.Len(t, summary.Assignments, 1)
	assert.Equal(t, "10-A", summary.Assignments[0].ClassLabel)
	assert.Equal(t, "Math", summary.Assignments[0].SubjectName)
	assert.Equal(t, 1, summary.Assignments[0].Tests)
	assert.Equal(t, dto.DueBuckets{Active: 1, DueSoon: 1, Overdue: 1}, summary.WorkItems)
	assert.Equal(t, 1, summary.PendingSubmissions)

	_, _, err = sc.svc.Dashboard.Teacher(ctx, "")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentDashboardUpcomingSkipsOverdue(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()
	sc.svc.Dashboard.now = func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }

	for _, due := range []string{"2024-01-01", "2024-01-04"} {
		_, err := sc.svc.Coursework.CreateAssignment(ctx, sc.teacherActor(), workItem(sc, "Due "+due, "homework", due, nil))
		require.NoError(t, err)
	}

	summary, _, err := sc.svc.Dashboard.Student(ctx, sc.student.ID)
	require.NoError(t, err)
	assert.Equal(t, sc.class.ID, summary.ClassID)
	assert.Equal(t, dto.DueBuckets{DueSoon: 1, Overdue: 1}, summary.WorkItems)
	require.Len(t, summary.Upcoming, 1)
	assert.Equal(t, "2024-01-04", summary.Upcoming[0].DueDate)
	assert.False(t, summary.Upcoming[0].Submitted)
	assert.Equal(t, dto.StudentAttendance{}, summary.Attendance)
	assert.Empty(t, summary.RecentMarks)

	unplaced := sc.addStudent(t, "s2@school.test", "S2", "02")
	other, _, err := sc.svc.Dashboard.Student(ctx, unplaced.ID)
	require.NoError(t, err)
	assert.Empty(t, other.ClassID)
	assert.Empty(t, other.Upcoming)
}

func TestDashboardIgnoresBrokenCache(t *testing.T) {
	sc := newSchool(t)
	sc.cacheRepo.getErr = errors.New("redis unavailable")

	summary, hit, err := sc.svc.Dashboard.Accountant(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, dto.ActiveSplit{Active: 1}, summary.Counts.Teachers)
}

func TestDashboardWithoutCache(t *testing.T) {
	sc := newSchool(t)
	svc := NewDashboardService(DashboardServiceParams{
		Users:       sc.store.Users(),
		Classes:     sc.store.Classes(),
		Subjects:    sc.store.Subjects(),
		Placements:  sc.store.Memberships(),
		Pairs:       sc.store.ClassSubjects(),
		Tests:       sc.store.Tests(),
		WorkItems:   sc.store.Assignments(),
		Submissions: sc.store.Submissions(),
		Attendance:  sc.store.Attendance(),
		Marks:       sc.store.Marks(),
	})

	_, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	_, hit, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
}
