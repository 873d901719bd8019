//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noah-isme/sma-academic-api/internal/repository"
	"github.com/noah-isme/sma-academic-api/internal/service"
	"github.com/noah-isme/sma-academic-api/pkg/database"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func startPostgres(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := postgres.RunContainer(ctx,
		tc.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("school"),
		postgres.WithUsername("school"),
		postgres.WithPassword("school"),
		tc.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = pg.Terminate(stopCtx)
	})

	uri, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sqlx.ConnectContext(ctx, "postgres", uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(ctx, db.DB))
	return db
}

func postgresServices(db *sqlx.DB) *service.Services {
	return service.New(service.Repositories{
		Users:         repository.NewUserRepository(db),
		Classes:       repository.NewClassRepository(db),
		Subjects:      repository.NewSubjectRepository(db),
		ClassSubjects: repository.NewClassSubjectRepository(db),
		Memberships:   repository.NewMembershipRepository(db),
		Attendance:    repository.NewAttendanceRepository(db),
		Tests:         repository.NewTestRepository(db),
		Marks:         repository.NewMarkRepository(db),
		Assignments:   repository.NewAssignmentRepository(db),
		Submissions:   repository.NewSubmissionRepository(db),
	}, service.Options{
		Auth: service.AuthConfig{AccessTokenSecret: "integration", AccessTokenExpiry: time.Hour, Issuer: "integration"},
	})
}

func TestPostgresAcademicRecords(t *testing.T) {
	db := startPostgres(t)
	svc := postgresServices(db)
	ctx := context.Background()

	teacher, err := svc.Users.Create(ctx, service.CreateUserRequest{Email: "t1@school.test", Password: "secret1", FullName: "T1", Role: "teacher"})
	require.NoError(t, err)
	roll := "01"
	student, err := svc.Users.Create(ctx, service.CreateUserRequest{Email: "s1@school.test", Password: "secret1", FullName: "S1", Role: "student", RollNo: &roll})
	require.NoError(t, err)
	_, err = svc.Users.Create(ctx, service.CreateUserRequest{Email: "S1@school.test", Password: "secret1", FullName: "S1 again", Role: "student"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	class, err := svc.Classes.Create(ctx, service.CreateClassRequest{Name: "10", Section: "A"})
	require.NoError(t, err)
	subject, err := svc.Subjects.Create(ctx, service.CreateSubjectRequest{Name: "Math", Code: "mth"})
	require.NoError(t, err)
	assert.Equal(t, "MTH", subject.Code)

	_, err = svc.Graph.AssignSubjectToClass(ctx, service.AssignSubjectRequest{ClassID: class.ID, SubjectID: subject.ID, TeacherID: teacher.ID})
	require.NoError(t, err)
	_, err = svc.Graph.AssignSubjectToClass(ctx, service.AssignSubjectRequest{ClassID: class.ID, SubjectID: subject.ID, TeacherID: teacher.ID})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = svc.Graph.AssignStudentToClass(ctx, class.ID, service.AssignStudentRequest{StudentID: student.ID})
	require.NoError(t, err)

	actor := service.Actor{ID: teacher.ID, Role: "teacher"}
	day := time.Now().UTC().Format("2006-01-02")
	for _, status := range []string{"present", "absent"} {
		_, err = svc.Attendance.MarkAttendance(ctx, actor, service.MarkAttendanceRequest{
			ClassID: class.ID, SubjectID: subject.ID, Date: day,
			Records: []service.AttendanceEntry{{StudentID: student.ID, Status: status}},
		})
		require.NoError(t, err)
	}
	sheet, err := svc.Attendance.GetAttendance(ctx, actor, service.AttendanceQuery{ClassID: class.ID, SubjectID: subject.ID, Date: day})
	require.NoError(t, err)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, 1, sheet.Summary.Absent)

	test, err := svc.Tests.CreateTest(ctx, actor, service.CreateTestRequest{
		ClassID: class.ID, SubjectID: subject.ID, TestName: "Unit 1", TestDate: "2024-03-05", MaxMarks: 50,
	})
	require.NoError(t, err)
	score := 60.0
	_, err = svc.Tests.SaveMarks(ctx, actor, test.ID, service.SaveMarksRequest{Marks: []service.MarkInput{{StudentID: student.ID, Marks: &score}}})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	score = 45
	marks, err := svc.Tests.SaveMarks(ctx, actor, test.ID, service.SaveMarksRequest{Marks: []service.MarkInput{{StudentID: student.ID, Marks: &score}}})
	require.NoError(t, err)
	require.Len(t, marks.Rows, 1)
	require.NotNil(t, marks.Rows[0].Marks)
	assert.Equal(t, 45.0, *marks.Rows[0].Marks)

	require.NoError(t, svc.Tests.DeleteTest(ctx, actor, test.ID, true))
	recent, err := svc.Tests.StudentMarks(ctx, student.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, recent)

	summary, _, err := svc.Dashboard.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Counts.Students.Active)
	assert.Equal(t, 0, summary.UnplacedStudents)
}
