package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	"github.com/noah-isme/sma-academic-api/internal/repository/memory"
)

func memoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		Users:         store.Users(),
		Classes:       store.Classes(),
		Subjects:      store.Subjects(),
		ClassSubjects: store.ClassSubjects(),
		Memberships:   store.Memberships(),
		Attendance:    store.Attendance(),
		Tests:         store.Tests(),
		Marks:         store.Marks(),
		Assignments:   store.Assignments(),
		Submissions:   store.Submissions(),
	}
}

// school is a fully wired set of services over the in-memory store, seeded
// with class 10-A, subject Math (MTH101), teacher T1 teaching it and student S1.
type school struct {
	svc       *Services
	store     *memory.Store
	cacheRepo *stubCacheRepo
	teacher   *models.User
	student   *models.User
	class     *models.Class
	subject   *models.Subject
	pair      *models.ClassSubjectAssignment
}

func newSchool(t *testing.T) *school {
	t.Helper()
	store := memory.NewStore()
	cacheRepo := &stubCacheRepo{}
	metrics := NewMetricsService()
	svc := New(memoryRepositories(store), Options{
		Cache:   NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), true),
		Metrics: metrics,
		Logger:  zap.NewNop(),
		Auth:    AuthConfig{AccessTokenSecret: "test-secret", AccessTokenExpiry: time.Hour, Issuer: "test"},
		DueRule: academic.NewDueRule(time.UTC, academic.DefaultDueSoonDays),
	})
	ctx := context.Background()

	sc := &school{svc: svc, store: store, cacheRepo: cacheRepo}
	var err error
	sc.teacher, err = svc.Users.Create(ctx, CreateUserRequest{
		Email: "t1@school.test", Password: "secret1", FullName: "T1", Role: "teacher",
	})
	require.NoError(t, err)
	sc.student = sc.addStudent(t, "s1@school.test", "S1", "01")
	sc.class, err = svc.Classes.Create(ctx, CreateClassRequest{Name: "10", Section: "A"})
	require.NoError(t, err)
	sc.subject, err = svc.Subjects.Create(ctx, CreateSubjectRequest{Name: "Math", Code: "MTH101"})
	require.NoError(t, err)
	sc.pair, err = svc.Graph.AssignSubjectToClass(ctx, AssignSubjectRequest{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, TeacherID: sc.teacher.ID,
	})
	require.NoError(t, err)
	sc.enroll(t, sc.student.ID)
	return sc
}

func (sc *school) addStudent(t *testing.T, email, name, rollNo string) *models.User {
	t.Helper()
	student, err := sc.svc.Users.Create(context.Background(), CreateUserRequest{
		Email: email, Password: "secret1", FullName: name, Role: "student", RollNo: &rollNo,
	})
	require.NoError(t, err)
	return student
}

func (sc *school) addTeacher(t *testing.T, email, name string) *models.User {
	t.Helper()
	teacher, err := sc.svc.Users.Create(context.Background(), CreateUserRequest{
		Email: email, Password: "secret1", FullName: name, Role: "teacher",
	})
	require.NoError(t, err)
	return teacher
}

func (sc *school) enroll(t *testing.T, studentID string) {
	t.Helper()
	_, err := sc.svc.Graph.AssignStudentToClass(context.Background(), sc.class.ID, AssignStudentRequest{StudentID: studentID})
	require.NoError(t, err)
}

func (sc *school) teacherActor() Actor {
	return Actor{ID: sc.teacher.ID, Role: models.RoleTeacher}
}

func (sc *school) studentActor() Actor {
	return Actor{ID: sc.student.ID, Role: models.RoleStudent}
}

func adminActor() Actor {
	return Actor{ID: "admin-1", Role: models.RoleAdmin}
}

func (sc *school) createTest(t *testing.T, name string, maxMarks int) *models.Test {
	t.Helper()
	test, err := sc.svc.Tests.CreateTest(context.Background(), sc.teacherActor(), CreateTestRequest{
		ClassID: sc.class.ID, SubjectID: sc.subject.ID, TestName: name, TestDate: "2024-03-05", MaxMarks: maxMarks,
	})
	require.NoError(t, err)
	return test
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
