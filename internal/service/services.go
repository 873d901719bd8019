package service

import (
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
)

// UserStore persists users.
type UserStore interface {
	authUserRepository
	userRepository
	roleCounter
}

// ClassStore persists classes.
type ClassStore interface {
	classRepository
	activeCounter
}

// SubjectStore persists subjects.
type SubjectStore interface {
	subjectRepository
	activeCounter
}

// ClassSubjectStore persists class-subject-teacher mappings.
type ClassSubjectStore interface {
	classSubjectRepository
	pairReader
}

// MembershipStore persists class memberships.
type MembershipStore interface {
	membershipRepository
	placementCounter
}

// AttendanceStore persists attendance records.
type AttendanceStore interface {
	attendanceRepository
	studentAttendanceReader
}

// TestStore persists tests.
type TestStore interface {
	testRepository
	testLister
}

// MarkStore persists marks.
type MarkStore interface {
	markRepository
	studentMarkReader
}

// AssignmentStore persists work items.
type AssignmentStore interface {
	assignmentRepository
	workItemLister
}

// SubmissionStore persists submissions.
type SubmissionStore interface {
	submissionRepository
	submissionReader
}

// Repositories is the storage backend. Both the PostgreSQL and the in-memory
// implementations satisfy it.
type Repositories struct {
	Users         UserStore
	Classes       ClassStore
	Subjects      SubjectStore
	ClassSubjects ClassSubjectStore
	Memberships   MembershipStore
	Attendance    AttendanceStore
	Tests         TestStore
	Marks         MarkStore
	Assignments   AssignmentStore
	Submissions   SubmissionStore
}

// Options carries the ambient dependencies shared by every service.
type Options struct {
	Cache        *CacheService
	Metrics      *MetricsService
	Validator    *validator.Validate
	Logger       *zap.Logger
	Auth         AuthConfig
	Location     *time.Location
	DueRule      academic.DueRule
	DashboardTTL time.Duration
}

// Services holds the wired application services.
type Services struct {
	Auth       *AuthService
	Users      *UserService
	Classes    *ClassService
	Subjects   *SubjectService
	Graph      *AssignmentGraphService
	Attendance *AttendanceService
	Tests      *TestService
	Coursework *CourseworkService
	Dashboard  *DashboardService
	RosterView *RosterViewService
	Export     *ExportService
	Cache      *CacheService
	Metrics    *MetricsService
}

// New wires every service on top of repos.
func New(repos Repositories, opts Options) *Services {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := ensureValidator(opts.Validator)
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DueRule.Location == nil {
		opts.DueRule = academic.NewDueRule(opts.Location, academic.DefaultDueSoonDays)
	}

	svc := &Services{Cache: opts.Cache, Metrics: opts.Metrics}
	svc.Auth = NewAuthService(repos.Users, validate, logger.Named("auth"), opts.Auth)
	svc.Users = NewUserService(repos.Users, opts.Cache, validate, logger.Named("users"))
	svc.Classes = NewClassService(repos.Classes, repos.Users, opts.Cache, validate, logger.Named("classes"))
	svc.Subjects = NewSubjectService(repos.Subjects, opts.Cache, validate, logger.Named("subjects"))
	svc.Graph = NewAssignmentGraphService(repos.Classes, repos.Subjects, repos.Users, repos.ClassSubjects, repos.Memberships, opts.Cache, validate, logger.Named("assignments"))
	svc.Attendance = NewAttendanceService(AttendanceServiceParams{
		Classes:   repos.Classes,
		Subjects:  repos.Subjects,
		Roster:    repos.Memberships,
		Records:   repos.Attendance,
		Scope:     svc.Graph,
		Cache:     opts.Cache,
		Metrics:   opts.Metrics,
		Validator: validate,
		Logger:    logger.Named("attendance"),
		Location:  opts.Location,
	})
	svc.Tests = NewTestService(TestServiceParams{
		Classes:   repos.Classes,
		Subjects:  repos.Subjects,
		Tests:     repos.Tests,
		Marks:     repos.Marks,
		Roster:    repos.Memberships,
		Scope:     svc.Graph,
		Cache:     opts.Cache,
		Metrics:   opts.Metrics,
		Validator: validate,
		Logger:    logger.Named("tests"),
	})
	svc.Coursework = NewCourseworkService(CourseworkServiceParams{
		Classes:     repos.Classes,
		Subjects:    repos.Subjects,
		Items:       repos.Assignments,
		Submissions: repos.Submissions,
		Placements:  repos.Memberships,
		Scope:       svc.Graph,
		Pairs:       svc.Graph,
		Cache:       opts.Cache,
		Metrics:     opts.Metrics,
		Validator:   validate,
		Logger:      logger.Named("coursework"),
		DueRule:     opts.DueRule,
	})
	svc.Dashboard = NewDashboardService(DashboardServiceParams{
		Users:       repos.Users,
		Classes:     repos.Classes,
		Subjects:    repos.Subjects,
		Placements:  repos.Memberships,
		Pairs:       repos.ClassSubjects,
		Tests:       repos.Tests,
		WorkItems:   repos.Assignments,
		Submissions: repos.Submissions,
		Attendance:  repos.Attendance,
		Marks:       repos.Marks,
		Cache:       opts.Cache,
		Logger:      logger.Named("dashboard"),
		Config:      DashboardServiceConfig{CacheTTL: opts.DashboardTTL, DueRule: opts.DueRule},
	})
	svc.RosterView = NewRosterViewService(RosterViewServiceParams{
		Roster:     repos.Memberships,
		Users:      repos.Users,
		Scope:      svc.Graph,
		Attendance: svc.Attendance,
		Marks:      svc.Tests,
		Work:       svc.Coursework,
		Logger:     logger.Named("roster"),
	})
	svc.Export = NewExportService(svc.Tests, svc.Attendance, logger.Named("export"))
	return svc
}
