package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/dto"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type roleCounter interface {
	CountByRole(ctx context.Context) ([]models.RoleCount, error)
}

type activeCounter interface {
	Count(ctx context.Context) (models.ActiveCount, error)
}

type placementCounter interface {
	StudentPlacements(ctx context.Context) ([]string, error)
	ActiveByStudent(ctx context.Context, studentID string) (*models.ClassMembership, error)
}

type pairReader interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error)
	CountWithInactiveTeacher(ctx context.Context) (int, error)
}

type testLister interface {
	List(ctx context.Context, filter models.TestFilter) ([]models.Test, error)
}

type workItemLister interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
}

type submissionReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
	CountPendingForTeacher(ctx context.Context, teacherID string) (int, error)
}

type studentAttendanceReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
}

type studentMarkReader interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	RecentMarks   int
	UpcomingLimit int
	DueRule       academic.DueRule
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       roleCounter
	Classes     activeCounter
	Subjects    activeCounter
	Placements  placementCounter
	Pairs       pairReader
	Tests       testLister
	WorkItems   workItemLister
	Submissions submissionReader
	Attendance  studentAttendanceReader
	Marks       studentMarkReader
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// DashboardService composes the read-only per-role summaries.
type DashboardService struct {
	users       roleCounter
	classes     activeCounter
	subjects    activeCounter
	placements  placementCounter
	pairs       pairReader
	tests       testLister
	workItems   workItemLister
	submissions submissionReader
	attendance  studentAttendanceReader
	marks       studentMarkReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.RecentMarks <= 0 {
		cfg.RecentMarks = 5
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 10
	}
	if cfg.DueRule.Location == nil {
		cfg.DueRule = academic.NewDueRule(time.UTC, academic.DefaultDueSoonDays)
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		classes:     params.Classes,
		subjects:    params.Subjects,
		placements:  params.Placements,
		pairs:       params.Pairs,
		tests:       params.Tests,
		workItems:   params.WorkItems,
		submissions: params.Submissions,
		attendance:  params.Attendance,
		marks:       params.Marks,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Admin returns the admin dashboard and reports whether it came from cache.
func (s *DashboardService) Admin(ctx context.Context) (*dto.AdminDashboardResponse, bool, error) {
	cacheKey := dashboardKey(scopeAdmin)
	var cached dto.AdminDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	summary, err := s.composeAdmin(ctx)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Accountant returns roster counts only.
func (s *DashboardService) Accountant(ctx context.Context) (*dto.AccountantDashboardResponse, bool, error) {
	cacheKey := dashboardKey(scopeAccountant)
	var cached dto.AccountantDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	counts, err := s.rosterCounts(ctx)
	if err != nil {
		return nil, false, err
	}
	summary := &dto.AccountantDashboardResponse{Counts: *counts, GeneratedAt: s.now().UTC()}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Teacher returns the teacher's pairs, work item due buckets and pending submissions.
func (s *DashboardService) Teacher(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, bool, error) {
	if teacherID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "teacherId is required")
	}
	cacheKey := dashboardKey(scopeTeacher, teacherID)
	var cached dto.TeacherDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	summary, err := s.composeTeacher(ctx, teacherID)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

// Student returns the student's attendance percentage, upcoming work and recent marks.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, bool, error) {
	if studentID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "studentId is required")
	}
	cacheKey := dashboardKey(scopeStudent, studentID)
	var cached dto.StudentDashboardResponse
	if hit, err := s.tryCache(ctx, cacheKey, &cached); err != nil {
		return nil, false, err
	} else if hit {
		return &cached, true, nil
	}

	summary, err := s.composeStudent(ctx, studentID)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, summary)
	return summary, false, nil
}

func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		// a broken cache must not take dashboards down
		return false, nil
	}
	return hit, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) rosterCounts(ctx context.Context) (*dto.RosterCounts, error) {
	classes, err := s.classes.Count(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count classes")
	}
	subjects, err := s.subjects.Count(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count subjects")
	}
	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count users")
	}
	counts := &dto.RosterCounts{
		Classes:  dto.ActiveSplit{Active: classes.Active, Inactive: classes.Inactive},
		Subjects: dto.ActiveSplit{Active: subjects.Active, Inactive: subjects.Inactive},
	}
	for _, rc := range roles {
		split := dto.ActiveSplit{Active: rc.Active, Inactive: rc.Inactive}
		switch rc.Role {
		case models.RoleAdmin:
			counts.Admins = split
		case models.RoleTeacher:
			counts.Teachers = split
		case models.RoleStudent:
			counts.Students = split
		case models.RoleAccountant:
			counts.Accountants = split
		}
	}
	return counts, nil
}

func (s *DashboardService) composeAdmin(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	counts, err := s.rosterCounts(ctx)
	if err != nil {
		return nil, err
	}
	placements, err := s.placements.StudentPlacements(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class distribution")
	}
	unstaffed, err := s.pairs.CountWithInactiveTeacher(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count unstaffed pairs")
	}

	dist := academic.ClassDistribution(placements)
	summary := &dto.AdminDashboardResponse{
		Counts:            *counts,
		ClassDistribution: make([]dto.ClassHeadcount, 0, len(dist)),
		UnplacedStudents:  dist[""],
		UnstaffedPairs:    unstaffed,
		GeneratedAt:       s.now().UTC(),
	}
	for classID, n := range dist {
		if classID == "" {
			continue
		}
		summary.ClassDistribution = append(summary.ClassDistribution, dto.ClassHeadcount{ClassID: classID, Students: n})
	}
	sort.Slice(summary.ClassDistribution, func(i, j int) bool {
		return summary.ClassDistribution[i].ClassID < summary.ClassDistribution[j].ClassID
	})
	return summary, nil
}

func (s *DashboardService) composeTeacher(ctx context.Context, teacherID string) (*dto.TeacherDashboardResponse, error) {
	pairs, err := s.pairs.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load teacher assignments")
	}
	summary := &dto.TeacherDashboardResponse{
		TeacherID:   teacherID,
		Assignments: make([]dto.TeacherPairSummary, 0, len(pairs)),
		GeneratedAt: s.now().UTC(),
	}
	now := s.now()
	for _, pair := range pairs {
		tests, err := s.tests.List(ctx, models.TestFilter{ClassID: pair.ClassID, SubjectID: pair.SubjectID})
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count tests")
		}
		summary.Assignments = append(summary.Assignments, dto.TeacherPairSummary{
			AssignmentID: pair.ID,
			ClassID:      pair.ClassID,
			ClassLabel:   models.Class{Name: pair.ClassName, Section: pair.ClassSection}.Label(),
			SubjectID:    pair.SubjectID,
			SubjectName:  pair.SubjectName,
			Tests:        len(tests),
		})
		items, err := s.workItems.List(ctx, models.AssignmentFilter{ClassID: pair.ClassID, SubjectID: pair.SubjectID})
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load work items")
		}
		for _, item := range items {
			countDue(&summary.WorkItems, s.cfg.DueRule.Status(item.DueDate.Time, now))
		}
	}
	pending, err := s.submissions.CountPendingForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count pending submissions")
	}
	summary.PendingSubmissions = pending
	return summary, nil
}

func (s *DashboardService) composeStudent(ctx context.Context, studentID string) (*dto.StudentDashboardResponse, error) {
	summary := &dto.StudentDashboardResponse{
		StudentID:   studentID,
		Upcoming:    []dto.UpcomingWork{},
		RecentMarks: []dto.RecentMark{},
		GeneratedAt: s.now().UTC(),
	}

	records, err := s.attendance.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	att := academic.Summarize(models.SheetEntries(records))
	summary.Attendance = dto.StudentAttendance{
		Present:    att.Present,
		Absent:     att.Absent,
		Total:      att.Total,
		Percentage: academic.AttendancePercentage(att.Present, att.Total),
	}

	membership, err := s.placements.ActiveByStudent(ctx, studentID)
	switch {
	case err == nil:
		summary.ClassID = membership.ClassID
		if err := s.fillStudentWork(ctx, studentID, membership.ClassID, summary); err != nil {
			return nil, err
		}
	case !isNotFound(err):
		return nil, appErrors.Internal(err, "failed to load student class")
	}

	marks, err := s.marks.ListByStudent(ctx, studentID, s.cfg.RecentMarks)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load recent marks")
	}
	for _, m := range marks {
		summary.RecentMarks = append(summary.RecentMarks, dto.RecentMark{
			TestID:        m.TestID,
			TestName:      m.TestName,
			SubjectName:   m.SubjectName,
			TestDate:      m.TestDate.String(),
			MarksObtained: m.MarksObtained,
			MaxMarks:      m.MaxMarks,
		})
	}
	return summary, nil
}

func (s *DashboardService) fillStudentWork(ctx context.Context, studentID, classID string, summary *dto.StudentDashboardResponse) error {
	items, err := s.workItems.List(ctx, models.AssignmentFilter{ClassID: classID})
	if err != nil {
		return appErrors.Internal(err, "failed to load work items")
	}
	subs, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return appErrors.Internal(err, "failed to load submissions")
	}
	submitted := make(map[string]struct{}, len(subs))
	for _, sub := range subs {
		submitted[sub.AssignmentID] = struct{}{}
	}

	now := s.now()
	for _, item := range items {
		status := s.cfg.DueRule.Status(item.DueDate.Time, now)
		countDue(&summary.WorkItems, status)
		if status == academic.DueOverdue || len(summary.Upcoming) >= s.cfg.UpcomingLimit {
			continue
		}
		_, done := submitted[item.ID]
		summary.Upcoming = append(summary.Upcoming, dto.UpcomingWork{
			ID:        item.ID,
			Title:     item.Title,
			Type:      string(item.Type),
			DueDate:   item.DueDate.String(),
			DueStatus: string(status),
			Submitted: done,
		})
	}
	return nil
}

func countDue(b *dto.DueBuckets, status academic.DueStatus) {
	switch status {
	case academic.DueActive:
		b.Active++
	case academic.DueSoon:
		b.DueSoon++
	case academic.DueOverdue:
		b.Overdue++
	}
}
