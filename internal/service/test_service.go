package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type testRepository interface {
	List(ctx context.Context, filter models.TestFilter) ([]models.Test, error)
	FindByID(ctx context.Context, id string) (*models.Test, error)
	Create(ctx context.Context, test *models.Test) error
	Update(ctx context.Context, test *models.Test) error
	DeleteWithMarks(ctx context.Context, id string) error
}

type markRepository interface {
	ListByTest(ctx context.Context, testID string) ([]models.Mark, error)
	UpsertBatch(ctx context.Context, marks []models.Mark) error
	ListByStudent(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error)
}

// CreateTestRequest schedules a test for a class-subject pair.
type CreateTestRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	TestName    string `json:"test_name" validate:"required,max=100"`
	TestDate    string `json:"test_date" validate:"required"`
	MaxMarks    int    `json:"max_marks" validate:"required,gt=0,lte=1000"`
	Description string `json:"description" validate:"max=500"`
}

// UpdateTestRequest changes the editable fields of a test.
type UpdateTestRequest struct {
	TestName    *string `json:"test_name" validate:"omitempty,max=100"`
	TestDate    *string `json:"test_date"`
	MaxMarks    *int    `json:"max_marks" validate:"omitempty,gt=0,lte=1000"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

// MarkInput is one student's score in a save request.
type MarkInput struct {
	StudentID string   `json:"student_id" validate:"required"`
	Marks     *float64 `json:"marks" validate:"required"`
	Remarks   *string  `json:"remarks" validate:"omitempty,max=255"`
}

// SaveMarksRequest is a batch of scores for one test.
type SaveMarksRequest struct {
	Marks []MarkInput `json:"marks" validate:"required,min=1,dive"`
}

// MarkSheetRow is a roster line of a marks sheet.
type MarkSheetRow struct {
	StudentID string   `json:"student_id"`
	FullName  string   `json:"full_name"`
	RollNo    *string  `json:"roll_no,omitempty"`
	Marks     *float64 `json:"marks"`
}

// MarkSheetView is a test with its marks merged against the current roster.
// Former lists marks of students who have since left the class.
type MarkSheetView struct {
	Test   models.Test          `json:"test"`
	Rows   []MarkSheetRow       `json:"rows"`
	Former []academic.MarkEntry `json:"former"`
}

// TestService manages tests and their marks.
type TestService struct {
	classes   classLookup
	subjects  subjectLookup
	tests     testRepository
	marks     markRepository
	roster    rosterReader
	scope     teachingScope
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// TestServiceParams groups the dependencies of TestService.
type TestServiceParams struct {
	Classes   classLookup
	Subjects  subjectLookup
	Tests     testRepository
	Marks     markRepository
	Roster    rosterReader
	Scope     teachingScope
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewTestService constructs TestService.
func NewTestService(params TestServiceParams) *TestService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TestService{
		classes:   params.Classes,
		subjects:  params.Subjects,
		tests:     params.Tests,
		marks:     params.Marks,
		roster:    params.Roster,
		scope:     params.Scope,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: ensureValidator(params.Validator),
		logger:    logger,
	}
}

// ListTests returns the tests of a class-subject pair. Admins may omit the filter.
func (s *TestService) ListTests(ctx context.Context, actor Actor, filter models.TestFilter) ([]models.Test, error) {
	if !actor.IsAdmin() {
		if filter.ClassID == "" || filter.SubjectID == "" {
			return nil, appErrors.Validation(nil, "class_id and subject_id are required")
		}
		if err := s.scope.EnsureTeaches(ctx, actor, filter.ClassID, filter.SubjectID); err != nil {
			return nil, err
		}
	}
	tests, err := s.tests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list tests")
	}
	if tests == nil {
		tests = []models.Test{}
	}
	return tests, nil
}

// GetTest returns one test the actor may see.
func (s *TestService) GetTest(ctx context.Context, actor Actor, id string) (*models.Test, error) {
	test, err := s.tests.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "test")
	}
	if err := s.scope.EnsureTeaches(ctx, actor, test.ClassID, test.SubjectID); err != nil {
		return nil, err
	}
	return test, nil
}

// CreateTest adds a test for a pair the actor teaches.
func (s *TestService) CreateTest(ctx context.Context, actor Actor, req CreateTestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	testDate, err := parseDate(req.TestDate, "test_date")
	if err != nil {
		return nil, err
	}
	if err := s.scope.EnsureTeaches(ctx, actor, req.ClassID, req.SubjectID); err != nil {
		return nil, err
	}
	if err := requireActiveClass(ctx, s.classes, req.ClassID); err != nil {
		return nil, err
	}
	if err := requireActiveSubject(ctx, s.subjects, req.SubjectID); err != nil {
		return nil, err
	}

	createdBy := actor.ID
	test := &models.Test{
		ClassID:     req.ClassID,
		SubjectID:   req.SubjectID,
		TestName:    strings.TrimSpace(req.TestName),
		TestDate:    testDate,
		MaxMarks:    req.MaxMarks,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   &createdBy,
	}
	if err := s.tests.Create(ctx, test); err != nil {
		return nil, appErrors.Internal(err, "failed to create test")
	}
	s.logger.Info("test created", zap.String("test_id", test.ID), zap.String("class_id", test.ClassID), zap.String("subject_id", test.SubjectID))
	s.cache.InvalidateDashboards(ctx)
	created, err := s.tests.FindByID(ctx, test.ID)
	if err != nil {
		return nil, lookupError(err, "test")
	}
	return created, nil
}

// UpdateTest edits a test. Lowering the maximum below a stored mark is rejected.
func (s *TestService) UpdateTest(ctx context.Context, actor Actor, id string, req UpdateTestRequest) (*models.Test, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid test payload")
	}
	test, err := s.GetTest(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.TestName != nil {
		name := strings.TrimSpace(*req.TestName)
		if name == "" {
			return nil, appErrors.Validation(nil, "test_name cannot be empty")
		}
		test.TestName = name
	}
	if req.TestDate != nil {
		testDate, err := parseDate(*req.TestDate, "test_date")
		if err != nil {
			return nil, err
		}
		test.TestDate = testDate
	}
	if req.Description != nil {
		test.Description = strings.TrimSpace(*req.Description)
	}
	if req.MaxMarks != nil && *req.MaxMarks != test.MaxMarks {
		marks, err := s.marks.ListByTest(ctx, id)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load marks")
		}
		highest := 0.0
		for _, m := range marks {
			highest = math.Max(highest, m.MarksObtained)
		}
		if highest > float64(*req.MaxMarks) {
			return nil, appErrors.Validation(nil, "max_marks cannot be lower than an existing mark")
		}
		test.MaxMarks = *req.MaxMarks
	}

	if err := s.tests.Update(ctx, test); err != nil {
		return nil, appErrors.Internal(err, "failed to update test")
	}
	return test, nil
}

// DeleteTest removes a test and all of its marks. It requires explicit confirmation.
func (s *TestService) DeleteTest(ctx context.Context, actor Actor, id string, confirm bool) error {
	test, err := s.GetTest(ctx, actor, id)
	if err != nil {
		return err
	}
	if !confirm {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "deleting a test removes its marks; pass confirm=true to proceed")
	}
	if err := s.tests.DeleteWithMarks(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete test")
	}
	s.logger.Info("test deleted", zap.String("test_id", id), zap.String("class_id", test.ClassID))
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// SaveMarks validates the whole batch against the test bounds and the class
// roster before writing. A single bad entry rejects the batch.
func (s *TestService) SaveMarks(ctx context.Context, actor Actor, testID string, req SaveMarksRequest) (*MarkSheetView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.reject(testID, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload"))
	}
	test, err := s.GetTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Roster(ctx, test.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}

	entries := make([]academic.MarkEntry, len(req.Marks))
	for i, in := range req.Marks {
		entries[i] = academic.MarkEntry{StudentID: in.StudentID, Marks: *in.Marks}
	}
	if err := academic.ValidateMarks(entries, test.MaxMarks, models.RosterIDs(roster)); err != nil {
		return nil, s.reject(testID, appErrors.Validation(err, err.Error()))
	}

	marks := make([]models.Mark, len(req.Marks))
	for i, in := range req.Marks {
		marks[i] = models.Mark{TestID: testID, StudentID: in.StudentID, MarksObtained: *in.Marks, Remarks: trimmed(in.Remarks)}
	}
	if err := s.marks.UpsertBatch(ctx, marks); err != nil {
		return nil, appErrors.Internal(err, "failed to save marks")
	}
	s.metrics.RecordWrites(BatchMarks, len(marks))
	s.logger.Info("marks saved", zap.String("test_id", testID), zap.Int("entries", len(marks)))
	s.cache.InvalidateDashboards(ctx)

	return s.merge(ctx, test, roster)
}

// LoadMarks merges stored marks with the current roster of the test's class.
func (s *TestService) LoadMarks(ctx context.Context, actor Actor, testID string) (*MarkSheetView, error) {
	test, err := s.GetTest(ctx, actor, testID)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Roster(ctx, test.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	return s.merge(ctx, test, roster)
}

// StudentMarks returns a student's most recent marks.
func (s *TestService) StudentMarks(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error) {
	marks, err := s.marks.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	if marks == nil {
		marks = []models.StudentMark{}
	}
	return marks, nil
}

func (s *TestService) merge(ctx context.Context, test *models.Test, roster []models.RosterStudent) (*MarkSheetView, error) {
	stored, err := s.marks.ListByTest(ctx, test.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load marks")
	}
	entries := make([]academic.MarkEntry, len(stored))
	for i, m := range stored {
		entries[i] = academic.MarkEntry{StudentID: m.StudentID, Marks: m.MarksObtained}
	}
	sheet := academic.MergeMarks(models.RosterIDs(roster), entries)

	view := &MarkSheetView{Test: *test, Rows: make([]MarkSheetRow, len(sheet.Rows)), Former: sheet.Former}
	for i, row := range sheet.Rows {
		view.Rows[i] = MarkSheetRow{
			StudentID: row.StudentID,
			FullName:  roster[i].FullName,
			RollNo:    roster[i].RollNo,
			Marks:     row.Marks,
		}
	}
	if view.Former == nil {
		view.Former = []academic.MarkEntry{}
	}
	return view, nil
}

func (s *TestService) reject(testID string, err error) error {
	s.metrics.RecordRejectedBatch(BatchMarks)
	s.logger.Warn("marks batch rejected", zap.String("test_id", testID), zap.Error(err))
	return err
}
