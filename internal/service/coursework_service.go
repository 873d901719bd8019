package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, item *models.Assignment) error
	Update(ctx context.Context, item *models.Assignment) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, ids []string) (map[string]models.AssignmentStats, error)
}

type submissionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	FindByAssignmentStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	Create(ctx context.Context, sub *models.Submission) error
	ReplaceText(ctx context.Context, id, text string, at time.Time) (bool, error)
	MarkChecked(ctx context.Context, id string, marks float64, checkedBy string, at time.Time) (bool, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
}

type teacherPairs interface {
	GetTeacherAssignments(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error)
}

type placementReader interface {
	ActiveByStudent(ctx context.Context, studentID string) (*models.ClassMembership, error)
}

// WorkItemRequest creates or replaces a work item. TotalMarks is required for
// assignments and must be absent for homework.
type WorkItemRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	SubjectID   string `json:"subject_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	DueDate     string `json:"due_date" validate:"required"`
	Type        string `json:"type" validate:"required,work_type"`
	TotalMarks  *int   `json:"total_marks"`
}

// WorkItemQuery filters work item listings.
type WorkItemQuery struct {
	ClassID   string `form:"class_id"`
	SubjectID string `form:"subject_id"`
	Type      string `form:"type" validate:"omitempty,work_type"`
	Status    string `form:"status"`
}

// SubmitWorkRequest is a student's answer.
type SubmitWorkRequest struct {
	Text string `json:"submission_text" validate:"required,max=10000"`
}

// CheckSubmissionRequest grades a submission.
type CheckSubmissionRequest struct {
	MarksObtained *float64 `json:"marks_obtained" validate:"required"`
}

// StudentWorkItem is a work item seen by a student with their own submission.
type StudentWorkItem struct {
	models.Assignment
	DueStatus  academic.DueStatus `json:"due_status"`
	Submission *models.Submission `json:"submission,omitempty"`
}

// CourseworkService manages assignments, homework and submissions.
type CourseworkService struct {
	classes     classLookup
	subjects    subjectLookup
	items       assignmentRepository
	submissions submissionRepository
	placements  placementReader
	scope       teachingScope
	pairs       teacherPairs
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	rule        academic.DueRule
	now         func() time.Time
}

// CourseworkServiceParams groups the dependencies of CourseworkService.
type CourseworkServiceParams struct {
	Classes     classLookup
	Subjects    subjectLookup
	Items       assignmentRepository
	Submissions submissionRepository
	Placements  placementReader
	Scope       teachingScope
	Pairs       teacherPairs
	Cache       *CacheService
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
	DueRule     academic.DueRule
}

// NewCourseworkService constructs CourseworkService.
func NewCourseworkService(params CourseworkServiceParams) *CourseworkService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rule := params.DueRule
	if rule.Location == nil {
		rule = academic.NewDueRule(time.UTC, academic.DefaultDueSoonDays)
	}
	return &CourseworkService{
		classes:     params.Classes,
		subjects:    params.Subjects,
		items:       params.Items,
		submissions: params.Submissions,
		placements:  params.Placements,
		scope:       params.Scope,
		pairs:       params.Pairs,
		cache:       params.Cache,
		metrics:     params.Metrics,
		validator:   ensureValidator(params.Validator),
		logger:      logger,
		rule:        rule,
		now:         time.Now,
	}
}

// CreateAssignment adds a work item for a pair the actor teaches.
func (s *CourseworkService) CreateAssignment(ctx context.Context, actor Actor, req WorkItemRequest) (*models.Assignment, error) {
	item, err := s.buildItem(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	createdBy := actor.ID
	item.CreatedBy = &createdBy
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create work item")
	}
	s.logger.Info("work item created", zap.String("assignment_id", item.ID), zap.String("type", string(item.Type)))
	s.cache.InvalidateDashboards(ctx)
	return item, nil
}

// UpdateAssignment replaces a work item. The class-subject pair cannot change.
func (s *CourseworkService) UpdateAssignment(ctx context.Context, actor Actor, id string, req WorkItemRequest) (*models.Assignment, error) {
	current, err := s.GetAssignment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.ClassID != current.ClassID || req.SubjectID != current.SubjectID {
		return nil, appErrors.Validation(nil, "class and subject of a work item cannot change")
	}
	item, err := s.buildItem(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureGradesFit(ctx, current, item); err != nil {
		return nil, err
	}
	item.ID = current.ID
	item.CreatedBy = current.CreatedBy
	item.CreatedAt = current.CreatedAt
	if err := s.items.Update(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to update work item")
	}
	s.cache.InvalidateDashboards(ctx)
	return item, nil
}

// ensureGradesFit keeps checked submissions valid under an edited work item:
// the type is frozen once grading starts and total marks cannot drop below a
// mark already awarded.
func (s *CourseworkService) ensureGradesFit(ctx context.Context, current, next *models.Assignment) error {
	if current.Type == next.Type && (next.TotalMarks == nil || (current.TotalMarks != nil && *next.TotalMarks >= *current.TotalMarks)) {
		return nil
	}
	subs, err := s.submissions.ListByAssignment(ctx, current.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to load submissions")
	}
	checked := false
	highest := 0.0
	for _, sub := range subs {
		if sub.Status != academic.SubmissionChecked {
			continue
		}
		checked = true
		if sub.MarksObtained != nil {
			highest = math.Max(highest, *sub.MarksObtained)
		}
	}
	if !checked {
		return nil
	}
	if current.Type != next.Type {
		return appErrors.Validation(nil, "type cannot change after submissions are checked")
	}
	if next.TotalMarks != nil && float64(*next.TotalMarks) < highest {
		return appErrors.Validation(nil, "total_marks cannot be lower than an awarded mark")
	}
	return nil
}

// DeleteAssignment removes a work item together with its submissions.
func (s *CourseworkService) DeleteAssignment(ctx context.Context, actor Actor, id string) error {
	if _, err := s.GetAssignment(ctx, actor, id); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete work item")
	}
	s.logger.Info("work item deleted", zap.String("assignment_id", id))
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// GetAssignment returns a work item the actor teaches.
func (s *CourseworkService) GetAssignment(ctx context.Context, actor Actor, id string) (*models.Assignment, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "work item")
	}
	if err := s.scope.EnsureTeaches(ctx, actor, item.ClassID, item.SubjectID); err != nil {
		return nil, err
	}
	return item, nil
}

// ListAssignments returns work items with due status and completion. Teachers
// see only the pairs they are currently assigned to.
func (s *CourseworkService) ListAssignments(ctx context.Context, actor Actor, query WorkItemQuery) ([]models.AssignmentView, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work item filter")
	}
	status, err := parseDueStatus(query.Status)
	if err != nil {
		return nil, err
	}
	filter := models.AssignmentFilter{ClassID: query.ClassID, SubjectID: query.SubjectID, Type: academic.WorkType(query.Type)}
	var taught map[classSubjectPair]struct{}
	if !actor.IsAdmin() {
		if query.ClassID != "" && query.SubjectID != "" {
			if err := s.scope.EnsureTeaches(ctx, actor, query.ClassID, query.SubjectID); err != nil {
				return nil, err
			}
		} else {
			if taught, err = s.taughtPairs(ctx, actor); err != nil {
				return nil, err
			}
		}
	}

	items, err := s.items.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list work items")
	}
	if taught != nil {
		kept := items[:0]
		for _, item := range items {
			if _, ok := taught[classSubjectPair{item.ClassID, item.SubjectID}]; ok {
				kept = append(kept, item)
			}
		}
		items = kept
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	stats, err := s.items.Stats(ctx, ids)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load submission counts")
	}

	now := s.now()
	views := make([]models.AssignmentView, 0, len(items))
	for _, item := range items {
		due := s.rule.Status(item.DueDate.Time, now)
		if status != "" && due != status {
			continue
		}
		st := stats[item.ID]
		views = append(views, models.AssignmentView{
			Assignment: item,
			DueStatus:  due,
			Submitted:  st.Submitted,
			Checked:    st.Checked,
			Completion: academic.AssignmentCompletion(st.Checked, st.Submitted),
		})
	}
	return views, nil
}

type classSubjectPair struct{ classID, subjectID string }

func (s *CourseworkService) taughtPairs(ctx context.Context, actor Actor) (map[classSubjectPair]struct{}, error) {
	if actor.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can manage class records")
	}
	details, err := s.pairs.GetTeacherAssignments(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	taught := make(map[classSubjectPair]struct{}, len(details))
	for _, d := range details {
		taught[classSubjectPair{d.ClassID, d.SubjectID}] = struct{}{}
	}
	return taught, nil
}

// ListSubmissions returns the submissions of a work item.
func (s *CourseworkService) ListSubmissions(ctx context.Context, actor Actor, assignmentID string) ([]models.Submission, error) {
	if _, err := s.GetAssignment(ctx, actor, assignmentID); err != nil {
		return nil, err
	}
	subs, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	if subs == nil {
		subs = []models.Submission{}
	}
	return subs, nil
}

// CheckSubmission grades a pending submission. Checking is one way.
func (s *CourseworkService) CheckSubmission(ctx context.Context, actor Actor, submissionID string, req CheckSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.reject(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "marks_obtained is required"))
	}
	sub, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		return nil, lookupError(err, "submission")
	}
	item, err := s.GetAssignment(ctx, actor, sub.AssignmentID)
	if err != nil {
		return nil, err
	}
	if _, err := academic.CheckTransition(sub.Status); err != nil {
		if errors.Is(err, academic.ErrAlreadyChecked) {
			return nil, appErrors.Clone(appErrors.ErrConflict, err.Error())
		}
		return nil, appErrors.Internal(err, "failed to check submission")
	}
	marks := *req.MarksObtained
	if err := academic.ValidateScore(item.Type, item.TotalMarks, marks); err != nil {
		return nil, s.reject(appErrors.Validation(err, err.Error()))
	}

	at := s.now().UTC()
	updated, err := s.submissions.MarkChecked(ctx, submissionID, marks, actor.ID, at)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check submission")
	}
	if !updated {
		return nil, appErrors.Clone(appErrors.ErrConflict, academic.ErrAlreadyChecked.Error())
	}
	s.metrics.RecordWrites(BatchGrading, 1)
	s.cache.InvalidateDashboards(ctx)

	checkedBy := actor.ID
	sub.Status = academic.SubmissionChecked
	sub.MarksObtained = &marks
	sub.CheckedAt = &at
	sub.CheckedBy = &checkedBy
	return sub, nil
}

// StudentAssignments lists the work items of the student's class with their own submissions.
func (s *CourseworkService) StudentAssignments(ctx context.Context, studentID, status string) ([]StudentWorkItem, error) {
	wanted, err := parseDueStatus(status)
	if err != nil {
		return nil, err
	}
	membership, err := s.placements.ActiveByStudent(ctx, studentID)
	if err != nil {
		if isNotFound(err) {
			return []StudentWorkItem{}, nil
		}
		return nil, appErrors.Internal(err, "failed to load student class")
	}
	items, err := s.items.List(ctx, models.AssignmentFilter{ClassID: membership.ClassID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list work items")
	}
	subs, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list submissions")
	}
	byItem := make(map[string]models.Submission, len(subs))
	for _, sub := range subs {
		byItem[sub.AssignmentID] = sub
	}

	now := s.now()
	out := make([]StudentWorkItem, 0, len(items))
	for _, item := range items {
		due := s.rule.Status(item.DueDate.Time, now)
		if wanted != "" && due != wanted {
			continue
		}
		view := StudentWorkItem{Assignment: item, DueStatus: due}
		if sub, ok := byItem[item.ID]; ok {
			view.Submission = &sub
		}
		out = append(out, view)
	}
	return out, nil
}

// SubmitWork records a student's answer. A pending submission is replaced; a
// checked one is final.
func (s *CourseworkService) SubmitWork(ctx context.Context, actor Actor, assignmentID string, req SubmitWorkRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "submission_text is required")
	}
	item, err := s.items.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, lookupError(err, "work item")
	}
	membership, err := s.placements.ActiveByStudent(ctx, actor.ID)
	if err != nil && !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to load student class")
	}
	if err != nil || membership.ClassID != item.ClassID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you are not enrolled in the class of this work item")
	}

	text := strings.TrimSpace(req.Text)
	at := s.now().UTC()
	existing, err := s.submissions.FindByAssignmentStudent(ctx, assignmentID, actor.ID)
	switch {
	case err == nil:
		if existing.Status == academic.SubmissionChecked {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission has already been checked and cannot be replaced")
		}
		replaced, err := s.submissions.ReplaceText(ctx, existing.ID, text, at)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to update submission")
		}
		if !replaced {
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission has already been checked and cannot be replaced")
		}
		existing.SubmissionText = text
		existing.SubmittedAt = at
		return existing, nil
	case !isNotFound(err):
		return nil, appErrors.Internal(err, "failed to load submission")
	}

	sub := &models.Submission{
		AssignmentID:   assignmentID,
		StudentID:      actor.ID,
		SubmittedAt:    at,
		SubmissionText: text,
		Status:         academic.SubmissionPending,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a submission for this work item already exists")
		}
		return nil, appErrors.Internal(err, "failed to create submission")
	}
	s.cache.InvalidateDashboards(ctx)
	return sub, nil
}

func (s *CourseworkService) buildItem(ctx context.Context, actor Actor, req WorkItemRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid work item payload")
	}
	workType := academic.WorkType(req.Type)
	if err := academic.ValidateWorkItem(workType, req.TotalMarks); err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	due, err := parseDate(req.DueDate, "due_date")
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
	return &models.Assignment{
		ClassID:     req.ClassID,
		SubjectID:   req.SubjectID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		DueDate:     due,
		Type:        workType,
		TotalMarks:  req.TotalMarks,
	}, nil
}

func (s *CourseworkService) reject(err error) error {
	s.metrics.RecordRejectedBatch(BatchGrading)
	s.logger.Warn("grading rejected", zap.Error(err))
	return err
}

func parseDueStatus(raw string) (academic.DueStatus, error) {
	if raw == "" {
		return "", nil
	}
	status := academic.DueStatus(strings.ToLower(raw))
	if !status.Valid() {
		return "", appErrors.Validation(nil, "status must be active, due-soon or overdue")
	}
	return status, nil
}
