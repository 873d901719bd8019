package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type attendanceRepository interface {
	ListSession(ctx context.Context, session models.AttendanceSession) ([]models.AttendanceRecord, error)
	UpsertSession(ctx context.Context, records []models.AttendanceRecord) error
	ListByStudent(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
}

// AttendanceEntry is one line of a marking request.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// MarkAttendanceRequest records a class-subject session for a day. Roster
// students left out of Records receive DefaultStatus.
type MarkAttendanceRequest struct {
	ClassID       string            `json:"class_id" validate:"required"`
	SubjectID     string            `json:"subject_id" validate:"required"`
	Date          string            `json:"date" validate:"required"`
	Records       []AttendanceEntry `json:"records"`
	DefaultStatus string            `json:"default_status" validate:"omitempty,attendance_status"`
}

// AttendanceQuery identifies a session to read.
type AttendanceQuery struct {
	ClassID   string `form:"class_id" validate:"required"`
	SubjectID string `form:"subject_id" validate:"required"`
	Date      string `form:"date" validate:"required"`
}

// BulkStatusRequest previews setting every line of a sheet to one status.
type BulkStatusRequest struct {
	Records []academic.SheetEntry `json:"records" validate:"required"`
	Status  string                `json:"status" validate:"required,attendance_status"`
}

// AttendanceSheet is the state of a session. Marked is false when nothing has
// been recorded yet, in which case Sheet holds the fresh roster at the baseline status.
type AttendanceSheet struct {
	ClassID   string                     `json:"class_id"`
	SubjectID string                     `json:"subject_id"`
	Date      models.Date                `json:"date"`
	Marked    bool                       `json:"marked"`
	Records   []models.AttendanceRecord  `json:"records"`
	Sheet     []academic.SheetEntry      `json:"sheet"`
	Roster    []models.RosterStudent     `json:"roster"`
	Summary   academic.AttendanceSummary `json:"summary"`
}

// AttendancePreview is the result of a local bulk transform.
type AttendancePreview struct {
	Records []academic.SheetEntry      `json:"records"`
	Summary academic.AttendanceSummary `json:"summary"`
}

// AttendanceHistory is a student's own attendance.
type AttendanceHistory struct {
	Records    []models.AttendanceRecord  `json:"records"`
	Summary    academic.AttendanceSummary `json:"summary"`
	Percentage int                        `json:"percentage"`
}

// AttendanceService records and reads class-subject attendance.
type AttendanceService struct {
	classes   classLookup
	subjects  subjectLookup
	roster    rosterReader
	records   attendanceRepository
	scope     teachingScope
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// AttendanceServiceParams groups the dependencies of AttendanceService.
type AttendanceServiceParams struct {
	Classes   classLookup
	Subjects  subjectLookup
	Roster    rosterReader
	Records   attendanceRepository
	Scope     teachingScope
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Location  *time.Location
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(params AttendanceServiceParams) *AttendanceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		classes:   params.Classes,
		subjects:  params.Subjects,
		roster:    params.Roster,
		records:   params.Records,
		scope:     params.Scope,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: ensureValidator(params.Validator),
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// MarkAttendance validates and stores a whole session. Any invalid line
// rejects the call and nothing is written. Repeated calls overwrite.
func (s *AttendanceService) MarkAttendance(ctx context.Context, actor Actor, req MarkAttendanceRequest) (*AttendanceSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, s.reject(appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload"))
	}
	day, err := s.sessionDay(req.Date)
	if err != nil {
		return nil, s.reject(err)
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

	roster, err := s.roster.Roster(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	if len(roster) == 0 {
		return nil, s.reject(appErrors.Validation(nil, "class has no enrolled students"))
	}
	ids := models.RosterIDs(roster)

	entries := make([]academic.SheetEntry, len(req.Records))
	for i, rec := range req.Records {
		entries[i] = academic.SheetEntry{StudentID: rec.StudentID, Status: academic.AttendanceStatus(rec.Status)}
	}
	if err := academic.ValidateSheet(ids, entries); err != nil {
		return nil, s.reject(appErrors.Validation(err, err.Error()))
	}
	fallback := academic.AttendanceStatus(req.DefaultStatus)
	if fallback == "" {
		fallback = academic.StatusPresent
	}
	entries = academic.CompleteSheet(ids, entries, fallback)

	markedBy := actor.ID
	records := make([]models.AttendanceRecord, len(entries))
	for i, entry := range entries {
		records[i] = models.AttendanceRecord{
			StudentID: entry.StudentID,
			ClassID:   req.ClassID,
			SubjectID: req.SubjectID,
			Date:      day,
			Status:    entry.Status,
			MarkedBy:  &markedBy,
		}
	}
	if err := s.records.UpsertSession(ctx, records); err != nil {
		return nil, appErrors.Internal(err, "failed to save attendance")
	}
	s.metrics.RecordWrites(BatchAttendance, len(records))
	s.logger.Info("attendance marked",
		zap.String("class_id", req.ClassID),
		zap.String("subject_id", req.SubjectID),
		zap.String("date", day.String()),
		zap.Int("records", len(records)),
	)
	s.cache.InvalidateDashboards(ctx)

	return s.load(ctx, req.ClassID, req.SubjectID, day, roster)
}

// GetAttendance returns the recorded session or, when nothing is marked yet,
// a fresh sheet with every enrolled student present.
func (s *AttendanceService) GetAttendance(ctx context.Context, actor Actor, query AttendanceQuery) (*AttendanceSheet, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "class_id, subject_id and date are required")
	}
	day, err := parseDate(query.Date, "date")
	if err != nil {
		return nil, err
	}
	if err := s.scope.EnsureTeaches(ctx, actor, query.ClassID, query.SubjectID); err != nil {
		return nil, err
	}
	if _, err := s.classes.FindByID(ctx, query.ClassID); err != nil {
		return nil, lookupError(err, "class")
	}
	if _, err := s.subjects.FindByID(ctx, query.SubjectID); err != nil {
		return nil, lookupError(err, "subject")
	}
	roster, err := s.roster.Roster(ctx, query.ClassID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}
	return s.load(ctx, query.ClassID, query.SubjectID, day, roster)
}

// BulkSetStatus applies one status to every line without persisting anything.
func (s *AttendanceService) BulkSetStatus(req BulkStatusRequest) (*AttendancePreview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk status payload")
	}
	records := academic.BulkSetStatus(req.Records, academic.AttendanceStatus(req.Status))
	return &AttendancePreview{Records: records, Summary: academic.Summarize(records)}, nil
}

// Summarize counts present and absent lines.
func (s *AttendanceService) Summarize(entries []academic.SheetEntry) academic.AttendanceSummary {
	return academic.Summarize(entries)
}

// StudentHistory returns every record of a student with the overall percentage.
func (s *AttendanceService) StudentHistory(ctx context.Context, studentID string) (*AttendanceHistory, error) {
	records, err := s.records.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance history")
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	summary := academic.Summarize(models.SheetEntries(records))
	return &AttendanceHistory{
		Records:    records,
		Summary:    summary,
		Percentage: academic.AttendancePercentage(summary.Present, summary.Total),
	}, nil
}

func (s *AttendanceService) load(ctx context.Context, classID, subjectID string, day models.Date, roster []models.RosterStudent) (*AttendanceSheet, error) {
	records, err := s.records.ListSession(ctx, models.AttendanceSession{ClassID: classID, SubjectID: subjectID, Date: day})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load attendance")
	}
	if roster == nil {
		roster = []models.RosterStudent{}
	}
	sheet := &AttendanceSheet{
		ClassID:   classID,
		SubjectID: subjectID,
		Date:      day,
		Marked:    len(records) > 0,
		Records:   records,
		Roster:    roster,
	}
	if sheet.Marked {
		sheet.Sheet = models.SheetEntries(records)
	} else {
		sheet.Records = []models.AttendanceRecord{}
		sheet.Sheet = academic.InitializeSheet(models.RosterIDs(roster), academic.StatusPresent)
	}
	sheet.Summary = academic.Summarize(sheet.Sheet)
	return sheet, nil
}

// sessionDay parses a marking date and rejects days after today in the school calendar.
func (s *AttendanceService) sessionDay(raw string) (models.Date, error) {
	day, err := parseDate(raw, "date")
	if err != nil {
		return models.Date{}, err
	}
	today := academic.Today(s.now(), s.location)
	if day.Time.After(today) {
		return models.Date{}, appErrors.Validation(nil, "attendance cannot be marked for a future date")
	}
	return day, nil
}

func (s *AttendanceService) reject(err error) error {
	s.metrics.RecordRejectedBatch(BatchAttendance)
	s.logger.Warn("attendance batch rejected", zap.Error(err))
	return err
}
