package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type classScope interface {
	EnsureTeachesClass(ctx context.Context, actor Actor, classID string) error
}

type attendanceHistoryReader interface {
	StudentHistory(ctx context.Context, studentID string) (*AttendanceHistory, error)
}

type studentMarksReader interface {
	StudentMarks(ctx context.Context, studentID string, limit int) ([]models.StudentMark, error)
}

type studentWorkReader interface {
	StudentAssignments(ctx context.Context, studentID, status string) ([]StudentWorkItem, error)
}

// RosterViewQuery selects the screen of the class roster.
type RosterViewQuery struct {
	View      string `form:"view"`
	StudentID string `form:"student_id"`
}

// StudentPerformance gathers a student's attendance, marks and coursework.
type StudentPerformance struct {
	Attendance academic.AttendanceSummary `json:"attendance"`
	Percentage int                        `json:"attendance_percentage"`
	Marks      []models.StudentMark       `json:"marks"`
	Work       []StudentWorkItem          `json:"work"`
	Completion float64                    `json:"completion"`
}

// RosterView is the payload of one roster screen. Only the fields of the
// resolved view are set.
type RosterView struct {
	View        academic.ViewKind      `json:"view"`
	ClassID     string                 `json:"class_id"`
	Students    []models.RosterStudent `json:"students,omitempty"`
	Student     *models.RosterStudent  `json:"student,omitempty"`
	Profile     *models.User           `json:"profile,omitempty"`
	Performance *StudentPerformance    `json:"performance,omitempty"`
}

// RosterViewServiceParams groups the dependencies of RosterViewService.
type RosterViewServiceParams struct {
	Roster     rosterReader
	Users      userLookup
	Scope      classScope
	Attendance attendanceHistoryReader
	Marks      studentMarksReader
	Work       studentWorkReader
	Logger     *zap.Logger
}

// RosterViewService serves the list, detail and performance screens of a class roster.
type RosterViewService struct {
	roster     rosterReader
	users      userLookup
	scope      classScope
	attendance attendanceHistoryReader
	marks      studentMarksReader
	work       studentWorkReader
	logger     *zap.Logger
}

// NewRosterViewService constructs RosterViewService.
func NewRosterViewService(params RosterViewServiceParams) *RosterViewService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterViewService{
		roster:     params.Roster,
		users:      params.Users,
		scope:      params.Scope,
		attendance: params.Attendance,
		marks:      params.Marks,
		work:       params.Work,
		logger:     logger,
	}
}

// View resolves the requested screen and loads its payload.
func (s *RosterViewService) View(ctx context.Context, actor Actor, classID string, query RosterViewQuery) (*RosterView, error) {
	state, err := academic.ResolveView(academic.ViewKind(query.View), query.StudentID)
	if err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	if err := s.scope.EnsureTeachesClass(ctx, actor, classID); err != nil {
		return nil, err
	}
	roster, err := s.roster.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load class roster")
	}

	view := &RosterView{View: state.Kind(), ClassID: classID}
	if state.Kind() == academic.ViewList {
		if roster == nil {
			roster = []models.RosterStudent{}
		}
		view.Students = roster
		return view, nil
	}

	for i := range roster {
		if roster[i].StudentID == state.StudentID() {
			view.Student = &roster[i]
			break
		}
	}
	if view.Student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this class")
	}

	switch state.Kind() {
	case academic.ViewDetail:
		profile, err := s.users.FindByID(ctx, state.StudentID())
		if err != nil {
			return nil, lookupError(err, "student")
		}
		view.Profile = profile
	case academic.ViewPerformance:
		perf, err := s.performance(ctx, state.StudentID())
		if err != nil {
			return nil, err
		}
		view.Performance = perf
	}
	return view, nil
}

func (s *RosterViewService) performance(ctx context.Context, studentID string) (*StudentPerformance, error) {
	history, err := s.attendance.StudentHistory(ctx, studentID)
	if err != nil {
		return nil, err
	}
	marks, err := s.marks.StudentMarks(ctx, studentID, 0)
	if err != nil {
		return nil, err
	}
	work, err := s.work.StudentAssignments(ctx, studentID, "")
	if err != nil {
		return nil, err
	}
	checked := 0
	for _, item := range work {
		if item.Submission != nil && item.Submission.Status == academic.SubmissionChecked {
			checked++
		}
	}
	return &StudentPerformance{
		Attendance: history.Summary,
		Percentage: history.Percentage,
		Marks:      marks,
		Work:       work,
		Completion: academic.AssignmentCompletion(checked, len(work)),
	}, nil
}
