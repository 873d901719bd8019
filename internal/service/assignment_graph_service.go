package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type classLookup interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectLookup interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type classSubjectRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassSubjectAssignment, error)
	FindByClassSubject(ctx context.Context, classID, subjectID string) (*models.ClassSubjectAssignment, error)
	Create(ctx context.Context, a *models.ClassSubjectAssignment) error
	UpdateTeacher(ctx context.Context, id, teacherID string) error
	Delete(ctx context.Context, id string) error
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error)
}

type membershipRepository interface {
	ActiveByStudent(ctx context.Context, studentID string) (*models.ClassMembership, error)
	Add(ctx context.Context, m *models.ClassMembership) error
	End(ctx context.Context, classID, studentID string, at time.Time) (bool, error)
	Roster(ctx context.Context, classID string) ([]models.RosterStudent, error)
}

type rosterReader interface {
	Roster(ctx context.Context, classID string) ([]models.RosterStudent, error)
}

// teachingScope decides whether an actor may act on a class-subject pair.
type teachingScope interface {
	EnsureTeaches(ctx context.Context, actor Actor, classID, subjectID string) error
}

// AssignSubjectRequest maps a subject of a class to its teacher.
type AssignSubjectRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// ChangeTeacherRequest replaces the teacher of an assignment.
type ChangeTeacherRequest struct {
	TeacherID string `json:"teacher_id" validate:"required"`
}

// AssignStudentRequest places a student in a class.
type AssignStudentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// AssignmentGraphService maintains which teacher teaches which subject in
// which class and which class each student belongs to.
type AssignmentGraphService struct {
	classes     classLookup
	subjects    subjectLookup
	users       userLookup
	mappings    classSubjectRepository
	memberships membershipRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAssignmentGraphService constructs AssignmentGraphService.
func NewAssignmentGraphService(classes classLookup, subjects subjectLookup, users userLookup, mappings classSubjectRepository, memberships membershipRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentGraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentGraphService{
		classes:     classes,
		subjects:    subjects,
		users:       users,
		mappings:    mappings,
		memberships: memberships,
		cache:       cache,
		validator:   ensureValidator(validate),
		logger:      logger,
		now:         time.Now,
	}
}

// AssignSubjectToClass creates the mapping for a class-subject pair. An existing
// mapping is never overwritten; callers must use UpdateAssignmentTeacher.
func (s *AssignmentGraphService) AssignSubjectToClass(ctx context.Context, req AssignSubjectRequest) (*models.ClassSubjectAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.requireActiveClass(ctx, req.ClassID); err != nil {
		return nil, err
	}
	if err := s.requireActiveSubject(ctx, req.SubjectID); err != nil {
		return nil, err
	}
	if err := s.requireActiveTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}

	if _, err := s.mappings.FindByClassSubject(ctx, req.ClassID, req.SubjectID); err == nil {
		return nil, errSubjectAlreadyAssigned()
	} else if !isNotFound(err) {
		return nil, appErrors.Internal(err, "failed to check existing assignment")
	}

	assignment := &models.ClassSubjectAssignment{ClassID: req.ClassID, SubjectID: req.SubjectID, TeacherID: req.TeacherID}
	if err := s.mappings.Create(ctx, assignment); err != nil {
		if isDuplicate(err) {
			return nil, errSubjectAlreadyAssigned()
		}
		return nil, appErrors.Internal(err, "failed to create assignment")
	}
	s.logger.Info("subject assigned to class",
		zap.String("class_id", req.ClassID),
		zap.String("subject_id", req.SubjectID),
		zap.String("teacher_id", req.TeacherID),
	)
	s.cache.InvalidateDashboards(ctx)
	return assignment, nil
}

// UpdateAssignmentTeacher replaces only the teacher of an existing mapping.
func (s *AssignmentGraphService) UpdateAssignmentTeacher(ctx context.Context, id string, req ChangeTeacherRequest) (*models.ClassSubjectAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	assignment, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "assignment")
	}
	if err := s.requireActiveTeacher(ctx, req.TeacherID); err != nil {
		return nil, err
	}
	if err := s.mappings.UpdateTeacher(ctx, id, req.TeacherID); err != nil {
		return nil, appErrors.Internal(err, "failed to change assignment teacher")
	}
	assignment.TeacherID = req.TeacherID
	assignment.UpdatedAt = s.now().UTC()
	s.logger.Info("assignment teacher changed", zap.String("assignment_id", id), zap.String("teacher_id", req.TeacherID))
	s.cache.InvalidateDashboards(ctx)
	return assignment, nil
}

// RemoveAssignment deletes the mapping only. Attendance and tests recorded
// for the pair stay in place and simply stop being staffed.
func (s *AssignmentGraphService) RemoveAssignment(ctx context.Context, id string) error {
	if _, err := s.mappings.FindByID(ctx, id); err != nil {
		return lookupError(err, "assignment")
	}
	if err := s.mappings.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to remove assignment")
	}
	s.logger.Info("class subject assignment removed", zap.String("assignment_id", id))
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// AssignStudentToClass places a student in a class. A student belongs to at most one class.
func (s *AssignmentGraphService) AssignStudentToClass(ctx context.Context, classID string, req AssignStudentRequest) (*models.ClassMembership, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.requireActiveClass(ctx, classID); err != nil {
		return nil, err
	}
	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, lookupError(err, "student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "only students can be placed in a class")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student account is inactive")
	}

	current, err := s.memberships.ActiveByStudent(ctx, req.StudentID)
	switch {
	case err == nil && current.ClassID == classID:
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already in this class")
	case err == nil:
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already assigned to another class")
	case !isNotFound(err):
		return nil, appErrors.Internal(err, "failed to check student placement")
	}

	membership := &models.ClassMembership{ClassID: classID, StudentID: req.StudentID, JoinedAt: s.now().UTC()}
	if err := s.memberships.Add(ctx, membership); err != nil {
		if isDuplicate(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student is already assigned to another class")
		}
		return nil, appErrors.Internal(err, "failed to assign student")
	}
	s.cache.InvalidateDashboards(ctx)
	return membership, nil
}

// RemoveStudentFromClass ends a student's membership. Past records are kept.
func (s *AssignmentGraphService) RemoveStudentFromClass(ctx context.Context, classID, studentID string) error {
	ended, err := s.memberships.End(ctx, classID, studentID, s.now().UTC())
	if err != nil {
		return appErrors.Internal(err, "failed to remove student from class")
	}
	if !ended {
		return appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this class")
	}
	s.cache.InvalidateDashboards(ctx)
	return nil
}

// GetAssignedSubjects lists the subjects taught in a class with their teachers.
func (s *AssignmentGraphService) GetAssignedSubjects(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, lookupError(err, "class")
	}
	items, err := s.mappings.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class subjects")
	}
	return items, nil
}

// GetAssignedStudents lists the students currently enrolled in a class.
func (s *AssignmentGraphService) GetAssignedStudents(ctx context.Context, classID string) ([]models.RosterStudent, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		return nil, lookupError(err, "class")
	}
	roster, err := s.memberships.Roster(ctx, classID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list class students")
	}
	return roster, nil
}

// GetTeacherAssignments lists the class-subject pairs of a teacher.
func (s *AssignmentGraphService) GetTeacherAssignments(ctx context.Context, teacherID string) ([]models.ClassSubjectDetail, error) {
	items, err := s.mappings.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list teacher assignments")
	}
	return items, nil
}

// EnsureTeaches rejects teachers acting outside the pairs they are assigned to. Admins pass.
func (s *AssignmentGraphService) EnsureTeaches(ctx context.Context, actor Actor, classID, subjectID string) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrForbidden, "only teachers can manage class records")
	}
	assignment, err := s.mappings.FindByClassSubject(ctx, classID, subjectID)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this class and subject")
		}
		return appErrors.Internal(err, "failed to check teaching assignment")
	}
	if assignment.TeacherID != actor.ID {
		return appErrors.Clone(appErrors.ErrForbidden, "you are not assigned to this class and subject")
	}
	return nil
}

// EnsureTeachesClass rejects teachers without any subject in the class. Admins pass.
func (s *AssignmentGraphService) EnsureTeachesClass(ctx context.Context, actor Actor, classID string) error {
	if actor.IsAdmin() {
		return nil
	}
	items, err := s.mappings.ListByTeacher(ctx, actor.ID)
	if err != nil {
		return appErrors.Internal(err, "failed to check teaching assignment")
	}
	for _, item := range items {
		if item.ClassID == classID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not teach this class")
}

func (s *AssignmentGraphService) requireActiveClass(ctx context.Context, id string) error {
	return requireActiveClass(ctx, s.classes, id)
}

func (s *AssignmentGraphService) requireActiveSubject(ctx context.Context, id string) error {
	return requireActiveSubject(ctx, s.subjects, id)
}

func (s *AssignmentGraphService) requireActiveTeacher(ctx context.Context, id string) error {
	teacher, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher does not exist")
		}
		return appErrors.Internal(err, "failed to load teacher")
	}
	if teacher.Role != models.RoleTeacher {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "assigned user is not a teacher")
	}
	if !teacher.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "teacher account is inactive")
	}
	return nil
}

func requireActiveClass(ctx context.Context, classes classLookup, id string) error {
	class, err := classes.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "class does not exist")
		}
		return appErrors.Internal(err, "failed to load class")
	}
	if !class.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "class "+class.Label()+" is inactive")
	}
	return nil
}

func requireActiveSubject(ctx context.Context, subjects subjectLookup, id string) error {
	subject, err := subjects.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject does not exist")
		}
		return appErrors.Internal(err, "failed to load subject")
	}
	if !subject.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "subject "+subject.Code+" is inactive")
	}
	return nil
}

func errSubjectAlreadyAssigned() error {
	return appErrors.Clone(appErrors.ErrConflict, "subject is already assigned to this class; use the change-teacher operation")
}
