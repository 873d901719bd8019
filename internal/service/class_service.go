package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ExistsActive(ctx context.Context, name, section, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	SetActive(ctx context.Context, id string, active bool) error
}

type userLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateClassRequest captures creation payload.
type CreateClassRequest struct {
	Name           string  `json:"name" validate:"required,max=50"`
	Section        string  `json:"section" validate:"required,max=10"`
	ClassTeacherID *string `json:"class_teacher_id"`
}

// UpdateClassRequest modifies class fields.
type UpdateClassRequest struct {
	Name           string  `json:"name" validate:"required,max=50"`
	Section        string  `json:"section" validate:"required,max=10"`
	ClassTeacherID *string `json:"class_teacher_id"`
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	users     userLookup
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, users userLookup, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, users: users, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class")
	}
	return class, nil
}

// Create adds a new active class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	name, section := strings.TrimSpace(req.Name), strings.TrimSpace(req.Section)
	teacherID := trimmed(req.ClassTeacherID)
	if err := s.checkClassTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, name, section, ""); err != nil {
		return nil, err
	}

	class := &models.Class{Name: name, Section: section, ClassTeacherID: teacherID, Active: true}
	if err := s.repo.Create(ctx, class); err != nil {
		if isDuplicate(err) {
			return nil, duplicateClass(name, section)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	s.cache.InvalidateDashboards(ctx)
	return s.Get(ctx, class.ID)
}

// Update modifies a class record.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class")
	}
	name, section := strings.TrimSpace(req.Name), strings.TrimSpace(req.Section)
	teacherID := trimmed(req.ClassTeacherID)
	if err := s.checkClassTeacher(ctx, teacherID); err != nil {
		return nil, err
	}
	if class.Active {
		if err := s.ensureUnique(ctx, name, section, id); err != nil {
			return nil, err
		}
	}

	class.Name = name
	class.Section = section
	class.ClassTeacherID = teacherID
	if err := s.repo.Update(ctx, class); err != nil {
		if isDuplicate(err) {
			return nil, duplicateClass(name, section)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return s.Get(ctx, id)
}

// SetActive toggles a class. Assignments, attendance and tests of the class are left untouched.
func (s *ClassService) SetActive(ctx context.Context, id string, active bool) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "class")
	}
	if class.Active == active {
		return class, nil
	}
	if active {
		if err := s.ensureUnique(ctx, class.Name, class.Section, id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if isDuplicate(err) {
			return nil, duplicateClass(class.Name, class.Section)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class status")
	}
	s.logger.Info("class status changed", zap.String("class_id", id), zap.Bool("active", active))
	s.cache.InvalidateDashboards(ctx)
	class.Active = active
	return class, nil
}

func (s *ClassService) ensureUnique(ctx context.Context, name, section, excludeID string) error {
	exists, err := s.repo.ExistsActive(ctx, name, section, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class name")
	}
	if exists {
		return duplicateClass(name, section)
	}
	return nil
}

func (s *ClassService) checkClassTeacher(ctx context.Context, teacherID *string) error {
	if teacherID == nil {
		return nil
	}
	teacher, err := s.users.FindByID(ctx, *teacherID)
	if err != nil {
		if isNotFound(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "class teacher does not exist")
		}
		return appErrors.Internal(err, "failed to load class teacher")
	}
	if teacher.Role != models.RoleTeacher || !teacher.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "class teacher must be an active teacher")
	}
	return nil
}

func duplicateClass(name, section string) error {
	return appErrors.Clone(appErrors.ErrConflict, "an active class "+name+"-"+section+" already exists")
}
