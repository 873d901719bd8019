package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ExistsActiveByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CreateSubjectRequest is the payload for creating subjects.
type CreateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=20"`
}

// UpdateSubjectRequest is the payload for updating subjects.
type UpdateSubjectRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Code string `json:"code" validate:"required,max=20"`
}

// SubjectService manages subjects.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error) {
	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	return subject, nil
}

// Create registers a subject. Codes are unique among active subjects.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	code := normalizeCode(req.Code)
	if err := s.ensureUnique(ctx, code, ""); err != nil {
		return nil, err
	}

	subject := &models.Subject{Name: strings.TrimSpace(req.Name), Code: code, Active: true}
	if err := s.repo.Create(ctx, subject); err != nil {
		if isDuplicate(err) {
			return nil, duplicateSubject(code)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.cache.InvalidateDashboards(ctx)
	return subject, nil
}

// Update modifies a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	code := normalizeCode(req.Code)
	if subject.Active {
		if err := s.ensureUnique(ctx, code, id); err != nil {
			return nil, err
		}
	}

	subject.Name = strings.TrimSpace(req.Name)
	subject.Code = code
	if err := s.repo.Update(ctx, subject); err != nil {
		if isDuplicate(err) {
			return nil, duplicateSubject(code)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	return subject, nil
}

// SetActive toggles a subject without touching related records.
func (s *SubjectService) SetActive(ctx context.Context, id string, active bool) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "subject")
	}
	if subject.Active == active {
		return subject, nil
	}
	if active {
		if err := s.ensureUnique(ctx, subject.Code, id); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if isDuplicate(err) {
			return nil, duplicateSubject(subject.Code)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject status")
	}
	s.logger.Info("subject status changed", zap.String("subject_id", id), zap.Bool("active", active))
	s.cache.InvalidateDashboards(ctx)
	subject.Active = active
	return subject, nil
}

func (s *SubjectService) ensureUnique(ctx context.Context, code, excludeID string) error {
	exists, err := s.repo.ExistsActiveByCode(ctx, code, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subject code")
	}
	if exists {
		return duplicateSubject(code)
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func duplicateSubject(code string) error {
	return appErrors.Clone(appErrors.ErrConflict, "subject code "+code+" is already in use")
}
