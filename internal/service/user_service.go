package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-academic-api/internal/academic"
	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
}

// CreateUserRequest represents payload for creating users. Only the
// attributes of the chosen role may be supplied.
type CreateUserRequest struct {
	Email            string  `json:"email" validate:"required,email"`
	Password         string  `json:"password" validate:"required,min=6"`
	FullName         string  `json:"full_name" validate:"required,max=150"`
	Gender           string  `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,day"`
	Role             string  `json:"role" validate:"required,role"`
	SubjectSpecialty *string `json:"subject_specialty"`
	AssignedClass    *string `json:"assigned_class"`
	RollNo           *string `json:"roll_no"`
	AdmissionNo      *string `json:"admission_no"`
}

// UpdateUserRequest payload for updating users. The role of a user is fixed at creation.
type UpdateUserRequest struct {
	Email            string  `json:"email" validate:"required,email"`
	Password         *string `json:"password" validate:"omitempty,min=6"`
	FullName         string  `json:"full_name" validate:"required,max=150"`
	Gender           string  `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth      *string `json:"date_of_birth" validate:"omitempty,day"`
	SubjectSpecialty *string `json:"subject_specialty"`
	AssignedClass    *string `json:"assigned_class"`
	RollNo           *string `json:"roll_no"`
	AdmissionNo      *string `json:"admission_no"`
}

func (r CreateUserRequest) attributes() academic.RoleAttributes {
	return academic.RoleAttributes{Subject: r.SubjectSpecialty, AssignedClass: r.AssignedClass, RollNo: r.RollNo, AdmissionNo: r.AdmissionNo}
}

func (r UpdateUserRequest) attributes() academic.RoleAttributes {
	return academic.RoleAttributes{Subject: r.SubjectSpecialty, AssignedClass: r.AssignedClass, RollNo: r.RollNo, AdmissionNo: r.AdmissionNo}
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, cache: cache, validator: ensureValidator(validate), logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single user.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}

// Create adds a new active user.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}
	role, _ := academic.ParseRole(req.Role)
	if err := academic.ValidateRoleAttributes(role, req.attributes()); err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	dob, err := optionalDate(req.DateOfBirth, "date_of_birth")
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		Email:            email,
		PasswordHash:     hash,
		FullName:         strings.TrimSpace(req.FullName),
		Gender:           req.Gender,
		DateOfBirth:      dob,
		Role:             role,
		Active:           true,
		SubjectSpecialty: trimmed(req.SubjectSpecialty),
		AssignedClass:    trimmed(req.AssignedClass),
		RollNo:           trimmed(req.RollNo),
		AdmissionNo:      trimmed(req.AdmissionNo),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, duplicateEmail(email)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(role)))
	s.cache.InvalidateDashboards(ctx)
	return user, nil
}

// Update modifies the user attributes.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if err := academic.ValidateRoleAttributes(user.Role, req.attributes()); err != nil {
		return nil, appErrors.Validation(err, err.Error())
	}
	dob, err := optionalDate(req.DateOfBirth, "date_of_birth")
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailFree(ctx, email, id); err != nil {
		return nil, err
	}

	if req.Password != nil {
		hash, err := HashPassword(*req.Password)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = hash
	}
	user.Email = email
	user.FullName = strings.TrimSpace(req.FullName)
	user.Gender = req.Gender
	user.DateOfBirth = dob
	user.SubjectSpecialty = trimmed(req.SubjectSpecialty)
	user.AssignedClass = trimmed(req.AssignedClass)
	user.RollNo = trimmed(req.RollNo)
	user.AdmissionNo = trimmed(req.AdmissionNo)

	if err := s.repo.Update(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, duplicateEmail(email)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return s.Get(ctx, id)
}

// SetActive activates or deactivates a user. Deactivated users keep their
// assignments and records but can no longer sign in, and tokens they already
// hold are rejected.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	if user.Active == active {
		return user, nil
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user status")
	}
	s.logger.Info("user status changed", zap.String("user_id", id), zap.Bool("active", active))
	s.cache.InvalidateDashboards(ctx)
	user.Active = active
	return user, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return duplicateEmail(email)
	}
	return nil
}

func optionalDate(raw *string, field string) (*models.Date, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	d, err := parseDate(*raw, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func duplicateEmail(email string) error {
	return appErrors.Clone(appErrors.ErrConflict, "email "+email+" is already registered")
}
