package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-academic-api/internal/models"
	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

func TestAuthServiceLoginSuccess(t *testing.T) {
	sc := newSchool(t)

	resp, err := sc.svc.Auth.Login(context.Background(), models.LoginRequest{Email: "t1@school.test", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, sc.teacher.ID, resp.User.ID)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)

	claims, err := sc.svc.Auth.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sc.teacher.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "test", claims.Issuer)

	actor := ActorFromClaims(claims)
	assert.Equal(t, Actor{ID: sc.teacher.ID, Role: models.RoleTeacher}, actor)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	_, err := sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "t1@school.test", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "nobody@school.test", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = sc.svc.Users.SetActive(ctx, sc.teacher.ID, false)
	require.NoError(t, err)
	_, err = sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "t1@school.test", Password: "secret1"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

type brokenAuthRepo struct{}

func (brokenAuthRepo) FindByEmail(context.Context, string) (*models.User, error) {
	return nil, errors.New("db down")
}

func (brokenAuthRepo) FindByID(context.Context, string) (*models.User, error) {
	return nil, errors.New("db down")
}

func TestAuthServiceLoginStorageError(t *testing.T) {
	svc := NewAuthService(brokenAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "s"})
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "a@school.test", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuthServiceRejectsExpiredAndForeignTokens(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	sc.svc.Auth.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "s1@school.test", Password: "secret1"})
	require.NoError(t, err)
	_, err = sc.svc.Auth.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	foreign := NewAuthService(brokenAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "other-secret"})
	sc.svc.Auth.now = time.Now
	resp, err = sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "s1@school.test", Password: "secret1"})
	require.NoError(t, err)
	_, err = foreign.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = sc.svc.Auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceNormalizesEmailAndChecksIssuer(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	resp, err := sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "  T1@School.Test ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, sc.teacher.ID, resp.User.ID)

	otherIssuer := NewAuthService(brokenAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", Issuer: "someone-else"})
	_, err = otherIssuer.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthenticateRejectsDeactivatedUser(t *testing.T) {
	sc := newSchool(t)
	ctx := context.Background()

	resp, err := sc.svc.Auth.Login(ctx, models.LoginRequest{Email: "t1@school.test", Password: "secret1"})
	require.NoError(t, err)
	claims, err := sc.svc.Auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sc.teacher.ID, claims.UserID)

	_, err = sc.svc.Users.SetActive(ctx, sc.teacher.ID, false)
	require.NoError(t, err)
	_, err = sc.svc.Auth.Authenticate(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	_, err = sc.svc.Users.SetActive(ctx, sc.teacher.ID, true)
	require.NoError(t, err)
	_, err = sc.svc.Auth.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
}

func TestAuthenticateStorageError(t *testing.T) {
	sc := newSchool(t)
	resp, err := sc.svc.Auth.Login(context.Background(), models.LoginRequest{Email: "s1@school.test", Password: "secret1"})
	require.NoError(t, err)

	broken := NewAuthService(brokenAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "test-secret", Issuer: "test"})
	_, err = broken.Authenticate(context.Background(), resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}
