package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-academic-api/pkg/errors"
)

type stubCacheRepo struct {
	store       map[string][]byte
	invalidated []string
	getErr      error
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	if s.store == nil {
		return appErrors.ErrCacheMiss
	}
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.invalidated = append(s.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := &stubCacheRepo{}
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]int
	hit, err := cache.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "dash:admin", map[string]int{"classes": 3}, 0))
	hit, err = cache.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, out["classes"])

	require.NoError(t, cache.Invalidate(ctx, dashboardCachePattern))
	hit, err = cache.Get(ctx, "dash:admin", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "k", "v", time.Minute))
	assert.Empty(t, repo.store)
	var out string
	hit, err := cache.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(ctx, "dash:*"))
}

func TestCacheServiceGetErrorIsReported(t *testing.T) {
	repo := &stubCacheRepo{getErr: errors.New("redis down")}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := cache.Get(context.Background(), "k", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestDashboardKeysShareNamespace(t *testing.T) {
	assert.Equal(t, "dash:admin", dashboardKey(scopeAdmin))
	assert.Equal(t, "dash:teacher:t-1", dashboardKey(scopeTeacher, "t-1"))

	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, dashboardKey(scopeStudent, "s-1"), 1, 0))
	require.NoError(t, cache.Set(ctx, "other:key", 2, 0))

	cache.InvalidateDashboards(ctx)
	assert.Equal(t, []string{dashboardCachePattern}, repo.invalidated)
	assert.NotContains(t, repo.store, "dash:student:s-1")
	assert.Contains(t, repo.store, "other:key")
}
