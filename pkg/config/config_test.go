package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, StoragePostgres, cfg.Storage.Driver)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, 2, cfg.Academic.DueSoonDays)
	assert.Equal(t, time.UTC, cfg.Academic.Location())
}

func TestOverrides(t *testing.T) {
	v := newTestViper()
	v.Set("STORAGE_DRIVER", "MEMORY")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	v.Set("DASHBOARD_CACHE_TTL", "not-a-duration")
	v.Set("SCHOOL_TIMEZONE", "Asia/Jakarta")

	cfg := fromViper(v)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Dashboard.CacheTTL)
	assert.Equal(t, "Asia/Jakarta", cfg.Academic.Location().String())
}

func TestUnknownTimezoneFallsBackToUTC(t *testing.T) {
	cfg := AcademicConfig{Timezone: "Mars/Olympus"}
	assert.Equal(t, time.UTC, cfg.Location())
}
