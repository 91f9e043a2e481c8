package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/common"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadEngineDefaults(t *testing.T) {
	e := LoadEngine(newViper())

	assert.Equal(t, 5.0, e.Defaults.Vacancy)
	assert.Equal(t, 185000.0, e.DefaultMaxPrice)
	assert.Equal(t, 10.0, e.DefaultMinCapRate)
	assert.Equal(t, 548.0, e.PDFContentWidth)
	assert.Equal(t, "#E5E7EB", e.Theme.Border)
}

func TestLoadEngineOverrides(t *testing.T) {
	v := newViper()
	v.Set("engine.vacancy", 7.5)
	v.Set("theme.header_fill", "#000000")

	e := LoadEngine(v)
	assert.Equal(t, 7.5, e.Defaults.Vacancy)
	assert.Equal(t, "#000000", e.Theme.HeaderFill)
}

func TestLoadSensitivity(t *testing.T) {
	s, err := LoadSensitivity(newViper())
	require.NoError(t, err)
	assert.Equal(t, CacheMemory, s.CacheBackend)
	assert.Equal(t, 3*time.Second, s.PollInterval)
	assert.Equal(t, 40, s.MaxPolls)

	tests := []struct {
		name    string
		key     string
		value   any
		wantErr error
	}{
		{"missing base url", "api.base_url", "", common.ErrMissingConfig},
		{"relative base url", "api.base_url", "/api", common.ErrInvalidConfig},
		{"zero poll interval", "sensitivity.poll_interval", "0s", common.ErrInvalidConfig},
		{"zero max polls", "sensitivity.max_polls", 0, common.ErrInvalidConfig},
		{"shrinking backoff", "sensitivity.poll_multiplier", 0.5, common.ErrInvalidConfig},
		{"unknown cache", "cache.backend", "memcached", common.ErrInvalidConfig},
		{"redis without addr", "cache.redis_addr", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := LoadSensitivity(v)
			if tt.wantErr == nil {
				assert.NoError(t, err, "redis address only matters for the redis backend")
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	v := newViper()
	v.Set("cache.backend", CacheRedis)
	v.Set("cache.redis_addr", "")
	_, err = LoadSensitivity(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("UW_DATA", "/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, filepath.Join("/home/tester", "tables.db"), ExpandPath("~/tables.db"))
	assert.Equal(t, "/home/tester", ExpandPath("~"))
	assert.Equal(t, "/data/tables.db", ExpandPath("$UW_DATA/tables.db"))
}

func TestDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, "/xdg/uw", Dir())

	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/tester")
	assert.Equal(t, "/home/tester/.config/uw", Dir())
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")

	_, err := LoadSheetsConfig(viper.New())
	assert.Error(t, err)

	v := viper.New()
	v.Set("sheets.service_account_path", "/keys/sa.json")
	v.Set("sheets.mapping_sheet", "Tables")
	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "Tables", cfg.MappingSheet)

	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "id")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "secret")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "refresh")
	cfg, err = LoadSheetsConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "refresh", cfg.RefreshToken)
}
