package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/proforma/internal/common"
	"github.com/Veraticus/proforma/internal/income"
)

// Cache backends for sensitivity tables.
const (
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// Theme holds the report colors as hex strings.
type Theme struct {
	HeaderFill string
	TotalsFill string
	Border     string
	Text       string
	Muted      string
}

// Engine holds calculation defaults and report constants.
type Engine struct {
	Defaults income.Defaults
	// Seed inputs for the sensitivity form before a model is loaded.
	DefaultMaxPrice   float64
	DefaultMinCapRate float64
	PDFContentWidth   float64
	Theme             Theme
}

// DefaultEngine returns the stock engine configuration.
func DefaultEngine() Engine {
	return Engine{
		Defaults:          income.DefaultDefaults(),
		DefaultMaxPrice:   185000,
		DefaultMinCapRate: 10.00,
		PDFContentWidth:   548,
		Theme: Theme{
			HeaderFill: "#F5F7FA",
			TotalsFill: "#F3F4F6",
			Border:     "#E5E7EB",
			Text:       "#1F2937",
			Muted:      "#6B7280",
		},
	}
}

// Sensitivity configures the backend client, the poll loop and the table
// cache.
type Sensitivity struct {
	BaseURL        string
	Token          string
	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxPollDelay   time.Duration
	PollMultiplier float64
	MaxPolls       int
	CacheBackend   string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheTTL       time.Duration
}

// DefaultSensitivity returns the stock sensitivity configuration.
func DefaultSensitivity() Sensitivity {
	return Sensitivity{
		BaseURL:        "http://localhost:8000/api",
		RequestTimeout: 60 * time.Second,
		PollInterval:   3 * time.Second,
		MaxPollDelay:   15 * time.Second,
		PollMultiplier: 1.5,
		MaxPolls:       40,
		CacheBackend:   CacheMemory,
		SQLitePath:     "~/.local/share/uw/tables.db",
		RedisAddr:      "localhost:6379",
	}
}

// SetDefaults registers every engine and sensitivity default with v.
func SetDefaults(v *viper.Viper) {
	e := DefaultEngine()
	s := DefaultSensitivity()

	v.SetDefault("engine.vacancy", e.Defaults.Vacancy)
	v.SetDefault("engine.bad_debt", e.Defaults.BadDebt)
	v.SetDefault("engine.annual_turnover", e.Defaults.AnnualTurnover)
	v.SetDefault("engine.default_max_price", e.DefaultMaxPrice)
	v.SetDefault("engine.default_min_cap_rate", e.DefaultMinCapRate)
	v.SetDefault("engine.pdf_content_width", e.PDFContentWidth)
	v.SetDefault("theme.header_fill", e.Theme.HeaderFill)
	v.SetDefault("theme.totals_fill", e.Theme.TotalsFill)
	v.SetDefault("theme.border", e.Theme.Border)
	v.SetDefault("theme.text", e.Theme.Text)
	v.SetDefault("theme.muted", e.Theme.Muted)

	v.SetDefault("api.base_url", s.BaseURL)
	v.SetDefault("api.timeout", s.RequestTimeout)
	v.SetDefault("sensitivity.poll_interval", s.PollInterval)
	v.SetDefault("sensitivity.max_poll_delay", s.MaxPollDelay)
	v.SetDefault("sensitivity.poll_multiplier", s.PollMultiplier)
	v.SetDefault("sensitivity.max_polls", s.MaxPolls)
	v.SetDefault("cache.backend", s.CacheBackend)
	v.SetDefault("cache.sqlite_path", s.SQLitePath)
	v.SetDefault("cache.redis_addr", s.RedisAddr)
	v.SetDefault("cache.redis_db", s.RedisDB)
}

// LoadEngine reads the engine configuration from v.
func LoadEngine(v *viper.Viper) Engine {
	e := DefaultEngine()
	e.Defaults.Vacancy = v.GetFloat64("engine.vacancy")
	e.Defaults.BadDebt = v.GetFloat64("engine.bad_debt")
	e.Defaults.AnnualTurnover = v.GetFloat64("engine.annual_turnover")
	e.DefaultMaxPrice = v.GetFloat64("engine.default_max_price")
	e.DefaultMinCapRate = v.GetFloat64("engine.default_min_cap_rate")
	e.PDFContentWidth = v.GetFloat64("engine.pdf_content_width")
	e.Theme = Theme{
		HeaderFill: v.GetString("theme.header_fill"),
		TotalsFill: v.GetString("theme.totals_fill"),
		Border:     v.GetString("theme.border"),
		Text:       v.GetString("theme.text"),
		Muted:      v.GetString("theme.muted"),
	}
	return e
}

// LoadSensitivity reads and validates the sensitivity configuration from v.
func LoadSensitivity(v *viper.Viper) (Sensitivity, error) {
	s := Sensitivity{
		BaseURL:        v.GetString("api.base_url"),
		Token:          v.GetString("api.token"),
		RequestTimeout: v.GetDuration("api.timeout"),
		PollInterval:   v.GetDuration("sensitivity.poll_interval"),
		MaxPollDelay:   v.GetDuration("sensitivity.max_poll_delay"),
		PollMultiplier: v.GetFloat64("sensitivity.poll_multiplier"),
		MaxPolls:       v.GetInt("sensitivity.max_polls"),
		CacheBackend:   v.GetString("cache.backend"),
		SQLitePath:     ExpandPath(v.GetString("cache.sqlite_path")),
		RedisAddr:      v.GetString("cache.redis_addr"),
		RedisPassword:  v.GetString("cache.redis_password"),
		RedisDB:        v.GetInt("cache.redis_db"),
		CacheTTL:       v.GetDuration("cache.ttl"),
	}
	if err := s.Validate(); err != nil {
		return Sensitivity{}, err
	}
	return s, nil
}

// Validate checks that the configuration is usable.
func (s Sensitivity) Validate() error {
	if s.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url", common.ErrMissingConfig)
	}
	if u, err := url.Parse(s.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api.base_url %q", common.ErrInvalidConfig, s.BaseURL)
	}
	if s.PollInterval <= 0 {
		return fmt.Errorf("%w: sensitivity.poll_interval must be positive", common.ErrInvalidConfig)
	}
	if s.MaxPolls <= 0 {
		return fmt.Errorf("%w: sensitivity.max_polls must be positive", common.ErrInvalidConfig)
	}
	if s.PollMultiplier < 1 {
		return fmt.Errorf("%w: sensitivity.poll_multiplier must be at least 1", common.ErrInvalidConfig)
	}

	switch s.CacheBackend {
	case CacheMemory:
	case CacheSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("%w: cache.sqlite_path", common.ErrMissingConfig)
		}
	case CacheRedis:
		if s.RedisAddr == "" {
			return fmt.Errorf("%w: cache.redis_addr", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidConfig, s.CacheBackend)
	}
	return nil
}
