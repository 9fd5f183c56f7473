package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all configuration options for the timesheet engine
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Presence    PresenceConfig    `toml:"presence"`
	Rules       RulesConfig       `toml:"rules"`
	Sync        SyncConfig        `toml:"sync"`
	Timesheet   TimesheetConfig   `toml:"timesheet"`
	Logging     LoggingConfig     `toml:"logging"`
	Application ApplicationConfig `toml:"application"`
}

// DatabaseConfig holds the SQLite store configuration
type DatabaseConfig struct {
	Dir                 string `toml:"dir"`
	Filename            string `toml:"filename"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
	DirPermissions      uint32 `toml:"dir_permissions"`
	MaxRetries          int    `toml:"max_retries"`
}

// Presence source kinds
const (
	PresenceSourceSQLite = "sqlite"
	PresenceSourceMySQL  = "mysql"
)

// PresenceConfig selects where presence (clock-in/out) records are read from.
// The sqlite source reads the engine's own presence table; mysql reads an
// external attendance database.
type PresenceConfig struct {
	Source string `toml:"source"`
	DSN    string `toml:"dsn"`
}

// RulesConfig carries every validation threshold. Validators copy it at
// construction and never mutate it.
type RulesConfig struct {
	// Duration/range
	MinEntryMinutes          int `toml:"min_entry_minutes"`
	LongEntryMinutes         int `toml:"long_entry_minutes"`
	MaxEntryMinutes          int `toml:"max_entry_minutes"`
	MaxDayMinutes            int `toml:"max_day_minutes"`
	DurationToleranceMinutes int `toml:"duration_tolerance_minutes"`
	EarliestStartHour        int `toml:"earliest_start_hour"`
	LatestStartHour          int `toml:"latest_start_hour"`
	EarliestEndHour          int `toml:"earliest_end_hour"`
	LatestEndHour            int `toml:"latest_end_hour"`
	BreakRequiredMinutes     int `toml:"break_required_minutes"`

	// Fields
	MaxDescriptionLength int `toml:"max_description_length"`
	MaxTagLength         int `toml:"max_tag_length"`

	// Overtime
	WeeklyWarnHours float64 `toml:"weekly_warn_hours"`
	WeeklyMaxHours  float64 `toml:"weekly_max_hours"`
	DailyMaxHours   float64 `toml:"daily_max_hours"`

	// Billing
	MinHourlyRate float64 `toml:"min_hourly_rate"`
	MaxHourlyRate float64 `toml:"max_hourly_rate"`

	// Timesheet completeness
	MinDailyHours   float64 `toml:"min_daily_hours"`
	MaxDailyHours   float64 `toml:"max_daily_hours"`
	TotalsTolerance float64 `toml:"totals_tolerance_hours"`

	// Anomalies
	UnusualStartBeforeHour int `toml:"unusual_start_before_hour"`
	UnusualStartAfterHour  int `toml:"unusual_start_after_hour"`
	ShortDescriptionLength int `toml:"short_description_length"`

	// Productive hours
	ProductiveMinMinutes int `toml:"productive_min_minutes"`

	// Reconciliation
	HoursDiscrepancyThreshold float64 `toml:"hours_discrepancy_threshold"`
	TimeDeviationMinutes      int     `toml:"time_deviation_minutes"`
}

// SyncConfig controls batch presence synchronization
type SyncConfig struct {
	PageSize              int `toml:"page_size"`
	MaxPageSize           int `toml:"max_page_size"`
	MatchToleranceMinutes int `toml:"match_tolerance_minutes"`
}

// Timesheet period kinds
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// TimesheetConfig holds timesheet period configuration
type TimesheetConfig struct {
	Period string `toml:"period"`
}

// LoggingConfig holds slog handler configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ApplicationConfig holds application-level configuration
type ApplicationConfig struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Verbose        bool   `toml:"verbose"`
	TenantID       string `toml:"tenant_id"`
	Timezone       string `toml:"timezone"`
}

// DefaultRules returns the stock rule thresholds.
func DefaultRules() RulesConfig {
	return RulesConfig{
		MinEntryMinutes:           15,
		LongEntryMinutes:          12 * 60,
		MaxEntryMinutes:           16 * 60,
		MaxDayMinutes:             24 * 60,
		DurationToleranceMinutes:  1,
		EarliestStartHour:         5,
		LatestStartHour:           23,
		EarliestEndHour:           6,
		LatestEndHour:             24,
		BreakRequiredMinutes:      6 * 60,
		MaxDescriptionLength:      1000,
		MaxTagLength:              50,
		WeeklyWarnHours:           40,
		WeeklyMaxHours:            60,
		DailyMaxHours:             12,
		MinHourlyRate:             5,
		MaxHourlyRate:             500,
		MinDailyHours:             1,
		MaxDailyHours:             12,
		TotalsTolerance:           0.1,
		UnusualStartBeforeHour:    6,
		UnusualStartAfterHour:     22,
		ShortDescriptionLength:    10,
		ProductiveMinMinutes:      30,
		HoursDiscrepancyThreshold: 0.5,
		TimeDeviationMinutes:      30,
	}
}

// NewConfig creates a new configuration with sensible defaults
func NewConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultDBDir := filepath.Join(homeDir, ".tse")

	return &Config{
		Database: DatabaseConfig{
			Dir:                 defaultDBDir,
			Filename:            "tse.db",
			QueryTimeoutSeconds: 10,
			WriteTimeoutSeconds: 5,
			DirPermissions:      0755,
			MaxRetries:          3,
		},
		Presence: PresenceConfig{
			Source: PresenceSourceSQLite,
		},
		Rules: DefaultRules(),
		Sync: SyncConfig{
			PageSize:              100,
			MaxPageSize:           500,
			MatchToleranceMinutes: 15,
		},
		Timesheet: TimesheetConfig{
			Period: PeriodWeekly,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Application: ApplicationConfig{
			TimeoutSeconds: 60,
			TenantID:       "default",
			Timezone:       "Local",
		},
	}
}

// GetDatabasePath returns the full path to the database file
func (c *Config) GetDatabasePath() string {
	return filepath.Join(c.Database.Dir, c.Database.Filename)
}

// GetQueryTimeout returns the database query timeout
func (c *Config) GetQueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeoutSeconds) * time.Second
}

// GetWriteTimeout returns the database write timeout
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.Database.WriteTimeoutSeconds) * time.Second
}

// GetTimeout returns the overall command timeout
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Application.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to local time.
func (c *Config) Location() *time.Location {
	if c.Application.Timezone == "" || c.Application.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Application.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// LoadFromEnvironment loads configuration from TSE_* environment variables
func (c *Config) LoadFromEnvironment() error {
	// Database configuration
	if dir := os.Getenv("TSE_DB_DIR"); dir != "" {
		c.Database.Dir = dir
	}
	if filename := os.Getenv("TSE_DB_FILENAME"); filename != "" {
		c.Database.Filename = filename
	}
	if v := os.Getenv("TSE_DB_QUERY_TIMEOUT"); v != "" {
		c.Database.QueryTimeoutSeconds = ParseIntWithFallback(v, c.Database.QueryTimeoutSeconds)
	}
	if v := os.Getenv("TSE_DB_WRITE_TIMEOUT"); v != "" {
		c.Database.WriteTimeoutSeconds = ParseIntWithFallback(v, c.Database.WriteTimeoutSeconds)
	}
	if perms := os.Getenv("TSE_DB_DIR_PERMISSIONS"); perms != "" {
		c.Database.DirPermissions = ParseUint32WithFallback(perms, 8, c.Database.DirPermissions)
	}
	if v := os.Getenv("TSE_DB_MAX_RETRIES"); v != "" {
		c.Database.MaxRetries = ParseIntWithFallback(v, c.Database.MaxRetries)
	}

	// Presence source
	if v := os.Getenv("TSE_PRESENCE_SOURCE"); v != "" {
		c.Presence.Source = v
	}
	if v := os.Getenv("TSE_PRESENCE_DSN"); v != "" {
		c.Presence.DSN = v
	}

	// Rules most often tuned per deployment
	if v := os.Getenv("TSE_RULES_DURATION_TOLERANCE"); v != "" {
		c.Rules.DurationToleranceMinutes = ParseIntWithFallback(v, c.Rules.DurationToleranceMinutes)
	}
	if v := os.Getenv("TSE_RULES_WEEKLY_WARN_HOURS"); v != "" {
		c.Rules.WeeklyWarnHours = ParseFloatWithFallback(v, c.Rules.WeeklyWarnHours)
	}
	if v := os.Getenv("TSE_RULES_WEEKLY_MAX_HOURS"); v != "" {
		c.Rules.WeeklyMaxHours = ParseFloatWithFallback(v, c.Rules.WeeklyMaxHours)
	}
	if v := os.Getenv("TSE_RULES_DAILY_MAX_HOURS"); v != "" {
		c.Rules.DailyMaxHours = ParseFloatWithFallback(v, c.Rules.DailyMaxHours)
	}

	// Sync configuration
	if v := os.Getenv("TSE_SYNC_PAGE_SIZE"); v != "" {
		c.Sync.PageSize = ParseIntWithFallback(v, c.Sync.PageSize)
	}
	if v := os.Getenv("TSE_SYNC_MATCH_TOLERANCE"); v != "" {
		c.Sync.MatchToleranceMinutes = ParseIntWithFallback(v, c.Sync.MatchToleranceMinutes)
	}

	// Timesheet configuration
	if v := os.Getenv("TSE_TIMESHEET_PERIOD"); v != "" {
		c.Timesheet.Period = v
	}

	// Logging configuration
	if v := os.Getenv("TSE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("TSE_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}

	// Application configuration
	if v := os.Getenv("TSE_APP_TIMEOUT"); v != "" {
		c.Application.TimeoutSeconds = ParseIntWithFallback(v, c.Application.TimeoutSeconds)
	}
	if v := os.Getenv("TSE_APP_VERBOSE"); v != "" {
		c.Application.Verbose = ParseBoolWithFallback(v, c.Application.Verbose)
	}
	if v := os.Getenv("TSE_TENANT"); v != "" {
		c.Application.TenantID = v
	}
	if v := os.Getenv("TSE_TIMEZONE"); v != "" {
		c.Application.Timezone = v
	}

	return nil
}

// Validate validates the configuration and returns any errors
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Dir == "" {
		return &ConfigError{Field: "database.dir", Message: "database directory cannot be empty"}
	}
	if c.Database.Filename == "" {
		return &ConfigError{Field: "database.filename", Message: "database filename cannot be empty"}
	}
	if c.Database.QueryTimeoutSeconds <= 0 {
		return &ConfigError{Field: "database.query_timeout_seconds", Message: "query timeout must be positive"}
	}
	if c.Database.WriteTimeoutSeconds <= 0 {
		return &ConfigError{Field: "database.write_timeout_seconds", Message: "write timeout must be positive"}
	}
	if c.Database.MaxRetries < 0 {
		return &ConfigError{Field: "database.max_retries", Message: "max retries cannot be negative"}
	}

	// Validate presence source
	switch c.Presence.Source {
	case PresenceSourceSQLite:
	case PresenceSourceMySQL:
		if c.Presence.DSN == "" {
			return &ConfigError{Field: "presence.dsn", Message: "a DSN is required for the mysql presence source"}
		}
	default:
		return &ConfigError{Field: "presence.source", Message: "presence source must be sqlite or mysql"}
	}

	if err := c.Rules.Validate(); err != nil {
		return err
	}

	// Validate sync configuration
	if c.Sync.PageSize < 1 {
		return &ConfigError{Field: "sync.page_size", Message: "page size must be at least 1"}
	}
	if c.Sync.MaxPageSize < c.Sync.PageSize {
		return &ConfigError{Field: "sync.max_page_size", Message: "max page size must not be below page size"}
	}
	if c.Sync.MatchToleranceMinutes < 0 {
		return &ConfigError{Field: "sync.match_tolerance_minutes", Message: "match tolerance cannot be negative"}
	}

	if c.Timesheet.Period != PeriodWeekly && c.Timesheet.Period != PeriodMonthly {
		return &ConfigError{Field: "timesheet.period", Message: "period must be weekly or monthly"}
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "log format must be text or json"}
	}

	// Validate application configuration
	if c.Application.TimeoutSeconds <= 0 {
		return &ConfigError{Field: "application.timeout_seconds", Message: "application timeout must be positive"}
	}
	if c.Application.TenantID == "" {
		return &ConfigError{Field: "application.tenant_id", Message: "tenant id cannot be empty"}
	}

	return nil
}

// Validate checks that the thresholds are internally consistent.
func (r RulesConfig) Validate() error {
	if r.MinEntryMinutes < 0 {
		return &ConfigError{Field: "rules.min_entry_minutes", Message: "minimum entry length cannot be negative"}
	}
	if r.LongEntryMinutes > r.MaxEntryMinutes {
		return &ConfigError{Field: "rules.long_entry_minutes", Message: "long entry threshold must not exceed max entry minutes"}
	}
	if r.MaxEntryMinutes > r.MaxDayMinutes {
		return &ConfigError{Field: "rules.max_entry_minutes", Message: "max entry minutes must not exceed max day minutes"}
	}
	if r.DurationToleranceMinutes < 0 {
		return &ConfigError{Field: "rules.duration_tolerance_minutes", Message: "duration tolerance cannot be negative"}
	}
	if r.MaxDescriptionLength < 1 {
		return &ConfigError{Field: "rules.max_description_length", Message: "max description length must be at least 1"}
	}
	if r.MaxTagLength < 1 {
		return &ConfigError{Field: "rules.max_tag_length", Message: "max tag length must be at least 1"}
	}
	if r.WeeklyWarnHours > r.WeeklyMaxHours {
		return &ConfigError{Field: "rules.weekly_warn_hours", Message: "weekly warning threshold must not exceed weekly maximum"}
	}
	if r.DailyMaxHours <= 0 {
		return &ConfigError{Field: "rules.daily_max_hours", Message: "daily maximum must be positive"}
	}
	if r.MinHourlyRate > r.MaxHourlyRate {
		return &ConfigError{Field: "rules.min_hourly_rate", Message: "minimum rate must not exceed maximum rate"}
	}
	if r.MinDailyHours > r.MaxDailyHours {
		return &ConfigError{Field: "rules.min_daily_hours", Message: "minimum daily hours must not exceed maximum daily hours"}
	}
	if r.TotalsTolerance < 0 {
		return &ConfigError{Field: "rules.totals_tolerance_hours", Message: "totals tolerance cannot be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

// ParseIntWithFallback parses an integer string with a fallback value
func ParseIntWithFallback(s string, fallback int) int {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return fallback
}

// ParseFloatWithFallback parses a float string with a fallback value
func ParseFloatWithFallback(s string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return fallback
}

// ParseBoolWithFallback parses a boolean string with a fallback value
func ParseBoolWithFallback(s string, fallback bool) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return fallback
}

// ParseUint32WithFallback parses a uint32 string with a fallback value
func ParseUint32WithFallback(s string, base int, fallback uint32) uint32 {
	if u, err := strconv.ParseUint(s, base, 32); err == nil {
		return uint32(u)
	}
	return fallback
}
