package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Compliance   ComplianceConfig   `yaml:"compliance"`
	Policy       PolicyConfig       `yaml:"policy"`
	Verification VerificationConfig `yaml:"verification"`
	Generator    GeneratorConfig    `yaml:"generator"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	Audit        AuditConfig        `yaml:"audit"`
	Log          LogConfig          `yaml:"log"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	TurnTimeout     time.Duration `yaml:"turn_timeout"     env:"SERVER_TURN_TIMEOUT"     env-default:"60s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// ComplianceConfig holds contact-rule settings (FDCPA-style restrictions).
type ComplianceConfig struct {
	ContactHoursStart        string `yaml:"contact_hours_start"         env:"CONTACT_HOURS_START"          env-default:"08:00"`
	ContactHoursEnd          string `yaml:"contact_hours_end"           env:"CONTACT_HOURS_END"            env-default:"21:00"`
	MaxDailyContactAttempts  int    `yaml:"max_daily_contact_attempts"  env:"MAX_DAILY_CONTACT_ATTEMPTS"   env-default:"3"`
	MaxWeeklyContactAttempts int    `yaml:"max_weekly_contact_attempts" env:"MAX_WEEKLY_CONTACT_ATTEMPTS"  env-default:"7"`
	ProhibitedContactDaysRaw string `yaml:"prohibited_contact_days"     env:"PROHIBITED_CONTACT_DAYS"      env-default:"Sunday"`

	// ProhibitedContactDays is parsed from ProhibitedContactDaysRaw during validation.
	ProhibitedContactDays []time.Weekday `yaml:"-" env:"-"`
}

// PolicyConfig holds payment-plan policy ceilings.
type PolicyConfig struct {
	MaxSettlementPercentage  float64 `yaml:"max_settlement_percentage"  env:"MAX_SETTLEMENT_PERCENTAGE"  env-default:"0.70"`
	MaxInstallmentMonths     int     `yaml:"max_installment_months"     env:"MAX_INSTALLMENT_MONTHS"     env-default:"12"`
	MinimumInstallmentAmount float64 `yaml:"minimum_installment_amount" env:"MINIMUM_INSTALLMENT_AMOUNT" env-default:"25"`
}

// VerificationConfig holds identity-verification settings.
type VerificationConfig struct {
	MaxAttempts int `yaml:"max_attempts" env:"MAX_VERIFICATION_ATTEMPTS" env-default:"3"`
}

// GeneratorConfig holds proposal-generator (LLM) settings.
type GeneratorConfig struct {
	APIKey    string        `yaml:"api_key"    env:"GENERATOR_API_KEY"    env-required:"true"`
	Model     string        `yaml:"model"      env:"GENERATOR_MODEL"      env-default:"claude-3-5-haiku-latest"`
	MaxTokens int           `yaml:"max_tokens" env:"GENERATOR_MAX_TOKENS" env-default:"1024"`
	Timeout   time.Duration `yaml:"timeout"    env:"GENERATOR_TIMEOUT"    env-default:"30s"`
}

// RetrievalConfig holds reference-context retrieval settings.
// An empty base URL disables retrieval entirely (always empty results).
type RetrievalConfig struct {
	BaseURL string        `yaml:"base_url" env:"RETRIEVAL_BASE_URL"`
	Timeout time.Duration `yaml:"timeout"  env:"RETRIEVAL_TIMEOUT" env-default:"5s"`
	TopK    int           `yaml:"top_k"    env:"RETRIEVAL_TOP_K"   env-default:"3"`
}

// AuditConfig holds audit-sink settings.
type AuditConfig struct {
	BufferSize   int           `yaml:"buffer_size"   env:"AUDIT_BUFFER_SIZE"   env-default:"1024"`
	FlushTimeout time.Duration `yaml:"flush_timeout" env:"AUDIT_FLUSH_TIMEOUT" env-default:"5s"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}
