package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	S3      S3Config
	Log     LogConfig
	LLM     LLMConfig
	Render  RenderConfig
	Tracing TracingConfig
}

// ProviderConfig holds settings for a single model provider in the fallback chain.
type ProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	DefaultModel string `mapstructure:"default_model"`
	MaxTokens    int    `mapstructure:"max_tokens"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// Configured reports whether the slot names a provider at all.
func (p *ProviderConfig) Configured() bool {
	return p != nil && p.Provider != ""
}

// HasCredentials reports whether an API key is present for the slot.
func (p *ProviderConfig) HasCredentials() bool {
	return p != nil && p.APIKey != ""
}

// Timeout returns TimeoutSecs as a duration, or def when unset.
func (p *ProviderConfig) Timeout(def time.Duration) time.Duration {
	if p == nil || p.TimeoutSecs <= 0 {
		return def
	}
	return time.Duration(p.TimeoutSecs) * time.Second
}

// LLMConfig holds the ordered provider chain: a primary hosted provider, a directly
// configured secondary API, and a locally reachable tertiary model.
type LLMConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
	Tertiary  ProviderConfig `mapstructure:"tertiary"`

	// LocalTimeoutSecs bounds the tertiary attempt with a hard cancellation.
	LocalTimeoutSecs int `mapstructure:"local_timeout_secs"`
}

// SecondaryConfig returns the secondary provider config, or nil if it has no credentials.
func (l *LLMConfig) SecondaryConfig() *ProviderConfig {
	if l.Secondary.Configured() && l.Secondary.HasCredentials() {
		return &l.Secondary
	}
	return nil
}

// TertiaryConfig returns the tertiary provider config, or nil if not configured.
func (l *LLMConfig) TertiaryConfig() *ProviderConfig {
	if l.Tertiary.Configured() {
		return &l.Tertiary
	}
	return nil
}

// hostedTimeout is the per-attempt bound hosted clients use when TimeoutSecs is unset.
const hostedTimeout = 300 * time.Second

// ChainBudget is the longest a single analysis can spend walking the chain: every
// provider BuildChain would add, each running to its own timeout.
func (l *LLMConfig) ChainBudget() time.Duration {
	var total time.Duration
	if l.Primary.Configured() {
		total += l.Primary.Timeout(hostedTimeout)
	}
	if sc := l.SecondaryConfig(); sc != nil {
		total += sc.Timeout(hostedTimeout)
	}
	if tc := l.TertiaryConfig(); tc != nil {
		if l.LocalTimeoutSecs > 0 {
			total += time.Duration(l.LocalTimeoutSecs) * time.Second
		} else {
			total += tc.Timeout(hostedTimeout)
		}
	}
	return total
}

// RenderConfig holds document rendering settings.
type RenderConfig struct {
	PageSize     string  `mapstructure:"page_size"`
	PreviewScale float64 `mapstructure:"preview_scale"`
	Title        string  `mapstructure:"title"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for the source document bucket.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const writeTimeoutMargin = 2 * time.Minute

// Load reads configuration from environment variables with the CLINSYNTH_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLINSYNTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.cors_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "clinsynth")
	v.SetDefault("db.password", "clinsynth_secret")
	v.SetDefault("db.name", "clinsynth_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "clinsynth")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "clinsynth-documents")
	v.SetDefault("s3.endpoint", "")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// LLM chain defaults
	v.SetDefault("llm.primary.provider", "claude")
	v.SetDefault("llm.primary.api_key", "")
	v.SetDefault("llm.primary.base_url", "")
	v.SetDefault("llm.primary.default_model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.primary.max_tokens", 16384)
	v.SetDefault("llm.primary.timeout_secs", 300)
	v.SetDefault("llm.secondary.provider", "openai")
	v.SetDefault("llm.secondary.api_key", "")
	v.SetDefault("llm.secondary.base_url", "")
	v.SetDefault("llm.secondary.default_model", "gpt-4o")
	v.SetDefault("llm.secondary.max_tokens", 16384)
	v.SetDefault("llm.secondary.timeout_secs", 300)
	v.SetDefault("llm.tertiary.provider", "ollama")
	v.SetDefault("llm.tertiary.api_key", "")
	v.SetDefault("llm.tertiary.base_url", "http://localhost:11434")
	v.SetDefault("llm.tertiary.default_model", "llama3.1")
	v.SetDefault("llm.tertiary.max_tokens", 8192)
	v.SetDefault("llm.tertiary.timeout_secs", 0)
	v.SetDefault("llm.local_timeout_secs", 600)

	// Render defaults
	v.SetDefault("render.page_size", "A4")
	v.SetDefault("render.preview_scale", 1.5)
	v.SetDefault("render.title", "Clinical Analysis Report")

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "clinsynth")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "CLINSYNTH_SERVER_PORT",
		"server.read_timeout":        "CLINSYNTH_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "CLINSYNTH_SERVER_WRITE_TIMEOUT",
		"server.environment":         "CLINSYNTH_SERVER_ENVIRONMENT",
		"server.cors_origins":        "CLINSYNTH_SERVER_CORS_ORIGINS",
		"db.host":                    "CLINSYNTH_DB_HOST",
		"db.port":                    "CLINSYNTH_DB_PORT",
		"db.user":                    "CLINSYNTH_DB_USER",
		"db.password":                "CLINSYNTH_DB_PASSWORD",
		"db.name":                    "CLINSYNTH_DB_NAME",
		"db.sslmode":                 "CLINSYNTH_DB_SSLMODE",
		"db.max_open":                "CLINSYNTH_DB_MAX_OPEN",
		"db.max_idle":                "CLINSYNTH_DB_MAX_IDLE",
		"jwt.secret":                 "CLINSYNTH_JWT_SECRET",
		"jwt.issuer":                 "CLINSYNTH_JWT_ISSUER",
		"s3.region":                  "CLINSYNTH_S3_REGION",
		"s3.bucket":                  "CLINSYNTH_S3_BUCKET",
		"s3.endpoint":                "CLINSYNTH_S3_ENDPOINT",
		"s3.access_key":              "CLINSYNTH_S3_ACCESS_KEY",
		"s3.secret_key":              "CLINSYNTH_S3_SECRET_KEY",
		"log.level":                  "CLINSYNTH_LOG_LEVEL",
		"log.format":                 "CLINSYNTH_LOG_FORMAT",
		"llm.primary.provider":       "CLINSYNTH_LLM_PRIMARY_PROVIDER",
		"llm.primary.api_key":        "CLINSYNTH_LLM_PRIMARY_API_KEY",
		"llm.primary.base_url":       "CLINSYNTH_LLM_PRIMARY_BASE_URL",
		"llm.primary.default_model":  "CLINSYNTH_LLM_PRIMARY_DEFAULT_MODEL",
		"llm.primary.max_tokens":     "CLINSYNTH_LLM_PRIMARY_MAX_TOKENS",
		"llm.primary.timeout_secs":   "CLINSYNTH_LLM_PRIMARY_TIMEOUT_SECS",
		"llm.secondary.provider":     "CLINSYNTH_LLM_SECONDARY_PROVIDER",
		"llm.secondary.api_key":      "CLINSYNTH_LLM_SECONDARY_API_KEY",
		"llm.secondary.base_url":     "CLINSYNTH_LLM_SECONDARY_BASE_URL",
		"llm.secondary.default_model": "CLINSYNTH_LLM_SECONDARY_DEFAULT_MODEL",
		"llm.secondary.max_tokens":   "CLINSYNTH_LLM_SECONDARY_MAX_TOKENS",
		"llm.secondary.timeout_secs": "CLINSYNTH_LLM_SECONDARY_TIMEOUT_SECS",
		"llm.tertiary.provider":      "CLINSYNTH_LLM_TERTIARY_PROVIDER",
		"llm.tertiary.api_key":       "CLINSYNTH_LLM_TERTIARY_API_KEY",
		"llm.tertiary.base_url":      "CLINSYNTH_LLM_TERTIARY_BASE_URL",
		"llm.tertiary.default_model": "CLINSYNTH_LLM_TERTIARY_DEFAULT_MODEL",
		"llm.tertiary.max_tokens":    "CLINSYNTH_LLM_TERTIARY_MAX_TOKENS",
		"llm.tertiary.timeout_secs":  "CLINSYNTH_LLM_TERTIARY_TIMEOUT_SECS",
		"llm.local_timeout_secs":     "CLINSYNTH_LLM_LOCAL_TIMEOUT_SECS",
		"render.page_size":           "CLINSYNTH_RENDER_PAGE_SIZE",
		"render.preview_scale":       "CLINSYNTH_RENDER_PREVIEW_SCALE",
		"render.title":               "CLINSYNTH_RENDER_TITLE",
		"tracing.enabled":            "CLINSYNTH_TRACING_ENABLED",
		"tracing.service_name":       "CLINSYNTH_TRACING_SERVICE_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if CLINSYNTH_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CLINSYNTH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
		CORSOrigins:  splitList(v.GetString("server.cors_origins")),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.LLM = LLMConfig{
		Primary:          providerFromViper(v, "llm.primary"),
		Secondary:        providerFromViper(v, "llm.secondary"),
		Tertiary:         providerFromViper(v, "llm.tertiary"),
		LocalTimeoutSecs: v.GetInt("llm.local_timeout_secs"),
	}
	cfg.Render = RenderConfig{
		PageSize:     v.GetString("render.page_size"),
		PreviewScale: v.GetFloat64("render.preview_scale"),
		Title:        v.GetString("render.title"),
	}
	cfg.Tracing = TracingConfig{
		Enabled:     v.GetBool("tracing.enabled"),
		ServiceName: v.GetString("tracing.service_name"),
	}

	// Unset write timeout covers a full walk of the chain plus extraction and persistence.
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = cfg.LLM.ChainBudget() + writeTimeoutMargin
	}

	if cfg.Render.PreviewScale <= 0 {
		return nil, fmt.Errorf("render.preview_scale must be positive, got %v", cfg.Render.PreviewScale)
	}

	return cfg, nil
}

func providerFromViper(v *viper.Viper, prefix string) ProviderConfig {
	return ProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		BaseURL:      v.GetString(prefix + ".base_url"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxTokens:    v.GetInt(prefix + ".max_tokens"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}

// splitList parses a comma-separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
