package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

// DisabledModel as ai.fallback_model turns the fallback switch off.
const DisabledModel = "none"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	AI          AIConfig          `yaml:"ai"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
	Auth        AuthConfig        `yaml:"auth"`
	Email       EmailConfig       `yaml:"email"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr" env:"PORT"`
	UploadDir       string `yaml:"upload_dir"`
	MaxUploadMB     int    `yaml:"max_upload_mb"`
	MaxFiles        int    `yaml:"max_files"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
	// TrustProxy makes rate limiting and request logs read the client
	// address from X-Forwarded-For or X-Real-IP. Enable it only behind a
	// reverse proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DATABASE_PATH"`
}

type AIConfig struct {
	GeminiAPIKey          string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model                 string `yaml:"model"`
	FallbackModel         string `yaml:"fallback_model"`
	ChatModel             string `yaml:"chat_model"`
	MaxAttempts           int    `yaml:"max_attempts"`
	BaseBackoffMillis     int    `yaml:"base_backoff_ms"`
	FallbackBackoffMillis int    `yaml:"fallback_backoff_ms"`
	AttemptTimeoutSeconds int    `yaml:"attempt_timeout_seconds"`
}

type YouTubeConfig struct {
	APIKey                string `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	ClientID              string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret          string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile             string `yaml:"token_file"`
	OEmbedURL             string `yaml:"oembed_url"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	CacheHours            int    `yaml:"cache_hours"`
}

type AuthConfig struct {
	SessionTTLHours  int    `yaml:"session_ttl_hours"`
	ResetTTLMinutes  int    `yaml:"reset_ttl_minutes"`
	PublicURL        string `yaml:"public_url"`
	MinPasswordChars int    `yaml:"min_password_chars"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
}

// RateLimitConfig is the per-IP token bucket. A negative PerMinute turns
// limiting off; zero picks the default.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

func (r RateLimitConfig) Enabled() bool {
	return r.PerMinute > 0
}

type MaintenanceConfig struct {
	Schedule string `yaml:"schedule"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Enabled reports whether SMTP credentials are present. Without them the
// password reset flow is disabled.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.Username != "" && e.Password != ""
}

func (a AIConfig) BaseBackoff() time.Duration {
	return time.Duration(a.BaseBackoffMillis) * time.Millisecond
}

func (a AIConfig) FallbackBackoff() time.Duration {
	return time.Duration(a.FallbackBackoffMillis) * time.Millisecond
}

func (a AIConfig) AttemptTimeout() time.Duration {
	return time.Duration(a.AttemptTimeoutSeconds) * time.Second
}

func (y YouTubeConfig) RequestTimeout() time.Duration {
	return time.Duration(y.RequestTimeoutSeconds) * time.Second
}

func (y YouTubeConfig) CacheTTL() time.Duration {
	return time.Duration(y.CacheHours) * time.Hour
}

func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

func (a AuthConfig) ResetTTL() time.Duration {
	return time.Duration(a.ResetTTLMinutes) * time.Minute
}

// Load reads .env, then the YAML file named by CONFIG_FILE (default
// config.yaml), then fills secrets from the environment and applies
// defaults. A missing default config file is not an error; a missing file
// that was named explicitly is.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if c.YouTube.APIKey == "" {
		c.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.YouTube.ClientID == "" {
		c.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.YouTube.ClientSecret == "" {
		c.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.Email.Username == "" {
		c.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if c.Email.Password == "" {
		c.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if path := os.Getenv("DATABASE_PATH"); path != "" {
		c.Database.Path = path
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err == nil {
			c.Server.Addr = ":" + port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Server.MaxFiles == 0 {
		c.Server.MaxFiles = 5
	}
	if c.Server.ShutdownSeconds == 0 {
		c.Server.ShutdownSeconds = 30
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/automindmap.db"
	}

	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	switch {
	case c.AI.FallbackModel == "":
		c.AI.FallbackModel = "gemini-2.5-flash-lite"
	case strings.EqualFold(c.AI.FallbackModel, DisabledModel):
		c.AI.FallbackModel = ""
	}
	if c.AI.ChatModel == "" {
		c.AI.ChatModel = c.AI.Model
	}
	if c.AI.MaxAttempts == 0 {
		c.AI.MaxAttempts = 3
	}
	if c.AI.BaseBackoffMillis == 0 {
		c.AI.BaseBackoffMillis = 1000
	}
	if c.AI.FallbackBackoffMillis == 0 {
		c.AI.FallbackBackoffMillis = 500
	}
	if c.AI.AttemptTimeoutSeconds == 0 {
		c.AI.AttemptTimeoutSeconds = 60
	}

	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.OEmbedURL == "" {
		c.YouTube.OEmbedURL = "https://www.youtube.com/oembed"
	}
	if c.YouTube.RequestTimeoutSeconds == 0 {
		c.YouTube.RequestTimeoutSeconds = 15
	}
	if c.YouTube.CacheHours == 0 {
		c.YouTube.CacheHours = 24
	}

	if c.Auth.SessionTTLHours == 0 {
		c.Auth.SessionTTLHours = 7 * 24
	}
	if c.Auth.ResetTTLMinutes == 0 {
		c.Auth.ResetTTLMinutes = 60
	}
	if c.Auth.PublicURL == "" {
		c.Auth.PublicURL = "http://localhost:5000"
	}
	if c.Auth.MinPasswordChars == 0 {
		c.Auth.MinPasswordChars = 6
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}

	if c.RateLimit.PerMinute == 0 {
		c.RateLimit.PerMinute = 30
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}

	if c.Maintenance.Schedule == "" {
		c.Maintenance.Schedule = "0 */30 * * * *" // every 30 minutes
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY, GOOGLE_API_KEY or ai.gemini_api_key)")
	}
	if c.AI.MaxAttempts < 1 {
		return fmt.Errorf("ai.max_attempts must be at least 1, got %d", c.AI.MaxAttempts)
	}
	if c.AI.BaseBackoffMillis < 0 || c.AI.FallbackBackoffMillis < 0 {
		return fmt.Errorf("ai backoff values must not be negative")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must not be negative")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}
	return nil
}
