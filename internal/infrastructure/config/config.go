package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Store    StoreConfig    `mapstructure:"store"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Session  SessionConfig  `mapstructure:"session"`
	Server   ServerConfig   `mapstructure:"server"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`
}

// StoreConfig locates the on-device files
type StoreConfig struct {
	DBPath       string `mapstructure:"db_path"`
	ActionsPath  string `mapstructure:"actions_path"`
	RejectedPath string `mapstructure:"rejected_path"`
	ExportPath   string `mapstructure:"export_path"`
}

// RemoteConfig configures the remote API client
type RemoteConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
}

// SyncConfig controls the reconciler
type SyncConfig struct {
	OnStart     bool   `mapstructure:"on_start"`
	MetricsFile string `mapstructure:"metrics_file"`
}

// SessionConfig locates the persisted session token
type SessionConfig struct {
	TokenPath string `mapstructure:"token_path"`
}

// ServerConfig holds the development remote server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	DBPath       string        `mapstructure:"db_path"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from defaults, an optional file, .env and the environment.
// configFile may be empty.
func Load(configFile string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKNOTE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvVars(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func dataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "tasknote")
	}
	return ".tasknote"
}

func downloadsDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

func setDefaults(v *viper.Viper) {
	data := dataDir()

	// App defaults
	v.SetDefault("app.name", "tasknote")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.timezone", "Local")

	// Store defaults
	v.SetDefault("store.db_path", filepath.Join(data, "tasknote.db"))
	v.SetDefault("store.actions_path", filepath.Join(data, "actions.json"))
	v.SetDefault("store.rejected_path", filepath.Join(data, "rejected.json"))
	v.SetDefault("store.export_path", filepath.Join(downloadsDir(), "tasknote-export.json"))

	// Remote defaults
	v.SetDefault("remote.base_url", "http://localhost:8000")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("remote.rate_limit", 10.0)
	v.SetDefault("remote.burst", 5)

	// Sync defaults
	v.SetDefault("sync.on_start", true)
	v.SetDefault("sync.metrics_file", "")

	// Session defaults
	v.SetDefault("session.token_path", filepath.Join(data, "session"))

	// Server defaults
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.db_path", filepath.Join(data, "server.db"))
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")

	// JWT defaults
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", "24h")
	v.SetDefault("jwt.issuer", "tasknote-dev")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.filename", "")

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "*")
	v.SetDefault("security.rate_limit_requests", 100)
	v.SetDefault("security.rate_limit_window", "1m")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	// Store
	v.BindEnv("store.db_path", "TASKNOTE_DB_PATH")
	v.BindEnv("store.actions_path", "TASKNOTE_ACTIONS_PATH")
	v.BindEnv("store.rejected_path", "TASKNOTE_REJECTED_PATH")
	v.BindEnv("store.export_path", "TASKNOTE_EXPORT_PATH")

	// Remote
	v.BindEnv("remote.base_url", "TASKNOTE_API_URL")
	v.BindEnv("remote.timeout", "TASKNOTE_API_TIMEOUT")

	// Session
	v.BindEnv("session.token_path", "TASKNOTE_TOKEN_PATH")

	// Server
	v.BindEnv("server.port", "TASKNOTE_SERVER_PORT")
	v.BindEnv("server.db_path", "TASKNOTE_SERVER_DB_PATH")

	// JWT
	v.BindEnv("jwt.secret", "TASKNOTE_JWT_SECRET", "JWT_SECRET")

	// Logger
	v.BindEnv("logger.level", "TASKNOTE_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("logger.format", "TASKNOTE_LOG_FORMAT", "LOG_FORMAT")
}

func validateConfig(cfg *Config) error {
	if cfg.Store.DBPath == "" {
		return fmt.Errorf("store db path is required")
	}

	if cfg.Store.ActionsPath == "" {
		return fmt.Errorf("store actions path is required")
	}

	if cfg.Store.ExportPath == "" {
		return fmt.Errorf("store export path is required")
	}

	if cfg.Remote.BaseURL == "" {
		return fmt.Errorf("remote base url is required")
	}

	if cfg.Remote.Timeout <= 0 {
		return fmt.Errorf("remote timeout must be positive")
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if _, err := cfg.App.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.App.Timezone, err)
	}

	return nil
}

// Location resolves the configured timezone used for calendar-day comparisons
func (cfg *AppConfig) Location() (*time.Location, error) {
	if cfg.Timezone == "" || cfg.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(cfg.Timezone)
}

// Address returns the listen address of the development server
func (cfg *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// IsDevelopment returns true if the environment is development
func (cfg *AppConfig) IsDevelopment() bool {
	return cfg.Environment == "development"
}
