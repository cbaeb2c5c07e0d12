package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bot
	BotToken     string        `yaml:"bot_token"`
	OwnerID      int64         `yaml:"owner_id"`
	DeveloperIDs []int64       `yaml:"developer_ids"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`

	// Database
	DBDriver   string `yaml:"db_driver"`
	DBPath     string `yaml:"db_path"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`

	// Backups
	BackupDir  string `yaml:"backup_dir"`
	BackupKeep int    `yaml:"backup_keep"`

	// Limits
	MaxFileSize   int64 `yaml:"max_file_size"`
	MaxTextLength int   `yaml:"max_text_length"`

	// Logging
	LogsDir  string `yaml:"logs_dir"`
	LogLevel string `yaml:"log_level"`

	// Ops server
	OpsPort      string        `yaml:"ops_port"`
	OpsJWTSecret string        `yaml:"ops_jwt_secret"`
	OpsTokenTTL  time.Duration `yaml:"ops_token_ttl"`

	// Error tracking
	SentryDSN string `yaml:"sentry_dsn"`
	AppEnv    string `yaml:"app_env"`

	// Runtime
	BroadcastRate float64       `yaml:"broadcast_rate"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load() *Config {
	return &Config{
		BotToken:     getEnv("BOT_TOKEN", ""),
		OwnerID:      parseInt64(getEnv("OWNER_ID", "0")),
		DeveloperIDs: parseIDList(getEnv("DEVELOPER_IDS", "")),
		PollTimeout:  parseDuration(getEnv("POLL_TIMEOUT", "10s"), 10*time.Second),

		DBDriver:   getEnv("DB_DRIVER", DriverSQLite),
		DBPath:     getEnv("DB_PATH", "linkbot.db"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "linkbot"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		BackupDir:  getEnv("DB_BACKUP_DIR", "backups"),
		BackupKeep: parseInt(getEnv("DB_BACKUP_KEEP", "5"), 5),

		MaxFileSize:   parseInt64(getEnv("MAX_FILE_SIZE", "2097152")),
		MaxTextLength: parseInt(getEnv("MAX_TEXT_LENGTH", "2000"), 2000),

		LogsDir:  getEnv("LOGS_DIR", "logs"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		OpsPort:      getEnv("OPS_PORT", "8080"),
		OpsJWTSecret: getEnv("OPS_JWT_SECRET", ""),
		OpsTokenTTL:  parseDuration(getEnv("OPS_TOKEN_TTL", "24h"), 24*time.Hour),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		AppEnv:    getEnv("APP_ENV", "production"),

		BroadcastRate: parseFloat(getEnv("BROADCAST_RATE", "10"), 10),
		SessionTTL:    parseDuration(getEnv("SESSION_TTL", "30m"), 30*time.Minute),
	}
}

// LoadFile applies a YAML overlay on top of the environment configuration.
// Keys missing from the file keep their env/default value.
func LoadFile(path string) (*Config, error) {
	cfg := Load()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required"))
	}
	if c.OwnerID <= 0 {
		errs = append(errs, errors.New("OWNER_ID must be a positive chat id"))
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for sqlite"))
		}
	case DriverPostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, errors.New("MAX_FILE_SIZE must be positive"))
	}
	if c.MaxTextLength <= 0 {
		errs = append(errs, errors.New("MAX_TEXT_LENGTH must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func (c *Config) IsDeveloperID(id int64) bool {
	for _, d := range c.DeveloperIDs {
		if d == id {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

// parseIDList splits a comma-separated id list, skipping blanks and garbage.
func parseIDList(s string) []int64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id := parseInt64(p); id != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
