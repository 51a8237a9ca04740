package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"cv-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port                  string
	Env                   string
	DatabaseURL           string
	CORSAllowOrigin       []string
	AutoMigrate           bool
	SnapshotReads         bool
	TracingStdout         bool
	RateLimitWritesPerSec float64
	RateLimitBurst        int
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
// Environment variables take precedence over file values.
type fileConfig struct {
	Port          string   `yaml:"port"`
	Env           string   `yaml:"env"`
	CORSOrigins   []string `yaml:"cors_allow_origins"`
	AutoMigrate   *bool    `yaml:"auto_migrate"`
	SnapshotReads *bool    `yaml:"snapshot_reads"`
	Database      struct {
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	RateLimit struct {
		WritesPerSec float64 `yaml:"writes_per_sec"`
		Burst        int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// Load reads configuration from .env files, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		loaded, err := readFile(path)
		if err != nil {
			telemetry.Warn("config.file_unreadable", map[string]any{"path": path, "error": err.Error()})
		} else {
			file = loaded
		}
	}

	env := normalizeEnv(getEnv("ENV", orDefault(file.Env, "dev")))
	dbURL := databaseURL(file)
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	corsDefault := "http://localhost:3000"
	if len(file.CORSOrigins) > 0 {
		corsDefault = strings.Join(file.CORSOrigins, ",")
	}

	return Config{
		Port:                  getEnv("PORT", orDefault(file.Port, "8080")),
		Env:                   env,
		DatabaseURL:           dbURL,
		CORSAllowOrigin:       splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", corsDefault)),
		AutoMigrate:           getEnvBool("AUTO_MIGRATE", boolOr(file.AutoMigrate, true)),
		SnapshotReads:         getEnvBool("SNAPSHOT_READS", boolOr(file.SnapshotReads, false)),
		TracingStdout:         getEnvBool("TRACING_STDOUT", false),
		RateLimitWritesPerSec: getEnvFloat("RATE_LIMIT_WRITES_PER_SEC", floatOr(file.RateLimit.WritesPerSec, 5)),
		RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", intOr(file.RateLimit.Burst, 20)),
	}
}

func readFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, err
	}
	var out fileConfig
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return fileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// databaseURL prefers DATABASE_URL and otherwise assembles a URL from the
// DB_HOST/DB_USER/DB_PASSWORD/DB_NAME parts. It returns "" when no host is set.
func databaseURL(file fileConfig) string {
	if v := getEnv("DATABASE_URL", file.Database.URL); v != "" {
		return v
	}
	host := getEnv("DB_HOST", file.Database.Host)
	if host == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   host + ":" + getEnv("DB_PORT", orDefault(file.Database.Port, "5432")),
		Path:   "/" + getEnv("DB_NAME", orDefault(file.Database.Name, "cvbuilder")),
	}
	user := getEnv("DB_USER", orDefault(file.Database.User, "postgres"))
	if pass := getEnv("DB_PASSWORD", file.Database.Password); pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}
	q := url.Values{}
	q.Set("sslmode", getEnv("DB_SSLMODE", orDefault(file.Database.SSLMode, "disable")))
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64); err == nil {
		return v
	}
	return def
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
