package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // report time zones must resolve on slim images

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all runtime configuration, read once at startup.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Reports  ReportsConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	TimeZone string
}

type AuthConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// RedisConfig is optional; an empty Addr disables redis.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NewRelicConfig struct {
	Enabled    bool
	AppName    string
	LicenseKey string
}

type ReportsConfig struct {
	TimeZone    string
	CompanyName string
}

type LogConfig struct {
	File  string
	Level string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}

	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			GinMode:        getEnv("GIN_MODE", "release"),
			ReadTimeout:    getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "matatu"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		Auth: AuthConfig{
			Secret:     getEnv("JWT_SECRET", "supersecret"),
			AccessTTL:  time.Duration(getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			RefreshTTL: time.Duration(getIntEnv("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
			AppName:    getEnv("NEW_RELIC_APP_NAME", "matatu-manager"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
		},
		Reports: ReportsConfig{
			TimeZone:    getEnv("REPORT_TIMEZONE", "Africa/Nairobi"),
			CompanyName: getEnv("REPORT_COMPANY_NAME", "Matatu Fleet"),
		},
		Log: LogConfig{
			File:  getEnv("LOG_FILE", "./logs/app.log"),
			Level: getEnv("LOG_LEVEL", "debug"),
		},
	}
}

// Location resolves the report time zone, falling back to UTC.
func (c ReportsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		logrus.WithError(err).Warnf("Location: unknown REPORT_TIMEZONE %q, using UTC", c.TimeZone)
		return time.UTC
	}
	return loc
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v, exists := os.LookupEnv(key); exists {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if v, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if v, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
