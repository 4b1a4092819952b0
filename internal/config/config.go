package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv     string
	LogLevel   string
	ServerPort string

	DBDriver   string // "pgx" or "postgres" (lib/pq)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion        string
	SQSEventQueueURL string
	IoTMQTTEndpoint  string

	JWTSecret          string
	JWTExpirationHours time.Duration
	// AdminUsername/AdminPassword seed the first admin account when both are set.
	AdminUsername string
	AdminPassword string

	// LPRConfidenceThreshold is on the 0-100 scale used by Rekognition.
	LPRConfidenceThreshold float32
	GateEventTimeout       time.Duration
	GateCleanupSchedule    string
	// AutoRegisterPrefixes lists plate prefixes that are authorized on first sight.
	AutoRegisterPrefixes []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PlateCacheTTL time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	return &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBDriver:   getEnv("DB_DRIVER", "pgx"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "plategate"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "plategate"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:        getEnv("AWS_REGION", "eu-central-1"),
		SQSEventQueueURL: getEnv("SQS_EVENT_QUEUE_URL", ""),
		IoTMQTTEndpoint:  getEnv("IOT_MQTT_ENDPOINT", ""),

		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTExpirationHours: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		AdminUsername:      getEnv("ADMIN_USERNAME", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),

		LPRConfidenceThreshold: getEnvFloat("LPR_CONFIDENCE_THRESHOLD", 80),
		GateEventTimeout:       time.Duration(getEnvInt("GATE_EVENT_TIMEOUT_MINUTES", 5)) * time.Minute,
		GateCleanupSchedule:    getEnv("GATE_CLEANUP_SCHEDULE", "@every 1m"),
		AutoRegisterPrefixes:   getEnvList("AUTO_REGISTER_PREFIXES"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		PlateCacheTTL: time.Duration(getEnvInt("PLATE_CACHE_TTL_SECONDS", 300)) * time.Second,
	}
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.DBName == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.DBDriver != "pgx" && c.DBDriver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be pgx or postgres, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.LPRConfidenceThreshold <= 0 || c.LPRConfidenceThreshold > 100 {
		return fmt.Errorf("LPR_CONFIDENCE_THRESHOLD must be in (0, 100], got %v", c.LPRConfidenceThreshold)
	}
	if c.GateEventTimeout <= 0 {
		return fmt.Errorf("GATE_EVENT_TIMEOUT_MINUTES must be positive")
	}
	return nil
}

// DSN builds the key/value connection string understood by pgx.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Debug().Str("key", key).Str("default", fallback).Msg("environment variable not set, using default")
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := getEnv(key, strconv.Itoa(fallback))
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("not an integer, using default")
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float32) float32 {
	raw := getEnv(key, strconv.FormatFloat(float64(fallback), 'f', -1, 32))
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Msg("not a number, using default")
		return fallback
	}
	return float32(v)
}

// getEnvList splits a comma separated variable, dropping blanks and upper-casing items.
func getEnvList(key string) []string {
	raw := getEnv(key, "")
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
