package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the hive system.
type Config struct {
	Redis      RedisConfig
	Captain    CaptainConfig
	Specialist SpecialistConfig
	Flashback  FlashbackConfig
	Logging    LoggingConfig
}

// RedisConfig holds channel store connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// CaptainConfig holds dispatcher settings.
type CaptainConfig struct {
	// AgentID identifies this captain in logs and results.
	AgentID string

	// PublishDelay is the fixed pause between slot writes, pacing the
	// batch so the store isn't hit in a burst.
	PublishDelay time.Duration

	// PlanPath is an optional YAML delegation plan. Empty means the
	// built-in workflow batch.
	PlanPath string
}

// SpecialistConfig holds worker settings. Role and specialization come
// from the process environment; the supervisor (pm2 or similar) owns
// that contract.
type SpecialistConfig struct {
	Role           string
	AgentID        string
	Specialization string
	Persona        string
	PollInterval   time.Duration
}

// FlashbackConfig holds persona provider settings.
type FlashbackConfig struct {
	// Bin is the flashback binary name or path.
	Bin string

	// Timeout bounds a single persona lookup.
	Timeout time.Duration
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Default returns a configuration populated from the environment with
// sensible fallbacks.
func Default() *Config {
	role := getEnv("AGENT_ROLE", "")

	return &Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Captain: CaptainConfig{
			AgentID:      getEnv("AGENT_ID", "captain-001"),
			PublishDelay: getEnvDuration("PUBLISH_DELAY", 1*time.Second),
			PlanPath:     getEnv("PLAN_PATH", ""),
		},
		Specialist: SpecialistConfig{
			Role:           role,
			AgentID:        getEnv("AGENT_ID", defaultAgentID(role)),
			Specialization: getEnv("SPECIALIST_TYPE", "general"),
			Persona:        getEnv("FLASHBACKER_PERSONA", role),
			PollInterval:   getEnvDuration("POLL_INTERVAL", 5*time.Second),
		},
		Flashback: FlashbackConfig{
			Bin:     getEnv("FLASHBACK_BIN", "flashback"),
			Timeout: getEnvDuration("FLASHBACK_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Addr returns the full Redis address.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ValidateSpecialist checks the settings a worker process needs to
// start. An unknown role must fail fast here, not mid-loop.
func (c *Config) ValidateSpecialist() error {
	if c.Specialist.Role == "" {
		return fmt.Errorf("AGENT_ROLE must be set for a specialist")
	}
	if c.Specialist.Specialization == "" {
		return fmt.Errorf("SPECIALIST_TYPE cannot be empty")
	}
	if c.Specialist.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	return c.validateCommon()
}

// ValidateCaptain checks the settings the dispatcher process needs.
func (c *Config) ValidateCaptain() error {
	if c.Captain.PublishDelay < 0 {
		return fmt.Errorf("publish delay cannot be negative")
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host cannot be empty")
	}
	if c.Redis.PoolSize < 1 {
		return fmt.Errorf("redis pool size must be at least 1")
	}
	return nil
}

func defaultAgentID(role string) string {
	if role == "" {
		return "specialist-001"
	}
	return role + "-001"
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
