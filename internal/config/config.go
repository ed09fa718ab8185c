package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"velvethour/internal/model"
)

// Allowed ranges for admin-supplied session config.
const (
	MinRoundDurationSec = 30
	MaxRoundDurationSec = 3600
	MinBreakDurationSec = 10
	MaxBreakDurationSec = 1800
	MinTotalRounds      = 1
	MaxTotalRounds      = 10
)

type Config struct {
	MongoURI      string
	MongoDB       string
	RedisAddr     string
	HTTPPort      string
	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// HeartbeatTimeout is how long a connection may go without any traffic
	// before the hub treats it as dead.
	HeartbeatTimeout time.Duration

	// DefaultSession seeds the config of every newly started session.
	DefaultSession model.SessionConfig
}

func Load() *Config {
	godotenv.Load()

	return &Config{
		MongoURI:         getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getEnv("MONGO_DB", "velvethour"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:         getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminUsername:    getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:    getEnv("ADMIN_PASSWORD", "password123"),
		HeartbeatTimeout: time.Duration(getEnvInt("HEARTBEAT_TIMEOUT_SEC", 45)) * time.Second,
		DefaultSession: model.SessionConfig{
			RoundDurationSec: getEnvInt("ROUND_DURATION_SEC", 600),
			BreakDurationSec: getEnvInt("BREAK_DURATION_SEC", 300),
			TotalRounds:      getEnvInt("TOTAL_ROUNDS", 4),
		},
	}
}

// ValidateSessionConfig checks admin-supplied config against the allowed
// numeric ranges.
func ValidateSessionConfig(c model.SessionConfig) error {
	if c.RoundDurationSec < MinRoundDurationSec || c.RoundDurationSec > MaxRoundDurationSec {
		return fmt.Errorf("roundDurationSec must be between %d and %d", MinRoundDurationSec, MaxRoundDurationSec)
	}
	if c.BreakDurationSec < MinBreakDurationSec || c.BreakDurationSec > MaxBreakDurationSec {
		return fmt.Errorf("breakDurationSec must be between %d and %d", MinBreakDurationSec, MaxBreakDurationSec)
	}
	if c.TotalRounds < MinTotalRounds || c.TotalRounds > MaxTotalRounds {
		return fmt.Errorf("totalRounds must be between %d and %d", MinTotalRounds, MaxTotalRounds)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
