package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvDevelopment is the default deployment environment. Anything else is
// treated as production-grade and must supply its own secrets.
const EnvDevelopment = "development"

// Config captures process-level configuration so main stays lean. Values come
// from the environment with development defaults.
type Config struct {
	Addr          string
	Environment   string
	PostgresURL   string
	RedisURL      string
	JWTSigningKey string

	// ConsensusThreshold is the number of independent CONFIRM votes that
	// auto-verify a report. Municipality policy, not business logic.
	ConsensusThreshold int

	// SubmitLimitPerDay caps report submissions per user per day. Zero
	// disables the limiter.
	SubmitLimitPerDay int

	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables. Outside the
// development environment a missing JWT_SIGNING_KEY is an error: a process
// must never fall back to a publicly known signing key in production.
func FromEnv() (Config, error) {
	addr := os.Getenv("CIVICTRUST_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	environment := os.Getenv("CIVICTRUST_ENV")
	if environment == "" {
		environment = EnvDevelopment
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		if environment != EnvDevelopment {
			return Config{}, fmt.Errorf("JWT_SIGNING_KEY must be set when CIVICTRUST_ENV is %q", environment)
		}
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Config{
		Addr:               addr,
		Environment:        environment,
		PostgresURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSigningKey:      jwtSigningKey,
		ConsensusThreshold: intFromEnv("CONSENSUS_THRESHOLD", 2),
		SubmitLimitPerDay:  intFromEnv("SUBMIT_LIMIT_PER_DAY", 10),
		ShutdownTimeout:    10 * time.Second,
	}, nil
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
