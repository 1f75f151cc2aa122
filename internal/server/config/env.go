package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a
// .env file from the working directory first when one exists. Unset or
// malformed variables leave the current value in place.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("ADDRESS"); v != "" {
		config.EndpointAddrHTTP = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		config.DatabaseDSN = v
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		config.SecretKey = v
	}
	if d, ok := envDuration("ACCESS_TOKEN_VALIDITY"); ok {
		config.AccessTokenValidityDuration = d
	}
	if d, ok := envDuration("LOCK_WAIT_TIMEOUT"); ok {
		config.LockWaitTimeout = d
	}
	if n, ok := envInt("WRITE_RETRY_BUDGET"); ok && n >= 0 {
		config.WriteRetryBudget = uint64(n)
	}
	if n, ok := envInt("DEFAULT_PAGE_SIZE"); ok && n > 0 {
		config.DefaultPageSize = n
	}
	if n, ok := envInt("MAX_PAGE_SIZE"); ok && n > 0 {
		config.MaxPageSize = n
	}
}

func envDuration(name string) (time.Duration, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
