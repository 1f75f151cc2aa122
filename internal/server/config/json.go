package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/prompta-dev/prompta-server/internal/flagx"
	"github.com/prompta-dev/prompta-server/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Duration fields use timex.Duration, which accepts both string values
// such as "5s" and integer nanoseconds. After unmarshalling, non-zero fields
// are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LockWaitTimeout             timex.Duration `json:"lock_wait_timeout"`
	WriteRetryBudget            *uint64        `json:"write_retry_budget"`
	DefaultPageSize             int            `json:"default_page_size"`
	MaxPageSize                 int            `json:"max_page_size"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no file is loaded. An unreadable or invalid
// file panics, since running with a half-applied config is worse than not
// starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	}
	if c.LockWaitTimeout.Duration != 0 {
		config.LockWaitTimeout = time.Duration(c.LockWaitTimeout.Duration)
	}
	if c.WriteRetryBudget != nil {
		config.WriteRetryBudget = *c.WriteRetryBudget
	}
	if c.DefaultPageSize > 0 {
		config.DefaultPageSize = c.DefaultPageSize
	}
	if c.MaxPageSize > 0 {
		config.MaxPageSize = c.MaxPageSize
	}
}
