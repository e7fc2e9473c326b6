// Package config loads the function's settings from the environment and
// resolves the target table name from SSM Parameter Store.
//
// Environment values are read once at cold start. A `.env` file in the
// working directory is loaded first when present, which is only useful for
// local runs.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const DefaultTableNameParam = "/demo-app/dynamodb/table-name"

// DefaultTTLDays applies when TTL_DAYS is unset.
const DefaultTTLDays = 30

// MaxTTLDays caps TTL_DAYS at one hundred years.
const MaxTTLDays = 36500

// Config is the process-wide configuration. It is read-only after Load.
type Config struct {
	// TableNameParam is the SSM parameter holding the table name.
	TableNameParam string `koanf:"table_name_param" validate:"required"`
	// TableName skips the SSM lookup when set.
	TableName string `koanf:"table_name"`

	TTLDays      int `koanf:"ttl_days" validate:"gt=0,lte=36500"`
	DefaultLimit int `koanf:"default_limit" validate:"gt=0"`
	MaxLimit     int `koanf:"max_limit" validate:"gtefield=DefaultLimit"`

	StoreTimeout     time.Duration `koanf:"store_timeout" validate:"gt=0"`
	StoreMaxAttempts int           `koanf:"store_max_attempts" validate:"gt=0"`

	LogLevel string `koanf:"log_level" validate:"oneof=trace debug info warn error"`
	Stage    string `koanf:"stage"`
}

// Default returns the configuration used for every unset variable.
func Default() Config {
	return Config{
		TableNameParam:   DefaultTableNameParam,
		TTLDays:          DefaultTTLDays,
		DefaultLimit:     20,
		MaxLimit:         100,
		StoreTimeout:     5 * time.Second,
		StoreMaxAttempts: 3,
		LogLevel:         "info",
		Stage:            "dev",
	}
}

// known maps environment variables to config keys. Anything else in the
// environment is ignored.
var known = map[string]string{
	"TABLE_NAME_PARAM":   "table_name_param",
	"TABLE_NAME":         "table_name",
	"TTL_DAYS":           "ttl_days",
	"DEFAULT_LIMIT":      "default_limit",
	"MAX_LIMIT":          "max_limit",
	"STORE_TIMEOUT":      "store_timeout",
	"STORE_MAX_ATTEMPTS": "store_max_attempts",
	"LOG_LEVEL":          "log_level",
	"STAGE":              "stage",
}

// Load reads the environment over Default and validates the result. An
// unset or empty variable keeps its default; a set but invalid one (for
// example TTL_DAYS=0 or TTL_DAYS=ten) is an error.
func Load() (Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		name, ok := known[key]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return name, strings.TrimSpace(value)
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode environment: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ClampLimit applies the list limit policy to a requested value: a missing
// or non-positive request gets DefaultLimit, anything above MaxLimit is
// clamped.
func (c Config) ClampLimit(requested int) int {
	switch {
	case requested <= 0:
		return c.DefaultLimit
	case requested > c.MaxLimit:
		return c.MaxLimit
	default:
		return requested
	}
}
