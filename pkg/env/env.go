package env

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

// Core getters. An unset or blank variable is an error; the OrDefault
// variants below turn that into a fallback value. Values are read live so
// tests can drive them with t.Setenv.

func GetEnvString(envName string) (string, error) {
	if envName == "" {
		return "", errors.New("environment variable name is empty")
	}

	v := strings.TrimSpace(os.Getenv(envName))
	if v == "" {
		return "", errors.New("environment variable '" + envName + "' has an empty value")
	}
	return v, nil
}

func GetEnvBool(envName string) (bool, error) {
	v, err := GetEnvString(envName)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(v)
}

func GetEnvInt(envName string) (int, error) {
	v, err := GetEnvString(envName)
	if err != nil {
		return 0, err
	}

	parsed, err := strconv.ParseInt(v, 0, 0)
	if err != nil {
		return 0, err
	}
	return int(parsed), nil
}

// MustGetEnvString panics when the variable is missing, for secrets the
// process cannot run without.
func MustGetEnvString(envName string) string {
	v, err := GetEnvString(envName)
	if err != nil {
		panic(fmt.Sprintf("REQUIRED environment variable missing or empty: %s", envName))
	}
	return v
}

// Defaulted variants for optional config.

func GetEnvStringOrDefault(envName, defaultValue string) string {
	if v, err := GetEnvString(envName); err == nil {
		return v
	}
	return defaultValue
}

func GetEnvBoolOrDefault(envName string, defaultValue bool) bool {
	if v, err := GetEnvBool(envName); err == nil {
		return v
	}
	return defaultValue
}

func GetEnvIntOrDefault(envName string, defaultValue int) int {
	if v, err := GetEnvInt(envName); err == nil {
		return v
	}
	return defaultValue
}

// GetEnvIntOrDefaultMin returns the env value or a default, clamped to a floor.
func GetEnvIntOrDefaultMin(envName string, defaultValue int, min int) int {
	v := GetEnvIntOrDefault(envName, defaultValue)
	if v < min {
		return min
	}
	return v
}

// GetEnvDurationOrDefault parses time.ParseDuration syntax. Negative values
// count as misconfiguration and fall back to the default.
func GetEnvDurationOrDefault(envName string, defaultValue time.Duration) time.Duration {
	v, err := GetEnvString(envName)
	if err != nil {
		return defaultValue
	}

	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return defaultValue
	}
	return d
}
