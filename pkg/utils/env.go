package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetEnvTrimmed(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func GetEnvTrimmedOrDefault(key, defaultValue string) string {
	if value := GetEnvTrimmed(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvPositiveInt returns defaultValue unless key holds an integer > 0.
func GetEnvPositiveInt(key string, defaultValue int) int {
	parsed, err := strconv.Atoi(GetEnvTrimmed(key))
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

// GetEnvPositiveDuration returns defaultValue unless key holds a
// time.ParseDuration string greater than zero.
func GetEnvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	parsed, err := time.ParseDuration(GetEnvTrimmed(key))
	if err != nil || parsed <= 0 {
		return defaultValue
	}
	return parsed
}

// GetEnvBool returns defaultValue when key is unset or not a strconv.ParseBool value.
func GetEnvBool(key string, defaultValue bool) bool {
	parsed, err := strconv.ParseBool(GetEnvTrimmed(key))
	if err != nil {
		return defaultValue
	}
	return parsed
}
