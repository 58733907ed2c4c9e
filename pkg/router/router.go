package router

import (
	"strconv"
	"strings"

	"github.com/gdbrns/go-whatsapp-crm-gateway/pkg/env"
)

var (
	BaseURL         string
	CORSOrigin      string
	BodyLimit       string
	GZipLevel       int
	CacheTTLSeconds int
	CacheCapacity   int

	bodyLimitBytes int
)

func init() {
	BaseURL = normalizeBaseURL(env.GetEnvStringOrDefault("HTTP_BASE_URL", ""))

	// HTTP_CORS_ORIGIN: default "*" (allow all)
	CORSOrigin = env.GetEnvStringOrDefault("HTTP_CORS_ORIGIN", "*")

	// HTTP_BODY_LIMIT_SIZE: default "8M"
	BodyLimit = env.GetEnvStringOrDefault("HTTP_BODY_LIMIT_SIZE", "8M")
	bodyLimitBytes = parseBodyLimit(BodyLimit)

	// HTTP_GZIP_LEVEL: default 1
	GZipLevel = env.GetEnvIntOrDefault("HTTP_GZIP_LEVEL", 1)

	// HTTP_CACHE_TTL_SECONDS: default 5
	CacheTTLSeconds = env.GetEnvIntOrDefault("HTTP_CACHE_TTL_SECONDS", 5)

	// HTTP_CACHE_CAPACITY_KB: default 1000 (per-route response cache budget)
	CacheCapacity = env.GetEnvIntOrDefault("HTTP_CACHE_CAPACITY_KB", 1000)
}

// normalizeBaseURL reduces HTTP_BASE_URL to either "" or "/prefix" with no
// trailing slash, so route registration can concatenate it blindly.
func normalizeBaseURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" || raw == "/" {
		return ""
	}
	return "/" + strings.TrimLeft(raw, "/")
}

func BodyLimitBytes() int {
	return bodyLimitBytes
}

// parseBodyLimit accepts "8M" style sizes with K/M/G suffixes or a plain
// byte count. Anything unparseable or non-positive falls back to 8 MiB.
func parseBodyLimit(limit string) int {
	const defaultLimit = 8 << 20

	limit = strings.TrimSpace(strings.ToUpper(limit))
	if limit == "" {
		return defaultLimit
	}

	multiplier := 1
	if n := len(limit) - 1; n >= 0 {
		switch limit[n] {
		case 'K':
			multiplier = 1 << 10
			limit = limit[:n]
		case 'M':
			multiplier = 1 << 20
			limit = limit[:n]
		case 'G':
			multiplier = 1 << 30
			limit = limit[:n]
		}
	}

	value, err := strconv.Atoi(strings.TrimSpace(limit))
	if err != nil || value <= 0 {
		return defaultLimit
	}
	return value * multiplier
}
