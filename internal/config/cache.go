package config

import (
	"net/http"
	"strings"
	"time"
)

// CacheConfig configures the Redis response cache in front of the facility
// catalog.  The cache is off when Enabled is false or Redis is unreachable.
// KeyStrategy is one of route, route_query, method_route and
// method_route_query.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.  Only safe methods can be
// cached; anything else listed in CACHE_METHODS is ignored.  A TTL below one
// second or above one hour is clamped.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", http.MethodGet)),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	switch {
	case cfg.TTL < time.Second:
		cfg.TTL = time.Second
	case cfg.TTL > time.Hour:
		cfg.TTL = time.Hour
	}
	if cfg.MaxBodyBytes < 1 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return cfg
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		switch p = strings.TrimSpace(strings.ToUpper(p)); p {
		case http.MethodGet, http.MethodHead:
			m[p] = true
		}
	}
	return m
}
