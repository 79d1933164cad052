package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache in front of the report
// routes.  The cache is off when Enabled is false or Redis is unreachable.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // upper-case HTTP methods eligible for caching
	TTL          time.Duration
	KeyStrategy  string // route, method_route, route_query, method_route_query
	Prefix       string // key namespace; bookings invalidate everything under it
	MaxBodyBytes int
}

// LoadCacheConfig reads the CACHE_* variables.  Report rows change only when
// a booking commits, and a commit clears the prefix, so the default TTL is
// a backstop rather than the freshness bound.
func LoadCacheConfig() CacheConfig {
	ttl := envDur("CACHE_TTL", time.Minute)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      methodSet(envStr("CACHE_METHODS", "GET")),
		TTL:          ttl,
		KeyStrategy:  strings.ToLower(envStr("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:       strings.TrimSuffix(envStr("CACHE_PREFIX", "cache:reports"), ":"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func methodSet(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range splitList(strings.ToUpper(s)) {
		m[p] = true
	}
	return m
}
