package config

import (
    "os"
    "strconv"
    "time"
)

// CacheConfig defines settings for the catalog cache.  When Enabled is
// false or no Redis client is configured, movie and schedule listings
// are always read from MySQL.  TTL bounds how long a listing may be
// served after the catalog changes; Prefix namespaces the keys.
type CacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled: envBool("CACHE_ENABLED", true),
        TTL:     parseDur(getenv("CACHE_TTL", "60s")),
        Prefix:  getenv("CACHE_PREFIX", "catalog"),
    }
}

// Helper functions shared by the loaders in this package
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Minute
    }
    return d
}
