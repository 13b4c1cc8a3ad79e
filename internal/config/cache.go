package config

import "time"

// CacheConfig defines settings for the skill listing cache.  When Enabled is
// false or no Redis client is configured, listings always hit MySQL.  TTL
// bounds how long a cached listing may be served; Prefix namespaces the keys
// so several deployments can share one Redis database.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
func LoadCacheConfig() CacheConfig {
	cfg := CacheConfig{
		Enabled: envBool("CACHE_ENABLED", true),
		TTL:     envDur("CACHE_TTL", 30*time.Second),
		Prefix:  envStr("CACHE_PREFIX", "cache"),
	}
	if cfg.TTL <= 0 {
		cfg.Enabled = false
	}
	return cfg
}
