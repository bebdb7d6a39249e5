package types

import (
	"time"
)

// Config holds all configuration for the autocomplete service.
type Config struct {
	Server    ServerConfig    `json:"server"`
	Redis     RedisConfig     `json:"redis"`
	AuthStore AuthStoreConfig `json:"auth_store"`
	Query     QueryConfig     `json:"query"`
	Log       LogConfig       `json:"log"`
	Audit     AuditConfig     `json:"audit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// RedisConfig holds connection parameters for the Redis-backed index store.
// Backend is "redis" or "memory"; "memory" is the zero-dependency fallback
// used by tests and single-process deployments.
type RedisConfig struct {
	Backend  string `json:"backend"` // redis, memory
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// AuthStoreConfig holds the Pebble-backed auth-key table location.
type AuthStoreConfig struct {
	DataDir    string `json:"data_dir"`
	SyncWrites bool   `json:"sync_writes"`
	CacheSize  int64  `json:"cache_size"` // Pebble cache size in bytes
}

// QueryConfig holds query engine tuning knobs.
type QueryConfig struct {
	// DefaultMaxResults is used when the client's n is absent or <= 0.
	DefaultMaxResults int `json:"default_max_results"`
	// MaxResultsCap bounds even an explicit n (recommended cap of 100).
	MaxResultsCap int `json:"max_results_cap"`
	// PostingFetchLimit is LARGE from §4.4: how many entries of a posting
	// list are fetched before intersecting across terms.
	PostingFetchLimit int `json:"posting_fetch_limit"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // stdout, stderr, file path
}

// AuditConfig controls the fire-and-forget activity log.
type AuditConfig struct {
	// EventsDir holds the audit.jsonl file. Empty disables the sink.
	EventsDir string `json:"events_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			Backend: "memory",
			Addr:    "localhost:6379",
			DB:      8,
		},
		AuthStore: AuthStoreConfig{
			DataDir:    "./data/auth",
			SyncWrites: false,
			CacheSize:  32 << 20, // 32 MB
		},
		Query: QueryConfig{
			DefaultMaxResults: 10,
			MaxResultsCap:     100,
			PostingFetchLimit: 1000,
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stdout",
		},
		Audit: AuditConfig{
			EventsDir: "./data/audit",
		},
	}
}
