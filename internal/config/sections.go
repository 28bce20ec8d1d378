package config

import "time"

// RopeConfig holds the construction limits of the default Concatenator.
type RopeConfig struct {
	// NodeCeiling is the lazy node count above which construction flattens eagerly.
	NodeCeiling int

	// MaxLength is the largest length a concatenation may produce.
	MaxLength int

	// MaxFlattenBytes caps a single flatten allocation. Zero disables the cap.
	MaxFlattenBytes int
}

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
}

// Store backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// StoreConfig selects where materialized values are persisted.
type StoreConfig struct {
	// Backend is one of "sqlite", "badger", "memory".
	Backend string

	// Path is the database file (sqlite) or directory (badger).
	// Empty runs badger in memory.
	Path string
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// ScriptConfig bounds embedded script execution.
type ScriptConfig struct {
	// InstructionLimit caps Lua instructions per call. Zero means unlimited.
	InstructionLimit int64

	// Timeout bounds a whole script run.
	Timeout time.Duration
}
