package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/consrope/internal/config/loader"
	"github.com/dshills/consrope/internal/engine/rope"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "CONSROPE_"

// Config is the resolved consrope configuration.
type Config struct {
	Rope    RopeConfig
	Logging LoggingConfig
	Store   StoreConfig
	Metrics MetricsConfig
	Script  ScriptConfig
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Rope: RopeConfig{
			NodeCeiling: rope.DefaultNodeCeiling,
			MaxLength:   rope.DefaultMaxLength,
		},
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{Backend: BackendMemory},
		Metrics: MetricsConfig{Addr: ":9090"},
		Script: ScriptConfig{
			InstructionLimit: 10_000_000,
			Timeout:          30 * time.Second,
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs        loader.FileSystem
	envPrefix string
	env       bool
}

// WithFileSystem reads the config file through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnvPrefix changes the prefix scanned for unmapped environment variables.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithoutEnv skips the environment layer.
func WithoutEnv() Option {
	return func(o *options) {
		o.env = false
	}
}

// Load resolves the configuration from defaults, the file at path (if any)
// and the environment, in that order, and validates the result.
// An empty path or a missing file skips the file layer.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{
		fs:        loader.DefaultFS(),
		envPrefix: DefaultEnvPrefix,
		env:       true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	merged := make(map[string]any)
	if path != "" {
		data, err := loader.ForPath(o.fs, path).Load()
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		merged = loader.DeepMerge(merged, data)
	}
	if o.env {
		data, err := loader.NewEnvLoader(o.envPrefix).Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, data)
	}

	cfg, err := FromMap(merged)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap applies a nested settings map over the defaults.
// It does not validate ranges; call Validate for that.
func FromMap(data map[string]any) (*Config, error) {
	cfg := Default()
	flat := make(map[string]any)
	flatten("", data, flat)

	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var errs []error
	for _, p := range paths {
		set, ok := settings[p]
		if !ok {
			errs = append(errs, &ValidationError{
				Path:    p,
				Message: "unknown setting",
				Value:   flat[p],
				Code:    ErrCodeUnknownSetting,
			})
			continue
		}
		if err := set(cfg, p, flat[p]); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations. All failures are reported,
// each as a *ValidationError.
func (c *Config) Validate() error {
	var errs []error
	fail := func(path, msg string, v any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: v, Code: code})
	}

	if c.Rope.NodeCeiling < 1 {
		fail("rope.nodeCeiling", "must be at least 1", c.Rope.NodeCeiling, ErrCodeOutOfRange)
	}
	if c.Rope.MaxLength < 0 {
		fail("rope.maxLength", "must not be negative", c.Rope.MaxLength, ErrCodeOutOfRange)
	}
	if c.Rope.MaxFlattenBytes < 0 {
		fail("rope.maxFlattenBytes", "must not be negative", c.Rope.MaxFlattenBytes, ErrCodeOutOfRange)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		fail("logging.level", "must be one of debug, info, warn, error", c.Logging.Level, ErrCodeInvalidEnum)
	}

	switch c.Store.Backend {
	case BackendMemory, BackendBadger:
	case BackendSQLite:
		if c.Store.Path == "" {
			fail("store.path", "required for the sqlite backend", c.Store.Path, ErrCodeRequiredMissing)
		}
	default:
		fail("store.backend", "must be one of sqlite, badger, memory", c.Store.Backend, ErrCodeInvalidEnum)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		fail("metrics.addr", "required when metrics are enabled", c.Metrics.Addr, ErrCodeRequiredMissing)
	}

	if c.Script.InstructionLimit < 0 {
		fail("script.instructionLimit", "must not be negative", c.Script.InstructionLimit, ErrCodeOutOfRange)
	}
	if c.Script.Timeout < 0 {
		fail("script.timeout", "must not be negative", c.Script.Timeout, ErrCodeOutOfRange)
	}

	return errors.Join(errs...)
}

type setter func(c *Config, path string, v any) error

var settings = map[string]setter{
	"rope.nodeCeiling":        intSetting(func(c *Config) *int { return &c.Rope.NodeCeiling }),
	"rope.maxLength":          intSetting(func(c *Config) *int { return &c.Rope.MaxLength }),
	"rope.maxFlattenBytes":    intSetting(func(c *Config) *int { return &c.Rope.MaxFlattenBytes }),
	"logging.level":           stringSetting(func(c *Config) *string { return &c.Logging.Level }),
	"store.backend":           stringSetting(func(c *Config) *string { return &c.Store.Backend }),
	"store.path":              stringSetting(func(c *Config) *string { return &c.Store.Path }),
	"metrics.enabled":         boolSetting(func(c *Config) *bool { return &c.Metrics.Enabled }),
	"metrics.addr":            stringSetting(func(c *Config) *string { return &c.Metrics.Addr }),
	"script.instructionLimit": int64Setting(func(c *Config) *int64 { return &c.Script.InstructionLimit }),
	"script.timeout":          durationSetting(func(c *Config) *time.Duration { return &c.Script.Timeout }),
}

func flatten(prefix string, data map[string]any, out map[string]any) {
	for k, v := range data {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok {
			flatten(path, m, out)
			continue
		}
		out[path] = v
	}
}

func intSetting(field func(*Config) *int) setter {
	return func(c *Config, path string, v any) error {
		n, err := toInt64(path, v)
		if err != nil {
			return err
		}
		if n > math.MaxInt || n < math.MinInt {
			return &ValidationError{Path: path, Message: "overflows int", Value: v, Code: ErrCodeOutOfRange}
		}
		*field(c) = int(n)
		return nil
	}
}

func int64Setting(field func(*Config) *int64) setter {
	return func(c *Config, path string, v any) error {
		n, err := toInt64(path, v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func stringSetting(field func(*Config) *string) setter {
	return func(c *Config, path string, v any) error {
		s, ok := v.(string)
		if !ok {
			return &TypeError{Path: path, Expected: "string", Actual: fmt.Sprintf("%T", v)}
		}
		*field(c) = s
		return nil
	}
}

func boolSetting(field func(*Config) *bool) setter {
	return func(c *Config, path string, v any) error {
		switch b := v.(type) {
		case bool:
			*field(c) = b
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return &TypeError{Path: path, Expected: "bool", Actual: strconv.Quote(b)}
			}
			*field(c) = parsed
		default:
			return &TypeError{Path: path, Expected: "bool", Actual: fmt.Sprintf("%T", v)}
		}
		return nil
	}
}

func durationSetting(field func(*Config) *time.Duration) setter {
	return func(c *Config, path string, v any) error {
		switch d := v.(type) {
		case time.Duration:
			*field(c) = d
		case string:
			parsed, err := time.ParseDuration(d)
			if err != nil {
				return &TypeError{Path: path, Expected: "duration", Actual: strconv.Quote(d)}
			}
			*field(c) = parsed
		default:
			return &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%T", v)}
		}
		return nil
	}
}

// toInt64 accepts the integer shapes produced by the TOML, YAML and env loaders.
func toInt64(path string, v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, &ValidationError{Path: path, Message: "overflows int64", Value: v, Code: ErrCodeOutOfRange}
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, &TypeError{Path: path, Expected: "integer", Actual: strconv.FormatFloat(n, 'g', -1, 64)}
		}
		return int64(n), nil
	default:
		return 0, &TypeError{Path: path, Expected: "integer", Actual: fmt.Sprintf("%T", v)}
	}
}
