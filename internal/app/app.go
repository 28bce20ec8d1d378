package app

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/consrope/internal/config"
	"github.com/dshills/consrope/internal/engine/rope"
	"github.com/dshills/consrope/internal/metrics"
	"github.com/dshills/consrope/internal/plugin/lua"
	"github.com/dshills/consrope/internal/runtime"
	"github.com/dshills/consrope/internal/store"
)

// Application owns the components built from one Config.
type Application struct {
	mu sync.Mutex

	config   *config.Config
	logger   *Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	concat   *rope.Concatenator

	store     store.Store
	ownsStore bool

	closed bool
}

// Option configures an Application.
type Option func(*Application)

// WithLogger sets the application logger.
func WithLogger(l *Logger) Option {
	return func(app *Application) {
		app.logger = l
	}
}

// WithRegistry sets the registry the rope metrics are registered with.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(app *Application) {
		app.registry = reg
	}
}

// WithStore supplies a store instead of opening the configured backend.
// The application does not close a supplied store.
func WithStore(s store.Store) Option {
	return func(app *Application) {
		app.store = s
	}
}

// New creates an Application from cfg. A nil cfg uses config.Default.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ComponentError{Component: "config", Action: "validate", Err: err}
	}

	app := &Application{config: cfg}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		lc := DefaultLoggerConfig()
		lc.Level = ParseLogLevel(cfg.Logging.Level)
		app.logger = NewLogger(lc)
	}
	if app.registry == nil {
		app.registry = prometheus.NewRegistry()
	}

	app.metrics = metrics.New(app.registry)
	app.concat = rope.NewConcatenator(
		rope.WithNodeCeiling(cfg.Rope.NodeCeiling),
		rope.WithMaxLength(cfg.Rope.MaxLength),
		rope.WithMaxFlattenBytes(cfg.Rope.MaxFlattenBytes),
		rope.WithObserver(app.metrics),
	)

	app.logger.Debug("application ready (nodeCeiling=%d, backend=%s)", cfg.Rope.NodeCeiling, cfg.Store.Backend)
	return app, nil
}

// Config returns the configuration the application was built from.
func (app *Application) Config() *config.Config {
	return app.config
}

// Logger returns the application logger.
func (app *Application) Logger() *Logger {
	return app.logger
}

// Concatenator returns the concatenator all components share.
func (app *Application) Concatenator() *rope.Concatenator {
	return app.concat
}

// Metrics returns the rope metrics collector.
func (app *Application) Metrics() *metrics.Collector {
	return app.metrics
}

// Registry returns the Prometheus registry holding the rope metrics.
func (app *Application) Registry() *prometheus.Registry {
	return app.registry
}

// Store returns the configured store, opening it on first use.
func (app *Application) Store() (store.Store, error) {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil, ErrClosed
	}
	if app.store != nil {
		return app.store, nil
	}

	s, err := store.Open(app.config.Store, app.logger.WithComponent("store"))
	if err != nil {
		return nil, &ComponentError{Component: "store", Action: "open", Err: err}
	}
	app.store = s
	app.ownsStore = true
	app.logger.Debug("store opened (backend=%s)", app.config.Store.Backend)
	return s, nil
}

// NewLuaState creates a sandboxed Lua state bound to the shared concatenator.
// The caller closes it.
func (app *Application) NewLuaState() (*lua.State, error) {
	if app.isClosed() {
		return nil, ErrClosed
	}
	return lua.NewState(
		lua.WithConcatenator(app.concat),
		lua.WithInstructionLimit(app.config.Script.InstructionLimit),
		lua.WithExecutionTimeout(app.config.Script.Timeout),
		lua.WithLogger(app.logger.WithComponent("lua")),
	)
}

// NewRuntime creates a Risor runtime bound to the shared concatenator.
func (app *Application) NewRuntime() *runtime.Runtime {
	return runtime.New(
		runtime.WithConcatenator(app.concat),
		runtime.WithTimeout(app.config.Script.Timeout),
		runtime.WithLogger(app.logger.WithComponent("runtime")),
	)
}

// ServeMetrics serves the registry on the configured address until ctx ends.
func (app *Application) ServeMetrics(ctx context.Context, addr string) error {
	if addr == "" {
		addr = app.config.Metrics.Addr
	}
	app.logger.Info("serving metrics on %s", addr)
	if err := metrics.Serve(ctx, addr, app.registry); err != nil {
		return &ComponentError{Component: "metrics", Action: "serve", Err: err}
	}
	return nil
}

// Close releases the store if the application opened it.
func (app *Application) Close() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.closed {
		return nil
	}
	app.closed = true

	if app.store != nil && app.ownsStore {
		if err := app.store.Close(); err != nil {
			return &ComponentError{Component: "store", Action: "close", Err: err}
		}
	}
	return nil
}

func (app *Application) isClosed() bool {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.closed
}
