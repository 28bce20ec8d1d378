// Package runtime embeds a Risor VM and exposes rope host functions to
// Risor scripts.
package runtime

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/dshills/consrope/internal/engine/rope"
)

// Logger is the logging surface scripts reach through the log global.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Runtime evaluates Risor scripts with the rope builtins installed.
// A Runtime holds no per-script state and is safe for concurrent use.
type Runtime struct {
	concat  *rope.Concatenator
	logger  Logger
	timeout time.Duration
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithConcatenator sets the Concatenator used by the rope builtins.
func WithConcatenator(c *rope.Concatenator) Option {
	return func(r *Runtime) {
		if c != nil {
			r.concat = c
		}
	}
}

// WithLogger routes the script log global to l.
func WithLogger(l Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// WithTimeout bounds each script run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// New creates a Runtime.
func New(opts ...Option) *Runtime {
	r := &Runtime{concat: rope.Default}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script file.
func (r *Runtime) RunScript(ctx context.Context, path string, extraGlobals map[string]any) (object.Object, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: loading script %s: %w", path, err)
	}
	return r.eval(ctx, string(src), path, extraGlobals)
}

// RunSource executes Risor source code directly.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) (object.Object, error) {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) (object.Object, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var opts []risor.Option
	for name, val := range r.buildGlobals(extraGlobals) {
		opts = append(opts, risor.WithGlobal(name, val))
	}

	result, err := risor.Eval(ctx, source, opts...)
	if err != nil {
		return nil, fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return result, nil
}

// buildGlobals constructs the full set of globals exposed to scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"rope":        makeRopeFn(r.concat),
		"concat":      makeConcatFn(r.concat),
		"rope_len":    makeLenFn(),
		"char_at":     makeCharAtFn(),
		"substr":      makeSubstrFn(),
		"materialize": makeMaterializeFn(),
		"flattened":   makeFlattenedFn(),
		"rope_nodes":  makeNodesFn(),
	}
	if r.logger != nil {
		globals["log"] = mustProxy(&logObject{logger: r.logger})
	}
	for k, v := range extra {
		globals[k] = v
	}
	return globals
}

// Format renders a script result for display. Rope results are materialized.
func Format(obj object.Object) (string, error) {
	if obj == nil {
		return "nil", nil
	}
	if sl, ok := unwrap(obj); ok {
		return rope.Materialize(sl)
	}
	if s, ok := obj.(*object.String); ok {
		return s.Value(), nil
	}
	return obj.Inspect(), nil
}

// Unwrap returns the rope value carried by a script result.
func Unwrap(obj object.Object) (rope.StringLike, bool) {
	return unwrap(obj)
}

// logObject provides log.info/warn/error methods for Risor scripts.
type logObject struct {
	logger Logger
}

func (l *logObject) Info(msg string) {
	l.logger.Info("%s", msg)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn("%s", msg)
}

func (l *logObject) Error(msg string) {
	l.logger.Error("%s", msg)
}

func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		panic(fmt.Sprintf("runtime: proxy error: %v", err))
	}
	return p
}
