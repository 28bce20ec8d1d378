package lua

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/consrope/internal/engine/rope"
)

// Default limits for Lua state.
const (
	DefaultExecutionTimeout = 5 * time.Second
	DefaultInstructionLimit = 10_000_000
)

// Logger is the logging surface the Lua runtime uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}

// State wraps gopher-lua with the rope module installed.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe. The mutex in this
// struct serializes calls from Go; Lua code itself runs single-threaded.
type State struct {
	L *lua.LState

	mu sync.Mutex

	executionTimeout time.Duration
	instructionLimit int64
	concat           *rope.Concatenator
	logger           Logger

	sandbox *Sandbox

	// hostErr is the last Go error raised into Lua by a rope function.
	hostErr error

	closed bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout bounds each DoString, DoFile, Eval and Call.
// Zero disables the bound.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.executionTimeout = d
	}
}

// WithInstructionLimit sets the host call budget per execution.
func WithInstructionLimit(limit int64) StateOption {
	return func(s *State) {
		s.instructionLimit = limit
	}
}

// WithConcatenator sets the Concatenator used by the rope module.
func WithConcatenator(c *rope.Concatenator) StateOption {
	return func(s *State) {
		if c != nil {
			s.concat = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) StateOption {
	return func(s *State) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewState creates a new sandboxed Lua state with the rope module.
func NewState(opts ...StateOption) (*State, error) {
	state := &State{
		executionTimeout: DefaultExecutionTimeout,
		instructionLimit: DefaultInstructionLimit,
		concat:           rope.Default,
		logger:           nopLogger{},
	}
	for _, opt := range opts {
		opt(state)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})
	state.L = L

	openSafeLibraries(L)

	state.sandbox = NewSandbox(L, state.instructionLimit)
	state.sandbox.Install()

	state.openRopeLib()

	return state, nil
}

// openSafeLibraries opens only safe Lua standard libraries.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug and package stay closed.
}

// DoFile executes a Lua file.
func (s *State) DoFile(ctx context.Context, path string) error {
	_, err := s.run(ctx, func() (int, error) {
		fn, err := s.L.LoadFile(path)
		if err != nil {
			return 0, err
		}
		s.L.Push(fn)
		return 0, s.L.PCall(0, 0, nil)
	})
	return err
}

// DoString executes a Lua chunk.
func (s *State) DoString(ctx context.Context, code string) error {
	_, err := s.run(ctx, func() (int, error) {
		return 0, s.L.DoString(code)
	})
	return err
}

// Eval executes a Lua chunk and returns the values it returns.
// Returns an empty slice (not nil) if the chunk returns nothing.
func (s *State) Eval(ctx context.Context, code string) ([]lua.LValue, error) {
	return s.run(ctx, func() (int, error) {
		fn, err := s.L.LoadString(code)
		if err != nil {
			return 0, err
		}
		base := s.L.GetTop()
		s.L.Push(fn)
		if err := s.L.PCall(0, lua.MultRet, nil); err != nil {
			return 0, err
		}
		return s.L.GetTop() - base, nil
	})
}

// Call calls a global Lua function with the given arguments.
// Returns an empty slice (not nil) if the function returns no values.
func (s *State) Call(ctx context.Context, fn string, args ...lua.LValue) ([]lua.LValue, error) {
	return s.run(ctx, func() (int, error) {
		fnVal := s.L.GetGlobal(fn)
		if fnVal.Type() != lua.LTFunction {
			return 0, fmt.Errorf("%q is not a function (got %s)", fn, fnVal.Type())
		}
		base := s.L.GetTop()
		s.L.Push(fnVal)
		for _, arg := range args {
			s.L.Push(arg)
		}
		if err := s.L.PCall(len(args), lua.MultRet, nil); err != nil {
			return 0, err
		}
		return s.L.GetTop() - base, nil
	})
}

// run executes fn under the lock with the timeout, the call budget and
// panic recovery in place. fn reports how many results it left on the stack.
func (s *State) run(ctx context.Context, fn func() (int, error)) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	if s.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.executionTimeout)
		defer cancel()
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	s.sandbox.ResetInstructionCount()
	s.hostErr = nil
	top := s.L.GetTop()

	var nRet int
	err := s.doWithRecovery(func() error {
		var err error
		nRet, err = fn()
		return err
	})
	if err != nil {
		s.L.SetTop(top)
		return nil, s.classify(ctx, err)
	}

	results := make([]lua.LValue, 0, nRet)
	for i := top + 1; i <= top+nRet; i++ {
		results = append(results, s.L.Get(i))
	}
	s.L.SetTop(top)
	return results, nil
}

// doWithRecovery executes a function with panic recovery.
func (s *State) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// classify maps a Lua error back to the Go error that caused it, when known.
func (s *State) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	case s.sandbox.Exceeded():
		return fmt.Errorf("%w: %v", ErrInstructionLimit, err)
	case s.hostErr != nil && strings.Contains(err.Error(), s.hostErr.Error()):
		return fmt.Errorf("%w: %v", s.hostErr, err)
	}
	return err
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// SetRope exposes v to scripts as the global name.
func (s *State) SetRope(name string, v rope.StringLike) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.newRopeValue(v))
}

// Sandbox returns the sandbox.
func (s *State) Sandbox() *Sandbox {
	return s.sandbox
}

// IsClosed returns true if the state has been closed.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases all resources associated with the Lua state.
// After Close is called, all other methods will return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
