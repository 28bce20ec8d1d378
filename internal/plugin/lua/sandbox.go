package lua

import (
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts Lua execution to safe operations and meters calls into
// host functions.
type Sandbox struct {
	L *lua.LState

	// Instruction limiting. gopher-lua has no per-opcode hook, so the
	// budget is charged once per host call.
	instructionLimit int64
	instructionCount atomic.Int64
}

// NewSandbox creates a new sandbox for the Lua state.
func NewSandbox(L *lua.LState, instructionLimit int64) *Sandbox {
	return &Sandbox{
		L:                L,
		instructionLimit: instructionLimit,
	}
}

// Install removes globals that can load code from outside the script.
func (s *Sandbox) Install() {
	for _, name := range []string{
		"dofile",
		"loadfile",
		"load",
		"loadstring",
		"require",
		"module",
	} {
		s.L.SetGlobal(name, lua.LNil)
	}
}

// ResetInstructionCount resets the instruction counter.
func (s *Sandbox) ResetInstructionCount() {
	s.instructionCount.Store(0)
}

// InstructionCount returns the current instruction count.
func (s *Sandbox) InstructionCount() int64 {
	return s.instructionCount.Load()
}

// IncrementInstructions adds to the instruction count and returns true if limit exceeded.
func (s *Sandbox) IncrementInstructions(n int64) bool {
	count := s.instructionCount.Add(n)
	return s.instructionLimit > 0 && count > s.instructionLimit
}

// Exceeded reports whether the budget has been used up.
func (s *Sandbox) Exceeded() bool {
	return s.instructionLimit > 0 && s.instructionCount.Load() > s.instructionLimit
}
