package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/consrope/internal/engine/rope"
)

// ropeTypeName is the registry name of the rope metatable.
const ropeTypeName = "consrope.rope"

// openRopeLib installs the rope metatable and the global rope module.
func (s *State) openRopeLib() {
	L := s.L

	mt := L.NewTypeMetatable(ropeTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"len":          s.ropeLen,
		"byte":         s.ropeByte,
		"sub":          s.ropeSub,
		"flatten":      s.ropeFlatten,
		"materialized": s.ropeMaterialized,
		"nodes":        s.ropeNodes,
		"stats":        s.ropeStats,
	}))
	L.SetField(mt, "__concat", L.NewFunction(s.ropeConcat))
	L.SetField(mt, "__len", L.NewFunction(s.ropeLen))
	L.SetField(mt, "__tostring", L.NewFunction(s.ropeFlatten))
	L.SetField(mt, "__eq", L.NewFunction(s.ropeEq))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"new":     s.ropeNew,
		"concat":  s.ropeConcat,
		"join":    s.ropeJoin,
		"is_rope": s.ropeIsRope,
	})
	L.SetField(mod, "ceiling", lua.LNumber(s.concat.NodeCeiling()))
	L.SetGlobal("rope", mod)
}

// newRopeValue wraps v in a userdata carrying the rope metatable.
func (s *State) newRopeValue(v rope.StringLike) *lua.LUserData {
	ud := s.L.NewUserData()
	ud.Value = v
	s.L.SetMetatable(ud, s.L.GetTypeMetatable(ropeTypeName))
	return ud
}

// charge spends one unit of the call budget, raising when it is exhausted.
func (s *State) charge(L *lua.LState) {
	if s.sandbox.IncrementInstructions(1) {
		L.RaiseError("%s", ErrInstructionLimit.Error())
	}
}

// raise reports a rope error to the script and remembers it for Go callers.
func (s *State) raise(L *lua.LState, err error) {
	s.hostErr = err
	L.RaiseError("%s", err.Error())
}

// toStringLike converts a rope, string or number to a StringLike.
func toStringLike(lv lua.LValue) (rope.StringLike, bool) {
	switch v := lv.(type) {
	case *lua.LUserData:
		sl, ok := v.Value.(rope.StringLike)
		return sl, ok
	case lua.LString:
		return rope.Flat(v), true
	case lua.LNumber:
		return rope.Flat(v.String()), true
	}
	return nil, false
}

// checkRope returns the StringLike held by the userdata at argument n.
func checkRope(L *lua.LState, n int) rope.StringLike {
	ud := L.CheckUserData(n)
	sl, ok := ud.Value.(rope.StringLike)
	if !ok {
		L.ArgError(n, "rope expected")
		return nil
	}
	return sl
}

func statsOf(v rope.StringLike) rope.Stats {
	if r, ok := v.(*rope.Rope); ok {
		return r.Stats()
	}
	return rope.Stats{Len: v.Len(), Materialized: true}
}

// rope.new(...) concatenates its arguments; with none it returns an empty rope.
func (s *State) ropeNew(L *lua.LState) int {
	s.charge(L)
	b := rope.NewBuilder(s.concat)
	for i := 1; i <= L.GetTop(); i++ {
		sl, ok := toStringLike(L.Get(i))
		if !ok {
			L.ArgError(i, "string, number or rope expected")
			return 0
		}
		if err := b.Append(sl); err != nil {
			s.raise(L, err)
			return 0
		}
	}
	v, err := b.Build()
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(s.newRopeValue(v))
	return 1
}

// ropeConcat backs both the .. operator and rope.concat(a, b).
func (s *State) ropeConcat(L *lua.LState) int {
	s.charge(L)
	left, ok := toStringLike(L.Get(1))
	if !ok {
		L.RaiseError("attempt to concatenate a %s value", L.Get(1).Type())
		return 0
	}
	right, ok := toStringLike(L.Get(2))
	if !ok {
		L.RaiseError("attempt to concatenate a %s value", L.Get(2).Type())
		return 0
	}
	r, err := s.concat.Concat(left, right)
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(s.newRopeValue(r))
	return 1
}

// rope.join(list, sep)
func (s *State) ropeJoin(L *lua.LState) int {
	s.charge(L)
	list := L.CheckTable(1)
	sep := L.OptString(2, "")

	b := rope.NewBuilder(s.concat)
	n := list.Len()
	for i := 1; i <= n; i++ {
		if i > 1 && sep != "" {
			if err := b.Append(rope.Flat(sep)); err != nil {
				s.raise(L, err)
				return 0
			}
		}
		sl, ok := toStringLike(list.RawGetInt(i))
		if !ok {
			L.ArgError(1, "list of strings, numbers or ropes expected")
			return 0
		}
		if err := b.Append(sl); err != nil {
			s.raise(L, err)
			return 0
		}
	}
	v, err := b.Build()
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(s.newRopeValue(v))
	return 1
}

func (s *State) ropeIsRope(L *lua.LState) int {
	ud, ok := L.Get(1).(*lua.LUserData)
	if ok {
		_, ok = ud.Value.(rope.StringLike)
	}
	L.Push(lua.LBool(ok))
	return 1
}

func (s *State) ropeLen(L *lua.LState) int {
	L.Push(lua.LNumber(checkRope(L, 1).Len()))
	return 1
}

// position converts a 1-based, possibly negative Lua position to 0-based.
func position(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i - 1
}

// r:byte([i]) returns the byte at position i (default 1).
func (s *State) ropeByte(L *lua.LState) int {
	s.charge(L)
	v := checkRope(L, 1)
	i := position(L.OptInt(2, 1), v.Len())
	c, err := v.CharAt(i)
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(lua.LNumber(c))
	return 1
}

// r:sub(i [, j]) returns positions i through j inclusive as a string.
// An empty range yields ""; a start outside the value raises.
func (s *State) ropeSub(L *lua.LState) int {
	s.charge(L)
	v := checkRope(L, 1)
	n := v.Len()
	start := position(L.CheckInt(2), n)
	end := position(L.OptInt(3, -1), n) + 1
	if end < start {
		end = start
	}
	sub, err := v.SubSequence(start, end)
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(lua.LString(sub))
	return 1
}

// r:flatten() and tostring(r) return the full content.
func (s *State) ropeFlatten(L *lua.LState) int {
	s.charge(L)
	v := checkRope(L, 1)
	str, err := rope.Materialize(v)
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(lua.LString(str))
	return 1
}

func (s *State) ropeMaterialized(L *lua.LState) int {
	L.Push(lua.LBool(statsOf(checkRope(L, 1)).Materialized))
	return 1
}

func (s *State) ropeNodes(L *lua.LState) int {
	L.Push(lua.LNumber(statsOf(checkRope(L, 1)).Nodes))
	return 1
}

func (s *State) ropeStats(L *lua.LState) int {
	st := statsOf(checkRope(L, 1))
	t := L.NewTable()
	t.RawSetString("len", lua.LNumber(st.Len))
	t.RawSetString("nodes", lua.LNumber(st.Nodes))
	t.RawSetString("right_spine", lua.LNumber(st.RightSpine))
	t.RawSetString("materialized", lua.LBool(st.Materialized))
	L.Push(t)
	return 1
}

func (s *State) ropeEq(L *lua.LState) int {
	s.charge(L)
	a := checkRope(L, 1)
	b := checkRope(L, 2)
	eq, err := rope.Equal(a, b)
	if err != nil {
		s.raise(L, err)
		return 0
	}
	L.Push(lua.LBool(eq))
	return 1
}
