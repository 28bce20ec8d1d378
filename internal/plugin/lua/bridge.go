package lua

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/consrope/internal/engine/rope"
)

// ToGoValue converts a Lua value to a Go value. Rope userdata converts to
// its StringLike; tables convert to []any or map[string]any.
func ToGoValue(lv lua.LValue) any {
	return toGoValue(lv, make(map[*lua.LTable]bool))
}

func toGoValue(lv lua.LValue, visited map[*lua.LTable]bool) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return tableToGo(v, visited)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

// tableToGo converts a sequence to a slice and anything else to a map.
func tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) any {
	n := t.Len()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		arr := make([]any, n)
		for i := 1; i <= n; i++ {
			arr[i-1] = toGoValue(t.RawGetInt(i), visited)
		}
		return arr
	}

	m := make(map[string]any, count)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGoValue(v, visited)
	})
	return m
}

// ToLuaValue converts a Go value to a Lua value. StringLike values other
// than plain strings become rope userdata.
func (s *State) ToLuaValue(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case rope.StringLike:
		return s.newRopeValue(val)
	case []any:
		t := s.L.NewTable()
		for _, e := range val {
			t.Append(s.ToLuaValue(e))
		}
		return t
	case map[string]any:
		t := s.L.NewTable()
		for k, e := range val {
			t.RawSetString(k, s.ToLuaValue(e))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprint(val))
	}
}

// Format renders a script result for display. Ropes are materialized.
func Format(lv lua.LValue) (string, error) {
	return format(ToGoValue(lv))
}

func format(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "nil", nil
	case rope.StringLike:
		return rope.Materialize(val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			s, err := format(e)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			s, err := format(val[k])
			if err != nil {
				return "", err
			}
			parts[i] = k + " = " + s
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	default:
		return fmt.Sprint(val), nil
	}
}
