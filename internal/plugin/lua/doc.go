// Package lua embeds a sandboxed gopher-lua runtime with rope bindings.
//
// Scripts get a global "rope" module. Rope values are userdata whose ".."
// operator builds a lazy concatenation instead of copying:
//
//	local acc = rope.new()
//	for i = 1, 5000 do
//	    acc = acc .. "line " .. i .. "\n"
//	end
//	return #acc, acc:materialized(), acc:sub(1, 4)
//
// Indexing follows Lua string conventions: positions are 1-based and
// negative positions count from the end. Unlike string.sub, positions
// outside the value raise an error instead of being clamped.
//
// # State
//
//	state, err := lua.NewState(
//	    lua.WithExecutionTimeout(5 * time.Second),
//	    lua.WithConcatenator(rope.NewConcatenator(rope.WithNodeCeiling(500))),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Close()
//
//	results, err := state.Eval(ctx, `return rope.new("a") .. "b"`)
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load, loadstring and require are removed.
//
// # Thread Safety
//
// gopher-lua's LState is not goroutine-safe. State serializes its own
// methods with a mutex; the rope values it hands out are safe to share.
package lua
