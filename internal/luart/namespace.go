package luart

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dokzlo13/scriptd/internal/loader"
)

// tableNamespace adapts a Lua table to the verifier's Namespace interface.
// Must only be walked on the Lua worker goroutine.
type tableNamespace struct {
	tbl *lua.LTable
}

// Lookup implements loader.Namespace. A Lua nil is an absent key; nested
// tables keep the walk going; any other value is a defined leaf.
func (n tableNamespace) Lookup(key string) (any, bool) {
	v := n.tbl.RawGetString(key)
	if v == lua.LNil {
		return nil, false
	}
	if tbl, ok := v.(*lua.LTable); ok {
		return tableNamespace{tbl: tbl}, true
	}
	return v, true
}

// Globals returns the LState's global table as a verifier namespace.
func Globals(L *lua.LState) loader.Namespace {
	return tableNamespace{tbl: L.G.Global}
}
