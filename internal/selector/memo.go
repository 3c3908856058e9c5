package selector

import (
	"reflect"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/normstate/internal/ir"
)

// memoEntry keeps the input maps alive while cached so their addresses
// cannot be reused by different maps.
type memoEntry[R any] struct {
	inputs []map[string]ir.IRObject
	output R
}

// Memoize wraps fn with a cache of size one keyed on the identity of the
// inner maps stored under the schema keys returned by keys. Calls whose inner
// maps are the ones of the previous call return the previous output without
// calling fn; any other combination recomputes and replaces it. Changes under
// other schema keys never recompute.
//
// keys is read on every call so relations defined after wrapping are seen.
// The wrapper is safe for concurrent use. fn must be pure.
func Memoize[R any](keys func() []string, fn func(ir.EntityMap) R) func(ir.EntityMap) R {
	cache, err := lru.New[string, memoEntry[R]](1)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return func(entities ir.EntityMap) R {
		id, inputs := identity(entities, keys())
		if e, ok := cache.Get(id); ok {
			return e.output
		}
		out := fn(entities)
		cache.Add(id, memoEntry[R]{inputs: inputs, output: out})
		return out
	}
}

// identity joins the addresses of the inner maps under keys, 0 for a missing
// one.
func identity(entities ir.EntityMap, keys []string) (string, []map[string]ir.IRObject) {
	inputs := make([]map[string]ir.IRObject, len(keys))
	buf := make([]byte, 0, len(keys)*24)
	for i, k := range keys {
		inner := entities[k]
		inputs[i] = inner
		var addr uintptr
		if inner != nil {
			addr = uintptr(reflect.ValueOf(inner).UnsafePointer())
		}
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = strconv.AppendUint(buf, uint64(addr), 16)
		buf = append(buf, ';')
	}
	return string(buf), inputs
}
