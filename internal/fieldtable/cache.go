package fieldtable

import (
	"reflect"
	"sync"
)

type cacheKey struct {
	t   reflect.Type
	tag string
}

// cache maps cacheKey to *Table. Builds may race; the first stored table
// wins and the others are discarded, which is harmless because builds are
// deterministic.
var cache sync.Map

// Of returns the cached table for t under tag, building it on first use.
// Failed builds are not cached.
func Of(t reflect.Type, tag string, nested NestedFunc) (*Table, error) {
	tbl, _, err := Load(t, tag, nested)
	return tbl, err
}

// Load is Of that also reports whether this call ran the build, and so
// emitted the table's exclusion diagnostics.
func Load(t reflect.Type, tag string, nested NestedFunc) (tbl *Table, built bool, err error) {
	key := cacheKey{t: t, tag: tag}
	if v, ok := cache.Load(key); ok {
		return v.(*Table), false, nil
	}
	tbl, err = build(t, tag, nested)
	if err != nil {
		return nil, true, err
	}
	actual, _ := cache.LoadOrStore(key, tbl)
	return actual.(*Table), true, nil
}
