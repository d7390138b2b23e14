package lens

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/reclens/codec"
	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
)

// Map is the type-erased form of a lens: a record type paired with a
// partial mapping from Go field name to value.
//
// A value is nil (explicitly null), a value of the field's type, a nested
// Map for a nested record field, or a full nested record instance. Keys that
// are absent are not mentioned at all; use Has or Get to tell the two apart.
//
// Maps are immutable. The zero Map has no record type and no keys.
type Map struct {
	t reflect.Type
	m map[string]any
}

// Lens is a Map whose record type is known statically.
//
// The zero Lens is the empty lens for T.
type Lens[T any] struct {
	m Map
}

// table resolves the field table for t under the default tag.
func table(t reflect.Type) (*fieldtable.Table, error) {
	tbl, err := fieldtable.Of(t, fieldtable.DefaultTag, Codec)
	if err != nil {
		return nil, fromTableError(err)
	}
	return tbl, nil
}

// Empty returns the empty lens for T.
func Empty[T any]() Lens[T] {
	return Lens[T]{}
}

// Fields returns the lens keys of T in table order.
func Fields[T any]() ([]string, error) {
	tbl, err := table(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return tbl.Names(), nil
}

// As checks that m is a lens for T.
func As[T any](m Map) (Lens[T], error) {
	want := reflect.TypeFor[T]()
	if m.t == nil {
		return Lens[T]{}, nil
	}
	if m.t != want {
		return Lens[T]{}, newTypeMismatch(want, m.t, "cannot use lens for %[2]s as lens for %[1]s")
	}
	return Lens[T]{m: m}, nil
}

// Map returns the type-erased form of l.
func (l Lens[T]) Map() Map {
	if l.m.t == nil {
		return Map{t: reflect.TypeFor[T]()}
	}
	return l.m
}

// RecordType returns T.
func (l Lens[T]) RecordType() reflect.Type { return reflect.TypeFor[T]() }

func (l Lens[T]) Get(key string) (any, bool) { return l.m.Get(key) }
func (l Lens[T]) Has(key string) bool        { return l.m.Has(key) }
func (l Lens[T]) Keys() []string             { return l.Map().Keys() }
func (l Lens[T]) Len() int                   { return l.m.Len() }
func (l Lens[T]) Raw() map[string]any        { return l.m.Raw() }
func (l Lens[T]) ToMap() map[string]any      { return l.m.ToMap() }
func (l Lens[T]) String() string             { return l.Map().String() }

// Equal reports whether l and other hold the same keys and values.
func (l Lens[T]) Equal(other Lens[T]) bool {
	return l.Map().Equal(other.Map())
}

// RecordType returns the record type m is a lens for.
func (m Map) RecordType() reflect.Type { return m.t }

// Get returns the value stored under key and whether key is present.
func (m Map) Get(key string) (any, bool) {
	v, ok := m.m[key]
	return v, ok
}

// Has reports whether key is present, even if its value is nil.
func (m Map) Has(key string) bool {
	_, ok := m.m[key]
	return ok
}

// Len returns the number of present keys.
func (m Map) Len() int { return len(m.m) }

// Keys returns the present keys in table order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m.m))
	if m.t == nil {
		return keys
	}
	// Only an empty lens can exist for a type without a table.
	tbl, err := table(m.t)
	if err != nil {
		return keys
	}
	for _, f := range tbl.Fields {
		if _, ok := m.m[f.Name]; ok {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// Raw returns a shallow copy of the underlying mapping.
func (m Map) Raw() map[string]any {
	out := make(map[string]any, len(m.m))
	for k, v := range m.m {
		out[k] = v
	}
	return out
}

// ToMap returns a copy of the mapping with nested Maps converted to plain
// maps, recursively.
func (m Map) ToMap() map[string]any {
	out := make(map[string]any, len(m.m))
	for k, v := range m.m {
		if nested, ok := v.(Map); ok {
			out[k] = nested.ToMap()
			continue
		}
		out[k] = v
	}
	return out
}

// Equal reports whether m and other are lenses for the same type with the
// same keys and deeply equal values.
func (m Map) Equal(other Map) bool {
	if m.t != other.t && len(m.m)+len(other.m) > 0 {
		return false
	}
	if len(m.m) != len(other.m) {
		return false
	}
	for k, v := range m.m {
		ov, ok := other.m[k]
		if !ok || !valuesEqual(v, ov) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b any) bool {
	am, aok := a.(Map)
	bm, bok := b.(Map)
	if aok || bok {
		return aok && bok && am.Equal(bm)
	}
	return reflect.DeepEqual(a, b)
}

// String renders m as Lens<pkg.Type>{Key: value, ...} in table order.
func (m Map) String() string {
	var b strings.Builder
	b.WriteString("Lens<")
	b.WriteString(diag.TypeName(m.t))
	b.WriteString(">{")
	for i, k := range m.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		v := m.m[k]
		switch rv := reflect.ValueOf(v); {
		case v == nil:
			fmt.Fprintf(&b, "%s: null", k)
		case rv.Kind() == reflect.Pointer:
			fmt.Fprintf(&b, "%s: &%v", k, rv.Elem().Interface())
		default:
			fmt.Fprintf(&b, "%s: %v", k, v)
		}
	}
	b.WriteString("}")
	return b.String()
}

// nilOrValue normalizes typed nils to nil.
func nilOrValue(v any) any {
	if codec.IsNil(v) {
		return nil
	}
	return v
}
