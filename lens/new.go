package lens

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
)

// Option configures lens construction from untyped input.
type Option func(*options)

type options struct {
	caseFold bool
}

// CaseFold resolves keys case-insensitively (Unicode case folding). Two
// input keys that fold to the same field are a CASEFOLD_COLLISION error.
func CaseFold() Option {
	return func(o *options) { o.caseFold = true }
}

func collectOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// mapper is implemented by every Lens[T].
type mapper interface {
	Map() Map
}

// New builds a lens for T from a plain mapping keyed by Go field name.
//
// Unknown keys are dropped with a warning. Values must match the field's
// type; nil is accepted only for nullable fields. For a nested record field
// a plain map[string]any is converted into a nested lens, and a Lens or Map
// of the nested type is taken as is.
func New[T any](m map[string]any, opts ...Option) (Lens[T], error) {
	pm, err := NewMap(reflect.TypeFor[T](), m, opts...)
	if err != nil {
		return Lens[T]{}, err
	}
	return Lens[T]{m: pm}, nil
}

// NewMap is New for a record type known only at run time.
func NewMap(t reflect.Type, m map[string]any, opts ...Option) (Map, error) {
	return newMap(t, m, collectOptions(opts))
}

func newMap(t reflect.Type, m map[string]any, o options) (Map, error) {
	tbl, err := table(t)
	if err != nil {
		return Map{}, err
	}
	if o.caseFold {
		if err := tbl.FoldCollision(); err != nil {
			return Map{}, fromTableError(err)
		}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(m))
	origin := make(map[string]string, len(m))
	for _, key := range keys {
		name := key
		if o.caseFold {
			if resolved, ok := tbl.FoldedName(key); ok {
				name = resolved
			}
		}
		f, ok := tbl.Lookup(name)
		if !ok {
			diag.IgnoredKey(t, key)
			continue
		}
		if prev, dup := origin[name]; dup {
			return Map{}, newCollision(t, key, prev)
		}
		origin[name] = key

		v, err := normalize(t, f, m[key], o)
		if err != nil {
			return Map{}, err
		}
		out[name] = v
	}
	return Map{t: t, m: out}, nil
}

func newCollision(t reflect.Type, key, prev string) *Error {
	return &Error{
		Code:    ErrCodeCasefoldCollision,
		Type:    t,
		Field:   key,
		Message: fmt.Sprintf("%s collides with casefolded property name %s", key, prev),
	}
}

// normalize checks v against f and returns the value to store.
func normalize(t reflect.Type, f *fieldtable.Field, v any, o options) (any, error) {
	if v == nil {
		if !f.Nullable {
			return nil, newIncompatible(t, f.Name, "null value for non-null type %s", f.Type)
		}
		return nil, nil
	}

	switch nv := v.(type) {
	case Map:
		return checkNested(t, f, nv)
	case mapper:
		return checkNested(t, f, nv.Map())
	case map[string]any:
		if f.Nested {
			return newMap(f.NestedType, nv, o)
		}
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(f.Type):
		return nilOrValue(v), nil
	case f.Type.Kind() == reflect.Pointer && rv.Type().AssignableTo(f.Type.Elem()):
		p := reflect.New(f.Type.Elem())
		p.Elem().Set(rv)
		return p.Interface(), nil
	default:
		return nil, newIncompatible(t, f.Name, "expected type: %s; got type: %s",
			diag.TypeName(f.Type), diag.TypeName(rv.Type()))
	}
}

func checkNested(t reflect.Type, f *fieldtable.Field, nested Map) (any, error) {
	if !f.Nested {
		return nil, &Error{
			Code:    ErrCodeUnexpectedNestedLens,
			Type:    t,
			Field:   f.Name,
			Message: fmt.Sprintf("unexpected nested lens for non-record type %s", f.Type),
		}
	}
	if nested.t == nil {
		nested = Map{t: f.NestedType}
	}
	if nested.t != f.NestedType {
		return nil, newIncompatible(t, f.Name, "incompatible nested lens: <%s>", diag.TypeName(nested.t))
	}
	return nested, nil
}
