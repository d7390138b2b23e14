package lens

import (
	"fmt"

	"github.com/roach88/reclens/internal/diag"
)

// Diff returns the entries of a that b does not share: keys absent from b
// or holding a different value there. Keys only in b are ignored, so
// Diff(newState, oldState) is the update that turns oldState into newState.
func Diff[T any](a, b Lens[T]) Lens[T] {
	// Both sides are lenses for T; Map.Diff cannot fail.
	d, _ := a.Map().Diff(b.Map())
	return Lens[T]{m: d}
}

// Merge returns the union of l and other; other wins on shared keys.
func (l Lens[T]) Merge(other Lens[T]) Lens[T] {
	out, _ := l.Map().Merge(other.Map())
	return Lens[T]{m: out}
}

// Without returns l minus the given keys.
func (l Lens[T]) Without(keys ...string) Lens[T] {
	return Lens[T]{m: l.Map().Without(keys...)}
}

// Diff is the type-erased form of Diff.
func (m Map) Diff(other Map) (Map, error) {
	if err := sameType(m, other); err != nil {
		return Map{}, err
	}
	out := make(map[string]any)
	for k, v := range m.m {
		ov, ok := other.m[k]
		if !ok || !valuesEqual(v, ov) {
			out[k] = v
		}
	}
	return Map{t: m.t, m: out}, nil
}

// Merge is the type-erased form of Lens.Merge.
func (m Map) Merge(other Map) (Map, error) {
	if err := sameType(m, other); err != nil {
		return Map{}, err
	}
	t := m.t
	if t == nil {
		t = other.t
	}
	out := make(map[string]any, len(m.m)+len(other.m))
	for k, v := range m.m {
		out[k] = v
	}
	for k, v := range other.m {
		out[k] = v
	}
	return Map{t: t, m: out}, nil
}

// Without returns m minus the given keys.
func (m Map) Without(keys ...string) Map {
	out := m.Raw()
	for _, k := range keys {
		delete(out, k)
	}
	return Map{t: m.t, m: out}
}

func sameType(a, b Map) error {
	if a.t == nil || b.t == nil || a.t == b.t {
		return nil
	}
	return &Error{
		Code:    ErrCodeTypeMismatch,
		Type:    a.t,
		Message: fmt.Sprintf("incompatible lens types: %s and %s", diag.TypeName(a.t), diag.TypeName(b.t)),
	}
}
