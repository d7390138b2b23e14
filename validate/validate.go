// Package validate keeps a process-wide registry of per-field validation
// functions for record types.
//
// Nothing in package lens consults the registry. It is for callers that
// want to check the values in an update lens before applying it, without
// a round trip to wherever the full record lives.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/lens"
)

// Func validates one field value. The value is whatever the lens holds:
// nil, a value of the field's type, or, for nested record fields, a
// map[string]any of the nested lens.
type Func func(v any) error

// Validators maps lens keys (Go field names) to validation functions.
type Validators map[string]Func

// FieldError is a failed validation of one field.
type FieldError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", diag.TypeName(e.Type), e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

var (
	mu       sync.RWMutex
	registry = make(map[reflect.Type]Validators)
)

// Register installs v as the validators for T, replacing any previous set.
// Every key must be a lens key of T.
func Register[T any](v Validators) error {
	t := reflect.TypeFor[T]()
	names, err := lens.Fields[T]()
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	cp := make(Validators, len(v))
	for name, fn := range v {
		if !known[name] {
			return fmt.Errorf("register validators for %s: %q is not a field", diag.TypeName(t), name)
		}
		if fn == nil {
			return fmt.Errorf("register validators for %s: nil validator for %q", diag.TypeName(t), name)
		}
		cp[name] = fn
	}

	mu.Lock()
	defer mu.Unlock()
	registry[t] = cp
	return nil
}

// Unregister removes the validators for T.
func Unregister[T any]() {
	mu.Lock()
	defer mu.Unlock()
	delete(registry, reflect.TypeFor[T]())
}

// Lookup returns a copy of the validators registered for t.
func Lookup(t reflect.Type) (Validators, bool) {
	mu.RLock()
	defer mu.RUnlock()
	v, ok := registry[t]
	if !ok {
		return nil, false
	}
	cp := make(Validators, len(v))
	for name, fn := range v {
		cp[name] = fn
	}
	return cp, true
}

// Check runs the registered validators of T against the keys present in
// l. Absent keys are not checked. Every failure is reported, as
// *FieldError values joined with errors.Join, in table order.
func Check[T any](l lens.Lens[T]) error {
	v, ok := Lookup(reflect.TypeFor[T]())
	if !ok {
		return nil
	}
	return check(reflect.TypeFor[T](), v, l.ToMap(), l.Keys())
}

// CheckMap is Check for a lens whose record type is known only at run time.
func CheckMap(m lens.Map) error {
	v, ok := Lookup(m.RecordType())
	if !ok {
		return nil
	}
	return check(m.RecordType(), v, m.ToMap(), m.Keys())
}

func check(t reflect.Type, v Validators, values map[string]any, keys []string) error {
	var errs []error
	for _, key := range keys {
		fn, ok := v[key]
		if !ok {
			continue
		}
		if err := fn(values[key]); err != nil {
			errs = append(errs, &FieldError{Type: t, Field: key, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Registered returns the names of the types with registered validators,
// sorted.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for t := range registry {
		names = append(names, diag.TypeName(t))
	}
	sort.Strings(names)
	return names
}

// Typed adapts a function over the field's own type. A nil value is passed
// as the zero V; any other value of the wrong type is an error.
func Typed[V any](fn func(V) error) Func {
	return func(v any) error {
		if v == nil {
			var zero V
			return fn(zero)
		}
		tv, ok := v.(V)
		if !ok {
			return fmt.Errorf("expected %s, got %T", reflect.TypeFor[V](), v)
		}
		return fn(tv)
	}
}
