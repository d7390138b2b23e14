package lens

import (
	"reflect"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
)

// Validator is implemented by record types that check their own
// invariants. Apply and Create call it on every record they produce and
// return its error unchanged.
type Validator interface {
	Validate() error
}

// Apply returns a copy of obj with the fields present in l overwritten.
// obj itself is never modified.
func (l Lens[T]) Apply(obj T) (T, error) {
	var zero T
	out, err := l.Map().ApplyTo(obj)
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Plus is the obj + l form of Apply.
func Plus[T any](obj T, l Lens[T]) (T, error) {
	return l.Apply(obj)
}

// ApplyTo returns a copy of obj, whose type must be m's record type, with
// the fields present in m overwritten.
//
// A present nil resets the field to its zero value. A nested lens is
// applied to a copy of the field's current value; when that value is a nil
// pointer there is nothing to update and the field is left alone.
func (m Map) ApplyTo(obj any) (any, error) {
	if m.t == nil {
		return nil, &Error{Code: ErrCodeInvalidType, Message: "lens has no record type"}
	}
	if obj == nil || reflect.TypeOf(obj) != m.t {
		return nil, newTypeMismatch(m.t, reflect.TypeOf(obj),
			"attempted to apply lens for %s onto instance of %s")
	}
	out := reflect.New(m.t).Elem()
	out.Set(reflect.ValueOf(obj))
	if err := m.applyInto(out); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// applyInto writes m into the addressable struct value out and validates
// the result.
func (m Map) applyInto(out reflect.Value) error {
	tbl, err := table(m.t)
	if err != nil {
		return err
	}
	for i := range tbl.Fields {
		f := &tbl.Fields[i]
		v, ok := m.m[f.Name]
		if !ok {
			continue
		}
		fv := out.Field(f.StructIndex)
		if v == nil {
			fv.Set(reflect.Zero(f.Type))
			continue
		}
		nested, isMap := v.(Map)
		if !isMap || !f.Nested {
			if err := assign(m.t, f, fv, v); err != nil {
				return err
			}
			continue
		}
		if fv.Kind() != reflect.Pointer {
			if err := nested.applyInto(fv); err != nil {
				return err
			}
			continue
		}
		if fv.IsNil() {
			diag.DroppedNestedUpdate(m.t, f.Name)
			continue
		}
		cp := reflect.New(f.NestedType)
		cp.Elem().Set(fv.Elem())
		if err := nested.applyInto(cp.Elem()); err != nil {
			return err
		}
		fv.Set(cp)
	}
	return validate(out)
}

func assign(t reflect.Type, f *fieldtable.Field, fv reflect.Value, v any) error {
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(f.Type) {
		return newIncompatible(t, f.Name, "expected type: %s; got type: %s",
			diag.TypeName(f.Type), diag.TypeName(rv.Type()))
	}
	fv.Set(rv)
	return nil
}

// validate runs the record's own Validate method, if it has one.
func validate(rv reflect.Value) error {
	var v any
	if rv.CanAddr() {
		v = rv.Addr().Interface()
	} else {
		v = rv.Interface()
	}
	if vr, ok := v.(Validator); ok {
		return vr.Validate()
	}
	return nil
}
