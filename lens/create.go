package lens

import (
	"fmt"
	"reflect"
	"strings"
)

// Create builds a new T from l alone.
//
// Every required field must be present. Optional fields that are absent
// take their default literal, or the zero value when they have none.
// Nested lenses are created recursively.
func (l Lens[T]) Create() (T, error) {
	var zero T
	out, err := l.Map().Create()
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

// Create is Lens.Create for a record type known only at run time.
func (m Map) Create() (any, error) {
	if m.t == nil {
		return nil, &Error{Code: ErrCodeInvalidType, Message: "lens has no record type"}
	}
	out := reflect.New(m.t).Elem()
	if err := m.createInto(out); err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

func (m Map) createInto(out reflect.Value) error {
	tbl, err := table(m.t)
	if err != nil {
		return err
	}

	var missing []string
	for _, f := range tbl.Fields {
		if _, ok := m.m[f.Name]; !ok && !f.Optional {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return &Error{
			Code:    ErrCodeMissingFields,
			Type:    m.t,
			Fields:  missing,
			Message: fmt.Sprintf("%d required field(s) missing: %s", len(missing), strings.Join(missing, ", ")),
		}
	}

	for i := range tbl.Fields {
		f := &tbl.Fields[i]
		fv := out.Field(f.StructIndex)
		v, ok := m.m[f.Name]
		switch {
		case !ok:
			if f.Default.IsValid() {
				fv.Set(f.Default)
			}
		case v == nil:
			// zero already
		default:
			nested, isMap := v.(Map)
			if !isMap {
				if err := assign(m.t, f, fv, v); err != nil {
					return err
				}
				continue
			}
			if !f.Nested {
				return &Error{
					Code:    ErrCodeUnexpectedNestedLens,
					Type:    m.t,
					Field:   f.Name,
					Message: "unexpected nested lens",
				}
			}
			if fv.Kind() == reflect.Pointer {
				fv.Set(reflect.New(f.NestedType))
				fv = fv.Elem()
			}
			if err := nested.createInto(fv); err != nil {
				return err
			}
		}
	}
	return validate(out)
}
