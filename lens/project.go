package lens

import (
	"reflect"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
)

// FromInstance projects obj into a full lens: every table field is
// present. Non-nil nested record values become nested lenses.
//
// Fields of T left out of the table are reported on each call.
func FromInstance[T any](obj T) (Lens[T], error) {
	m, err := project(reflect.TypeFor[T](), reflect.ValueOf(&obj).Elem())
	if err != nil {
		return Lens[T]{}, err
	}
	return Lens[T]{m: m}, nil
}

// Project is FromInstance for a value whose type is known only at run time.
func Project(obj any) (Map, error) {
	if obj == nil {
		return Map{}, &Error{Code: ErrCodeInvalidType, Message: "cannot project nil"}
	}
	rv := reflect.ValueOf(obj)
	return project(rv.Type(), rv)
}

func project(t reflect.Type, rv reflect.Value) (Map, error) {
	tbl, built, err := fieldtable.Load(t, fieldtable.DefaultTag, Codec)
	if err != nil {
		return Map{}, fromTableError(err)
	}
	// A fresh build has already reported its exclusions.
	if !built {
		for _, ex := range tbl.Excluded {
			diag.Excluded(t, ex.Name, ex.Reason)
		}
	}
	return projectFields(tbl, rv)
}

func projectFields(tbl *fieldtable.Table, rv reflect.Value) (Map, error) {
	out := make(map[string]any, tbl.Len())
	for i := range tbl.Fields {
		f := &tbl.Fields[i]
		fv := rv.Field(f.StructIndex)
		if f.Nullable && fv.IsNil() {
			out[f.Name] = nil
			continue
		}
		if f.Nested {
			if fv.Kind() == reflect.Pointer {
				fv = fv.Elem()
			}
			nm, err := project(f.NestedType, fv)
			if err != nil {
				return Map{}, err
			}
			out[f.Name] = nm
			continue
		}
		out[f.Name] = fv.Interface()
	}
	return Map{t: tbl.Type, m: out}, nil
}
