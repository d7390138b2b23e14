package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/lens"
)

// Replay applies the entries of stream in order onto base.
//
// A nested lens aimed at a nil nested record is created whole, so a record
// that Record saw go from nil to set is restored. A nested lens that cannot
// be created on its own (required fields missing) is dropped the same way
// Apply drops it.
func Replay[T any](ctx context.Context, s *Store, stream string, base T) (T, error) {
	entries, err := s.Entries(ctx, stream)
	if err != nil {
		return base, err
	}

	want := TypeName[T]()
	out := base
	for _, e := range entries {
		if e.Type != want {
			return base, fmt.Errorf("replay %s: entry %s records %s, not %s", stream, e.ID, e.Type, want)
		}
		l, err := Decode[T](e)
		if err != nil {
			return base, fmt.Errorf("replay %s: %w", stream, err)
		}
		l, err = fillNilTargets(l, out)
		if err != nil {
			return base, fmt.Errorf("replay %s: entry %s: %w", stream, e.ID, err)
		}
		out, err = l.Apply(out)
		if err != nil {
			return base, fmt.Errorf("replay %s: entry %s: %w", stream, e.ID, err)
		}
	}
	diag.Logger().Debug("journal stream replayed",
		"stream", stream, "type", want, "entries", len(entries))
	return out, nil
}

func fillNilTargets[T any](l lens.Lens[T], cur T) (lens.Lens[T], error) {
	rv := reflect.ValueOf(&cur).Elem()
	if rv.Kind() != reflect.Struct {
		return l, nil
	}
	m, err := fillMap(l.Map(), rv)
	if err != nil {
		return l, err
	}
	return lens.As[T](m)
}

// fillMap replaces every nested Map in m whose target in cur is a nil
// pointer with the record the Map creates, recursing through non-nil
// targets.
func fillMap(m lens.Map, cur reflect.Value) (lens.Map, error) {
	var raw map[string]any
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		nested, ok := v.(lens.Map)
		if !ok {
			continue
		}
		fv := cur.FieldByName(key)
		if !fv.IsValid() {
			continue
		}

		var repl any
		switch {
		case fv.Kind() == reflect.Pointer && fv.IsNil():
			created, err := nested.Create()
			if lens.IsMissingFields(err) {
				continue
			}
			if err != nil {
				return lens.Map{}, fmt.Errorf("create %s: %w", key, err)
			}
			repl = created
		case fv.Kind() == reflect.Pointer:
			filled, err := fillMap(nested, fv.Elem())
			if err != nil {
				return lens.Map{}, err
			}
			repl = filled
		case fv.Kind() == reflect.Struct:
			filled, err := fillMap(nested, fv)
			if err != nil {
				return lens.Map{}, err
			}
			repl = filled
		default:
			continue
		}

		if filled, ok := repl.(lens.Map); ok && filled.Equal(nested) {
			continue
		}
		if raw == nil {
			raw = m.Raw()
		}
		raw[key] = repl
	}
	if raw == nil {
		return m, nil
	}
	return lens.NewMap(m.RecordType(), raw)
}

// Decode returns the lens stored in e.
func Decode[T any](e Entry) (lens.Lens[T], error) {
	var l lens.Lens[T]
	if err := json.Unmarshal(e.Patch, &l); err != nil {
		return lens.Lens[T]{}, fmt.Errorf("decode entry %s: %w", e.ID, err)
	}
	return l, nil
}

// Mismatch is an entry whose stored hash no longer matches its patch.
type Mismatch struct {
	ID     string `json:"id" yaml:"id"`
	Stream string `json:"stream" yaml:"stream"`
	Stored string `json:"stored" yaml:"stored"`
	Actual string `json:"actual" yaml:"actual"`
}

// Verify recomputes every entry hash and returns the mismatches, ordered
// like All.
func (s *Store) Verify(ctx context.Context) ([]Mismatch, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	bad := []Mismatch{}
	for _, e := range entries {
		if actual := PatchHash(e.Patch); actual != e.Hash {
			bad = append(bad, Mismatch{ID: e.ID, Stream: e.Stream, Stored: e.Hash, Actual: actual})
		}
	}
	return bad, nil
}
