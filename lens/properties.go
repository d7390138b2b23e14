package lens

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/fieldtable"
	"github.com/roach88/reclens/internal/format/propfmt"
)

// FromProperties builds a lens for T from a flat property map.
//
// Keys are dotted wire-name paths: "a.b" addresses element b of the nested
// record field a. Numeric segments address slice elements and map entries
// and are opaque to the lens. With CaseFold, each named segment is resolved
// case-insensitively until the first numeric segment or non-record field.
func FromProperties[T any](props map[string]string, opts ...Option) (Lens[T], error) {
	m, err := PropertiesMap(reflect.TypeFor[T](), props, opts...)
	if err != nil {
		return Lens[T]{}, err
	}
	return Lens[T]{m: m}, nil
}

// PropertiesMap is FromProperties for a record type known only at run time.
func PropertiesMap(t reflect.Type, props map[string]string, opts ...Option) (Map, error) {
	o := collectOptions(opts)
	tbl, err := table(t)
	if err != nil {
		return Map{}, err
	}

	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	resolved := make(map[string]string, len(props))
	origin := make(map[string]string, len(props))
	for _, key := range keys {
		segs := strings.Split(key, ".")
		for _, seg := range segs {
			if seg == "" {
				return Map{}, fmt.Errorf("empty component in key %s", key)
			}
		}
		if o.caseFold {
			if err := foldPath(tbl, segs); err != nil {
				return Map{}, err
			}
		}
		canonical := strings.Join(segs, ".")
		if prev, dup := origin[canonical]; dup {
			return Map{}, newCollision(t, key, prev)
		}
		origin[canonical] = key
		resolved[canonical] = props[key]
	}

	v, err := propfmt.Unmarshal(Codec(t), resolved)
	if err != nil {
		return Map{}, err
	}
	return v.(Map), nil
}

// foldPath rewrites the named segments of segs in place to wire names.
func foldPath(tbl *fieldtable.Table, segs []string) error {
	for i, seg := range segs {
		r, _ := utf8.DecodeRuneInString(seg)
		if unicode.IsDigit(r) {
			return nil
		}
		if err := tbl.FoldCollision(); err != nil {
			return fromTableError(err)
		}
		wire, ok := tbl.FoldedWire(seg)
		if !ok {
			diag.IgnoredKey(tbl.Type, seg)
			continue
		}
		segs[i] = wire
		f, _ := tbl.LookupWire(wire)
		if !f.Nested {
			return nil
		}
		next, err := table(f.NestedType)
		if err != nil {
			return err
		}
		tbl = next
	}
	return nil
}
