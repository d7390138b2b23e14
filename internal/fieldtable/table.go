// Package fieldtable builds and caches the per-type field tables that every
// lens operation walks.
//
// A table is the ordered subset of a struct's fields that are both
// serializable (visible in the wire descriptor, named by a struct tag key,
// "json" by default) and settable on a copy (exported). Fields that fail one
// of the two checks are excluded with a diagnostic, never an error.
//
// Tables are immutable and cached per (type, tag key) for the life of the
// process.
package fieldtable

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/reclens/codec"
	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/internal/format/propfmt"
)

// Tag keys.
const (
	DefaultTag      = "json"
	OptionsTag      = "lens"
	DefaultValueTag = "default"
)

// MaxFields is the ceiling on eligible fields per type. Exceeding it means
// something upstream produced an impossible type.
const MaxFields = 245

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	recordTaggedType  = reflect.TypeFor[RecordTagged]()
)

// RecordTagged is implemented by lens values. Record types may not have
// fields of such types.
type RecordTagged interface {
	RecordType() reflect.Type
}

// NestedFunc returns the element codec for a nested record type. It must not
// build the nested table eagerly; self-referential types rely on that.
type NestedFunc func(t reflect.Type) codec.Codec

// Field is one eligible field.
type Field struct {
	Name        string // Go field name; the lens key
	WireName    string
	Index       int // dense table index
	StructIndex int // reflect field index
	Type        reflect.Type

	Nested     bool
	NestedType reflect.Type // dereferenced record type when Nested

	Nullable bool
	Optional bool
	Default  reflect.Value // invalid unless a default literal was given

	Codec       codec.Codec
	CustomCodec string
}

// Exclusion records a field left out of the table.
type Exclusion struct {
	Name   string
	Reason string
}

// Exclusion reasons.
const (
	ReasonNotSerializable = "not serializable"
	ReasonNotSettable     = "not settable"
	ReasonEmbedded        = "embedded"
)

// Table is the immutable field table of one record type.
type Table struct {
	Type       reflect.Type
	Tag        string
	Fields     []Field
	Excluded   []Exclusion
	Descriptor *codec.Descriptor

	byName     map[string]int
	byWire     map[string]int
	foldedName map[string]string
	foldedWire map[string]string
	foldErr    *Error
}

// Len returns the number of eligible fields.
func (t *Table) Len() int {
	return len(t.Fields)
}

// Lookup returns the field with the given Go name.
func (t *Table) Lookup(name string) (*Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return &t.Fields[i], true
}

// LookupWire returns the field with the given wire name.
func (t *Table) LookupWire(wire string) (*Field, bool) {
	i, ok := t.byWire[wire]
	if !ok {
		return nil, false
	}
	return &t.Fields[i], true
}

// Names returns the Go field names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	for i := range t.Fields {
		names[i] = t.Fields[i].Name
	}
	return names
}

// FoldedName resolves a case-folded Go field name.
func (t *Table) FoldedName(s string) (string, bool) {
	name, ok := t.foldedName[Fold(s)]
	return name, ok
}

// FoldedWire resolves a case-folded wire name.
func (t *Table) FoldedWire(s string) (string, bool) {
	wire, ok := t.foldedWire[Fold(s)]
	return wire, ok
}

// FoldCollision returns the error for two fields of the type that are equal
// under case folding, or nil. It only matters to callers that fold.
func (t *Table) FoldCollision() error {
	if t.foldErr == nil {
		return nil
	}
	return t.foldErr
}

// Fold returns the Unicode case-folded NFC form of s.
func Fold(s string) string {
	// A Caser is stateful; one per call.
	return cases.Fold().String(norm.NFC.String(s))
}

// Check verifies that t qualifies as a record type.
func Check(t reflect.Type) error {
	if t == nil {
		return &Error{Code: CodeInvalidType, Message: "nil type"}
	}
	if t.Kind() != reflect.Struct {
		return &Error{Code: CodeInvalidType, Type: t,
			Message: fmt.Sprintf("a non-struct type %s was supplied", diag.TypeName(t))}
	}
	if isGeneric(t) {
		return &Error{Code: CodeInvalidType, Type: t,
			Message: fmt.Sprintf("type %s is generic; support is missing", diag.TypeName(t))}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Implements(recordTaggedType) || reflect.PointerTo(ft).Implements(recordTaggedType) {
			return &Error{Code: CodeInvalidType, Type: t, Field: sf.Name,
				Message: fmt.Sprintf("field %s has disallowed lens type %s", sf.Name, sf.Type)}
		}
	}
	return nil
}

// IsRecord reports whether t is a struct that lenses recurse into. Structs
// that marshal themselves (time.Time and friends) and generic instantiations
// are treated as opaque values.
func IsRecord(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || isGeneric(t) {
		return false
	}
	pt := reflect.PointerTo(t)
	for _, it := range []reflect.Type{jsonMarshalerType, textMarshalerType} {
		if t.Implements(it) || pt.Implements(it) {
			return false
		}
	}
	return true
}

func isGeneric(t reflect.Type) bool {
	return strings.ContainsRune(t.Name(), '[')
}

func build(t reflect.Type, tag string, nested NestedFunc) (*Table, error) {
	if err := Check(t); err != nil {
		return nil, err
	}

	tbl := &Table{
		Type:       t,
		Tag:        tag,
		byName:     make(map[string]int),
		byWire:     make(map[string]int),
		foldedName: make(map[string]string),
		foldedWire: make(map[string]string),
	}
	var elements []codec.Element

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous {
			tbl.exclude(sf.Name, ReasonEmbedded)
			diag.Embedded(t, sf.Name)
			continue
		}
		wire, visible := wireName(sf, tag)
		settable := sf.IsExported()
		if !visible {
			if settable {
				tbl.exclude(sf.Name, ReasonNotSerializable)
				diag.NotSerializable(t, sf.Name)
			}
			continue
		}
		if !settable {
			tbl.exclude(sf.Name, ReasonNotSettable)
			diag.NotSettable(t, sf.Name)
			continue
		}
		if len(tbl.Fields) >= MaxFields {
			return nil, &Error{Code: CodeInternalLimit, Type: t,
				Message: fmt.Sprintf("type %s has more than %d eligible fields", diag.TypeName(t), MaxFields)}
		}
		if _, dup := tbl.byWire[wire]; dup {
			return nil, &Error{Code: CodeInvalidType, Type: t, Field: sf.Name,
				Message: fmt.Sprintf("wire name %q is used by more than one field", wire)}
		}

		f, err := resolveField(t, sf, wire, nested)
		if err != nil {
			return nil, err
		}
		f.Index = len(tbl.Fields)
		f.StructIndex = i
		tbl.byName[f.Name] = f.Index
		tbl.byWire[f.WireName] = f.Index
		tbl.Fields = append(tbl.Fields, f)
		elements = append(elements, codec.Element{Name: wire, Optional: true})
	}

	tbl.Descriptor = codec.NewDescriptor("Lens<"+diag.TypeName(t)+">", elements)
	tbl.indexFolded()
	return tbl, nil
}

func (t *Table) exclude(name, reason string) {
	t.Excluded = append(t.Excluded, Exclusion{Name: name, Reason: reason})
}

func (t *Table) indexFolded() {
	for _, f := range t.Fields {
		fn := Fold(f.Name)
		if prev, dup := t.foldedName[fn]; dup && t.foldErr == nil {
			t.foldErr = &Error{Code: CodeCasefoldCollision, Type: t.Type, Field: f.Name,
				Message: fmt.Sprintf("type %s field %s collides with field %s under case folding",
					diag.TypeName(t.Type), f.Name, prev)}
		}
		t.foldedName[fn] = f.Name

		fw := Fold(f.WireName)
		if prev, dup := t.foldedWire[fw]; dup && t.foldErr == nil {
			t.foldErr = &Error{Code: CodeCasefoldCollision, Type: t.Type, Field: f.Name,
				Message: fmt.Sprintf("type %s wire name %s collides with wire name %s under case folding",
					diag.TypeName(t.Type), f.WireName, prev)}
		}
		t.foldedWire[fw] = f.WireName
	}
}

// wireName returns the wire name of sf under tag and whether sf is visible
// to the wire descriptor at all.
func wireName(sf reflect.StructField, tag string) (string, bool) {
	if opts := sf.Tag.Get(OptionsTag); opts == "-" {
		return "", false
	}
	raw, hasTag := sf.Tag.Lookup(tag)
	name, _, _ := strings.Cut(raw, ",")
	if raw == "-" {
		return "", false
	}
	if !sf.IsExported() {
		// Unexported fields only count when someone explicitly named them.
		return name, hasTag && name != ""
	}
	if name == "" {
		name = sf.Name
	}
	return name, true
}

func resolveField(t reflect.Type, sf reflect.StructField, wire string, nested NestedFunc) (Field, error) {
	f := Field{
		Name:     sf.Name,
		WireName: wire,
		Type:     sf.Type,
		Nullable: codec.Nilable(sf.Type),
	}

	opts := parseOptions(sf.Tag.Get(OptionsTag))
	f.Optional = opts.optional
	f.CustomCodec = opts.codec

	if lit, ok := sf.Tag.Lookup(DefaultValueTag); ok {
		v, err := propfmt.ParseScalar(sf.Type, lit)
		if err != nil {
			return f, &Error{Code: CodeInvalidType, Type: t, Field: sf.Name,
				Message: fmt.Sprintf("field %s: bad default %q: %v", sf.Name, lit, err)}
		}
		f.Default = v
		f.Optional = true
	}

	switch {
	case f.CustomCodec != "":
		c, ok := codec.Lookup(f.CustomCodec)
		if !ok {
			return f, &Error{Code: CodeInvalidType, Type: t, Field: sf.Name,
				Message: fmt.Sprintf("field %s: unknown codec %q", sf.Name, f.CustomCodec)}
		}
		if f.Nullable {
			c = codec.Nullable(c)
		}
		f.Codec = c
	case IsRecord(sf.Type):
		f.Nested = true
		f.NestedType = sf.Type
		f.Codec = nested(sf.Type)
	case sf.Type.Kind() == reflect.Pointer && IsRecord(sf.Type.Elem()):
		f.Nested = true
		f.NestedType = sf.Type.Elem()
		f.Codec = codec.Nullable(nested(sf.Type.Elem()))
	default:
		f.Codec = codec.Value(sf.Type)
	}
	return f, nil
}

type options struct {
	optional bool
	codec    string
}

// parseOptions parses `lens:"[-][,optional][,codec=name]"`.
func parseOptions(tag string) options {
	var o options
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		switch {
		case p == "optional":
			o.optional = true
		case strings.HasPrefix(p, "codec="):
			o.codec = strings.TrimPrefix(p, "codec=")
		}
	}
	return o
}
