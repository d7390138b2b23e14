// Package propfmt reads flat string-to-string property maps through the
// codec contract.
//
// Keys are dotted paths: "a.b" addresses element b of structure a. Numeric
// segments address slice elements ("tags.0", "tags.1") and map entries, the
// latter as alternating key/value positions ("m.0" key, "m.1" value, ...).
// Values are parsed from their string form; encoding.TextUnmarshaler is
// honored.
package propfmt

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/reclens/codec"
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// Unmarshal decodes props with c.
func Unmarshal(c codec.Codec, props map[string]string) (any, error) {
	return c.Decode(&decoder{props: props})
}

type decoder struct {
	props  map[string]string
	prefix string
}

func (d *decoder) path(name string) string {
	if d.prefix == "" {
		return name
	}
	return d.prefix + "." + name
}

// children returns the distinct next path segments below the prefix.
func (d *decoder) children() []string {
	seen := make(map[string]bool)
	var out []string
	for key := range d.props {
		rest := key
		if d.prefix != "" {
			if !strings.HasPrefix(key, d.prefix+".") {
				continue
			}
			rest = key[len(d.prefix)+1:]
		}
		seg, _, _ := strings.Cut(rest, ".")
		if !seen[seg] {
			seen[seg] = true
			out = append(out, seg)
		}
	}
	sort.Strings(out)
	return out
}

// A property map has no null literal.
func (d *decoder) DecodeNull() (bool, error) {
	return false, nil
}

func (d *decoder) DecodeValue(t reflect.Type) (any, error) {
	v, err := d.decodeValue(t)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

func (d *decoder) decodeValue(t reflect.Type) (reflect.Value, error) {
	if raw, ok := d.props[d.prefix]; ok {
		v, err := ParseScalar(t, raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %q: %w", d.prefix, err)
		}
		return v, nil
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem, err := d.decodeValue(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Slice:
		return d.decodeSlice(t)
	case reflect.Map:
		return d.decodeMap(t)
	case reflect.Struct:
		return d.decodeStruct(t)
	default:
		return reflect.Value{}, fmt.Errorf("key %q: missing value for %s", d.prefix, t)
	}
}

func (d *decoder) indices() ([]int, error) {
	var idx []int
	for _, seg := range d.children() {
		n, err := strconv.Atoi(seg)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("key %q: non-numeric element %q", d.prefix, seg)
		}
		idx = append(idx, n)
	}
	sort.Ints(idx)
	return idx, nil
}

func (d *decoder) decodeSlice(t reflect.Type) (reflect.Value, error) {
	idx, err := d.indices()
	if err != nil {
		return reflect.Value{}, err
	}
	// Elements must be numbered 0..n-1 with no gaps.
	for pos, i := range idx {
		if i != pos {
			return reflect.Value{}, fmt.Errorf("key %q: element index %d out of range for %d elements", d.prefix, i, len(idx))
		}
	}
	out := reflect.MakeSlice(t, len(idx), len(idx))
	for _, i := range idx {
		sub := &decoder{props: d.props, prefix: d.path(strconv.Itoa(i))}
		v, err := sub.decodeValue(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(v)
	}
	return out, nil
}

func (d *decoder) decodeMap(t reflect.Type) (reflect.Value, error) {
	idx, err := d.indices()
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.MakeMapWithSize(t, len(idx)/2)
	for _, i := range idx {
		if i%2 == 1 {
			continue
		}
		keyDec := &decoder{props: d.props, prefix: d.path(strconv.Itoa(i))}
		valDec := &decoder{props: d.props, prefix: d.path(strconv.Itoa(i + 1))}
		k, err := keyDec.decodeValue(t.Key())
		if err != nil {
			return reflect.Value{}, err
		}
		v, err := valDec.decodeValue(t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(k, v)
	}
	return out, nil
}

// decodeStruct fills plain (non-lens) struct values by json field name.
func (d *decoder) decodeStruct(t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, _, _ := strings.Cut(sf.Tag.Get("json"), ","); tag == "-" {
			continue
		} else if tag != "" {
			name = tag
		}
		sub := &decoder{props: d.props, prefix: d.path(name)}
		if !sub.present() {
			continue
		}
		v, err := sub.decodeValue(sf.Type)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(i).Set(v)
	}
	return out, nil
}

func (d *decoder) present() bool {
	if _, ok := d.props[d.prefix]; ok {
		return true
	}
	return len(d.children()) > 0
}

func (d *decoder) DecodeStructure(desc *codec.Descriptor, body func(codec.StructureDecoder) error) error {
	names := d.children()
	// Present elements in descriptor order, unknown names last.
	sort.SliceStable(names, func(i, j int) bool {
		return rank(desc, names[i]) < rank(desc, names[j])
	})
	return body(&structDecoder{parent: d, names: names})
}

func rank(desc *codec.Descriptor, name string) int {
	if i := desc.ElementIndex(name); i >= 0 {
		return i
	}
	return desc.Len()
}

type structDecoder struct {
	parent  *decoder
	names   []string
	pos     int
	current string
}

func (s *structDecoder) DecodeElementIndex(desc *codec.Descriptor) (int, error) {
	if s.pos >= len(s.names) {
		return codec.DecodeDone, nil
	}
	s.current = s.names[s.pos]
	s.pos++
	return desc.ElementIndex(s.current), nil
}

func (s *structDecoder) ElementName() string {
	return s.current
}

func (s *structDecoder) DecodeElement(_ *codec.Descriptor, _ int, c codec.Codec) (any, error) {
	return c.Decode(&decoder{props: s.parent.props, prefix: s.parent.path(s.current)})
}

func (s *structDecoder) SkipElement() error {
	return nil
}

// ParseScalar parses s as a value of type t.
func ParseScalar(t reflect.Type, s string) (reflect.Value, error) {
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		p := reflect.New(t)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
			return reflect.Value{}, err
		}
		return p.Elem(), nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(f)
	case reflect.Pointer:
		elem, err := ParseScalar(t.Elem(), s)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return reflect.Value{}, fmt.Errorf("cannot parse %q into %s", s, t)
		}
		v.Set(reflect.ValueOf(s))
	default:
		return reflect.Value{}, fmt.Errorf("cannot parse %q into %s", s, t)
	}
	return v, nil
}
