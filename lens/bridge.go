package lens

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/reclens/codec"
	"github.com/roach88/reclens/internal/diag"
)

// Codec returns the codec that writes and reads lenses for record type t
// as sparse structures: only present keys are written, in table order, and
// only the elements found in the input are read back.
//
// Encode accepts a Map or Lens for t, a plain map[string]any keyed by field
// name, or an instance of t (or a pointer to one), which is projected
// first. Decode always yields a Map.
//
// The table for t is resolved on first use, so codecs for self-referential
// record types can be built while their own table is under construction.
func Codec(t reflect.Type) codec.Codec {
	return bridge{t: t}
}

type bridge struct {
	t reflect.Type
}

func (b bridge) Encode(enc codec.Encoder, v any) error {
	m, err := b.toMap(v)
	if err != nil {
		return err
	}
	tbl, err := table(b.t)
	if err != nil {
		return err
	}
	return enc.EncodeStructure(tbl.Descriptor, func(s codec.StructureEncoder) error {
		for i := range tbl.Fields {
			f := &tbl.Fields[i]
			fv, ok := m.m[f.Name]
			if !ok {
				continue
			}
			if err := s.EncodeElement(tbl.Descriptor, f.Index, f.Codec, fv); err != nil {
				return fmt.Errorf("encode %s.%s: %w", diag.TypeName(b.t), f.Name, err)
			}
		}
		return nil
	})
}

// toMap converts anything Encode accepts into a Map for b.t.
func (b bridge) toMap(v any) (Map, error) {
	switch x := v.(type) {
	case Map:
		return b.check(x)
	case mapper:
		return b.check(x.Map())
	case map[string]any:
		return NewMap(b.t, x)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == b.t {
		rv = rv.Elem()
	}
	if !rv.IsValid() || rv.Type() != b.t {
		return Map{}, newTypeMismatch(b.t, reflect.TypeOf(v), "cannot encode value of type %[2]s as lens for %[1]s")
	}
	return project(b.t, rv)
}

func (b bridge) check(m Map) (Map, error) {
	if m.t == nil {
		return Map{t: b.t}, nil
	}
	if m.t != b.t {
		return Map{}, newTypeMismatch(b.t, m.t, "cannot encode lens for %[2]s as lens for %[1]s")
	}
	return m, nil
}

func (b bridge) Decode(dec codec.Decoder) (any, error) {
	tbl, err := table(b.t)
	if err != nil {
		return nil, err
	}
	null, err := dec.DecodeNull()
	if err != nil {
		return nil, err
	}
	if null {
		return nil, fmt.Errorf("%s: %w", diag.TypeName(b.t), codec.ErrUnexpectedNull)
	}

	out := make(map[string]any)
	err = dec.DecodeStructure(tbl.Descriptor, func(s codec.StructureDecoder) error {
		for {
			idx, err := s.DecodeElementIndex(tbl.Descriptor)
			if err != nil {
				return err
			}
			switch idx {
			case codec.DecodeDone:
				return nil
			case codec.UnknownName:
				diag.IgnoredKey(b.t, s.ElementName())
				if err := s.SkipElement(); err != nil {
					return err
				}
				continue
			}
			f := &tbl.Fields[idx]
			v, err := s.DecodeElement(tbl.Descriptor, idx, f.Codec)
			if err != nil {
				var le *Error
				switch {
				case errors.As(err, &le):
					return err
				case errors.Is(err, codec.ErrUnexpectedNull):
					return &Error{
						Code:    ErrCodeIncompatibleValue,
						Type:    b.t,
						Field:   f.Name,
						Message: fmt.Sprintf("null value for non-null type %s", f.Type),
						Err:     err,
					}
				}
				return fmt.Errorf("decode %s.%s: %w", diag.TypeName(b.t), f.Name, err)
			}
			v, err = normalize(b.t, f, v, options{})
			if err != nil {
				return err
			}
			out[f.Name] = v
		}
	})
	if err != nil {
		return nil, err
	}
	return Map{t: b.t, m: out}, nil
}
