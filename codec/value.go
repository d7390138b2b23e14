package codec

import (
	"fmt"
	"reflect"
)

// Value returns the default codec for plain values of type t. Nulls are
// accepted only when t can hold nil.
func Value(t reflect.Type) Codec {
	return valueCodec{t: t}
}

type valueCodec struct {
	t reflect.Type
}

func (c valueCodec) Encode(enc Encoder, v any) error {
	if IsNil(v) {
		return enc.EncodeNull()
	}
	return enc.EncodeValue(v)
}

func (c valueCodec) Decode(dec Decoder) (any, error) {
	null, err := dec.DecodeNull()
	if err != nil {
		return nil, err
	}
	if null {
		if !Nilable(c.t) {
			return nil, fmt.Errorf("%s: %w", c.t, ErrUnexpectedNull)
		}
		return nil, nil
	}
	return dec.DecodeValue(c.t)
}

// Nullable wraps c so that nil values are written as null and nulls are
// read back as nil without consulting c.
func Nullable(c Codec) Codec {
	if _, ok := c.(nullableCodec); ok {
		return c
	}
	return nullableCodec{inner: c}
}

type nullableCodec struct {
	inner Codec
}

func (c nullableCodec) Encode(enc Encoder, v any) error {
	if IsNil(v) {
		return enc.EncodeNull()
	}
	return c.inner.Encode(enc, v)
}

func (c nullableCodec) Decode(dec Decoder) (any, error) {
	null, err := dec.DecodeNull()
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return c.inner.Decode(dec)
}

// Nilable reports whether values of type t can be nil.
func Nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return true
	default:
		return false
	}
}

// IsNil reports whether v is nil or a typed nil of a nilable kind.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
