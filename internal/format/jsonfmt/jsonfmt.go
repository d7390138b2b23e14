// Package jsonfmt drives the codec contract with JSON.
//
// Structures are written as objects holding only the elements the caller
// encodes, in the order it encodes them. Decoding streams object members in
// input order; members whose names are not in the descriptor are reported as
// codec.UnknownName.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/roach88/reclens/codec"
)

// Marshal encodes v with c.
func Marshal(c codec.Codec, v any) ([]byte, error) {
	e := &encoder{}
	if err := c.Encode(e, v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

// Unmarshal decodes data with c.
func Unmarshal(c codec.Codec, data []byte) (any, error) {
	return c.Decode(&decoder{raw: data})
}

type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) EncodeNull() error {
	e.buf.WriteString("null")
	return nil
}

func (e *encoder) EncodeValue(v any) error {
	b, err := marshalNoEscape(v)
	if err != nil {
		return err
	}
	e.buf.Write(b)
	return nil
}

func (e *encoder) EncodeStructure(d *codec.Descriptor, body func(codec.StructureEncoder) error) error {
	e.buf.WriteByte('{')
	if err := body(&structEncoder{enc: e}); err != nil {
		return err
	}
	e.buf.WriteByte('}')
	return nil
}

type structEncoder struct {
	enc   *encoder
	count int
}

func (s *structEncoder) EncodeElement(d *codec.Descriptor, index int, c codec.Codec, v any) error {
	if s.count > 0 {
		s.enc.buf.WriteByte(',')
	}
	s.count++
	key, err := marshalNoEscape(d.ElementName(index))
	if err != nil {
		return err
	}
	s.enc.buf.Write(key)
	s.enc.buf.WriteByte(':')
	return c.Encode(s.enc, v)
}

// marshalNoEscape marshals v without HTML escaping and without the trailing
// newline json.Encoder adds.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

type decoder struct {
	raw json.RawMessage
}

func (d *decoder) DecodeNull() (bool, error) {
	return bytes.Equal(bytes.TrimSpace(d.raw), []byte("null")), nil
}

func (d *decoder) DecodeValue(t reflect.Type) (any, error) {
	p := reflect.New(t)
	if err := json.Unmarshal(d.raw, p.Interface()); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

func (d *decoder) DecodeStructure(desc *codec.Descriptor, body func(codec.StructureDecoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(d.raw))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object for %s, got %v", desc.Name, tok)
	}
	if err := body(&structDecoder{dec: dec}); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("unexpected data after %s object", desc.Name)
	}
	return nil
}

type structDecoder struct {
	dec     *json.Decoder
	name    string
	pending json.RawMessage
}

func (s *structDecoder) DecodeElementIndex(desc *codec.Descriptor) (int, error) {
	if !s.dec.More() {
		if _, err := s.dec.Token(); err != nil {
			return 0, err
		}
		return codec.DecodeDone, nil
	}
	tok, err := s.dec.Token()
	if err != nil {
		return 0, err
	}
	name, ok := tok.(string)
	if !ok {
		return 0, fmt.Errorf("expected member name in %s, got %v", desc.Name, tok)
	}
	s.pending = nil
	if err := s.dec.Decode(&s.pending); err != nil {
		return 0, fmt.Errorf("member %q: %w", name, err)
	}
	s.name = name
	return desc.ElementIndex(name), nil
}

func (s *structDecoder) ElementName() string {
	return s.name
}

func (s *structDecoder) DecodeElement(_ *codec.Descriptor, _ int, c codec.Codec) (any, error) {
	return c.Decode(&decoder{raw: s.pending})
}

func (s *structDecoder) SkipElement() error {
	s.pending = nil
	return nil
}
