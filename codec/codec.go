// Package codec defines the structured encoder/decoder contract that lens
// values are serialized through.
//
// A record is presented to a format as a Descriptor: a named structure with
// indexed, named, optional elements. Formats (JSON, YAML, flat property maps)
// implement Encoder and Decoder; element values are written and read through
// a Codec, so a format never needs to know what a lens is.
//
// Decoding is index driven: a StructureDecoder reports the index of each
// element actually present in the input, in input order, until DecodeDone.
// There is no sequential fast path. Elements that never appear are absent.
package codec

import (
	"errors"
	"reflect"
)

// Special element indices returned by StructureDecoder.DecodeElementIndex.
const (
	// DecodeDone signals the end of the structure.
	DecodeDone = -1

	// UnknownName signals an element whose name is not in the descriptor.
	// The caller must call SkipElement before asking for the next index.
	UnknownName = -3
)

// ErrUnexpectedNull is returned when a null is decoded for a type that
// cannot hold nil.
var ErrUnexpectedNull = errors.New("null value for non-nullable type")

// Element describes one named element of a Descriptor.
type Element struct {
	Name     string
	Optional bool
}

// Descriptor describes a structure as a sequence of named elements.
// Element indices are dense and start at 0.
type Descriptor struct {
	Name     string
	Elements []Element

	index map[string]int
}

// NewDescriptor creates a Descriptor. Element names must be unique.
func NewDescriptor(name string, elements []Element) *Descriptor {
	d := &Descriptor{
		Name:     name,
		Elements: elements,
		index:    make(map[string]int, len(elements)),
	}
	for i, e := range elements {
		d.index[e.Name] = i
	}
	return d
}

// Len returns the number of elements.
func (d *Descriptor) Len() int {
	return len(d.Elements)
}

// ElementName returns the name of the element at index i.
func (d *Descriptor) ElementName(i int) string {
	return d.Elements[i].Name
}

// ElementIndex returns the index of the named element, or UnknownName.
func (d *Descriptor) ElementIndex(name string) int {
	if i, ok := d.index[name]; ok {
		return i
	}
	return UnknownName
}

// Codec encodes and decodes a single value.
type Codec interface {
	Encode(enc Encoder, v any) error
	Decode(dec Decoder) (any, error)
}

// Encoder writes one value in some structured format.
type Encoder interface {
	// EncodeNull writes an explicit null.
	EncodeNull() error

	// EncodeValue writes v using the format's native encoding for its Go type.
	EncodeValue(v any) error

	// EncodeStructure writes a structure described by d. body is called once
	// and writes the present elements.
	EncodeStructure(d *Descriptor, body func(StructureEncoder) error) error
}

// StructureEncoder writes the elements of a structure.
type StructureEncoder interface {
	EncodeElement(d *Descriptor, index int, c Codec, v any) error
}

// Decoder reads one value in some structured format.
type Decoder interface {
	// DecodeNull reports whether the current value is null.
	DecodeNull() (bool, error)

	// DecodeValue reads the current value as a value of type t.
	DecodeValue(t reflect.Type) (any, error)

	// DecodeStructure reads a structure described by d. body is called once
	// and must read elements until DecodeElementIndex returns DecodeDone.
	DecodeStructure(d *Descriptor, body func(StructureDecoder) error) error
}

// StructureDecoder reads the elements of a structure in input order.
type StructureDecoder interface {
	// DecodeElementIndex returns the index of the next present element,
	// DecodeDone, or UnknownName.
	DecodeElementIndex(d *Descriptor) (int, error)

	// ElementName returns the input name of the element last returned by
	// DecodeElementIndex.
	ElementName() string

	// DecodeElement decodes the element last returned by DecodeElementIndex.
	DecodeElement(d *Descriptor, index int, c Codec) (any, error)

	// SkipElement discards the element last returned by DecodeElementIndex.
	SkipElement() error
}
