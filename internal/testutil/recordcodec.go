package testutil

import (
	"github.com/roach88/reclens/codec"
)

// RecordElement is one named element of a RecordCodec.
type RecordElement struct {
	Name  string
	Codec codec.Codec
}

// RecordCodec is a structure codec over map[string]any, for exercising
// format drivers without the lens package. Present keys are encoded in
// descriptor order.
type RecordCodec struct {
	Descriptor *codec.Descriptor
	Elements   []codec.Codec

	// Unknown collects the names reported as codec.UnknownName by Decode.
	Unknown []string
}

// NewRecordCodec returns a RecordCodec with the given elements.
func NewRecordCodec(name string, elems ...RecordElement) *RecordCodec {
	des := make([]codec.Element, len(elems))
	codecs := make([]codec.Codec, len(elems))
	for i, e := range elems {
		des[i] = codec.Element{Name: e.Name, Optional: true}
		codecs[i] = e.Codec
	}
	return &RecordCodec{
		Descriptor: codec.NewDescriptor(name, des),
		Elements:   codecs,
	}
}

func (c *RecordCodec) Encode(enc codec.Encoder, v any) error {
	if v == nil {
		return enc.EncodeNull()
	}
	m := v.(map[string]any)
	return enc.EncodeStructure(c.Descriptor, func(s codec.StructureEncoder) error {
		for i, e := range c.Descriptor.Elements {
			val, ok := m[e.Name]
			if !ok {
				continue
			}
			if err := s.EncodeElement(c.Descriptor, i, c.Elements[i], val); err != nil {
				return err
			}
		}
		return nil
	})
}

func (c *RecordCodec) Decode(dec codec.Decoder) (any, error) {
	null, err := dec.DecodeNull()
	if err != nil || null {
		return nil, err
	}
	out := map[string]any{}
	err = dec.DecodeStructure(c.Descriptor, func(s codec.StructureDecoder) error {
		for {
			idx, err := s.DecodeElementIndex(c.Descriptor)
			if err != nil {
				return err
			}
			switch idx {
			case codec.DecodeDone:
				return nil
			case codec.UnknownName:
				c.Unknown = append(c.Unknown, s.ElementName())
				if err := s.SkipElement(); err != nil {
					return err
				}
				continue
			}
			v, err := s.DecodeElement(c.Descriptor, idx, c.Elements[idx])
			if err != nil {
				return err
			}
			out[c.Descriptor.ElementName(idx)] = v
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
