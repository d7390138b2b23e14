// Package yamlfmt drives the codec contract with YAML node trees
// (gopkg.in/yaml.v3).
//
// Encoding builds a *yaml.Node so callers can return it from MarshalYAML;
// decoding walks a *yaml.Node as handed to UnmarshalYAML.
package yamlfmt

import (
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reclens/codec"
)

// Node encodes v with c into a YAML node.
func Node(c codec.Codec, v any) (*yaml.Node, error) {
	n := &yaml.Node{}
	if err := c.Encode(&encoder{node: n}, v); err != nil {
		return nil, err
	}
	return n, nil
}

// Marshal encodes v with c as a YAML document.
func Marshal(c codec.Codec, v any) ([]byte, error) {
	n, err := Node(c, v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

// Decode decodes n with c.
func Decode(c codec.Codec, n *yaml.Node) (any, error) {
	return c.Decode(&decoder{node: n})
}

// Unmarshal decodes a YAML document with c.
func Unmarshal(c codec.Codec, data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return Decode(c, &doc)
}

type encoder struct {
	node *yaml.Node
}

func (e *encoder) EncodeNull() error {
	*e.node = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	return nil
}

func (e *encoder) EncodeValue(v any) error {
	return e.node.Encode(v)
}

func (e *encoder) EncodeStructure(_ *codec.Descriptor, body func(codec.StructureEncoder) error) error {
	*e.node = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return body(&structEncoder{node: e.node})
}

type structEncoder struct {
	node *yaml.Node
}

func (s *structEncoder) EncodeElement(d *codec.Descriptor, index int, c codec.Codec, v any) error {
	key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.ElementName(index)}
	value := &yaml.Node{}
	if err := c.Encode(&encoder{node: value}, v); err != nil {
		return err
	}
	s.node.Content = append(s.node.Content, key, value)
	return nil
}

type decoder struct {
	node *yaml.Node
}

// resolved unwraps documents and aliases.
func (d *decoder) resolved() *yaml.Node {
	n := d.node
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) == 1:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return n
}

func (d *decoder) DecodeNull() (bool, error) {
	n := d.resolved()
	if n == nil || n.Kind == 0 {
		return true, nil
	}
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null", nil
}

func (d *decoder) DecodeValue(t reflect.Type) (any, error) {
	p := reflect.New(t)
	if err := d.resolved().Decode(p.Interface()); err != nil {
		return nil, err
	}
	return p.Elem().Interface(), nil
}

func (d *decoder) DecodeStructure(desc *codec.Descriptor, body func(codec.StructureDecoder) error) error {
	n := d.resolved()
	if n == nil || n.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping for %s", desc.Name)
	}
	return body(&structDecoder{node: n})
}

type structDecoder struct {
	node *yaml.Node
	pos  int
	key  string
	val  *yaml.Node
}

func (s *structDecoder) DecodeElementIndex(desc *codec.Descriptor) (int, error) {
	if s.pos+1 >= len(s.node.Content) {
		return codec.DecodeDone, nil
	}
	s.key = s.node.Content[s.pos].Value
	s.val = s.node.Content[s.pos+1]
	s.pos += 2
	return desc.ElementIndex(s.key), nil
}

func (s *structDecoder) ElementName() string {
	return s.key
}

func (s *structDecoder) DecodeElement(_ *codec.Descriptor, _ int, c codec.Codec) (any, error) {
	return c.Decode(&decoder{node: s.val})
}

func (s *structDecoder) SkipElement() error {
	s.val = nil
	return nil
}
