package lens

import (
	"bytes"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reclens/internal/format/jsonfmt"
	"github.com/roach88/reclens/internal/format/yamlfmt"
)

// MarshalJSON writes the present keys of l as a JSON object keyed by wire
// name, in table order.
func (l Lens[T]) MarshalJSON() ([]byte, error) {
	return l.Map().MarshalJSON()
}

// UnmarshalJSON replaces l with the lens read from data. A JSON null leaves
// l unchanged.
func (l *Lens[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	v, err := jsonfmt.Unmarshal(Codec(reflect.TypeFor[T]()), data)
	if err != nil {
		return err
	}
	l.m = v.(Map)
	return nil
}

// MarshalYAML returns l as a YAML mapping node.
func (l Lens[T]) MarshalYAML() (any, error) {
	return l.Map().MarshalYAML()
}

// UnmarshalYAML replaces l with the lens read from n. A YAML null leaves l
// unchanged.
func (l *Lens[T]) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil
	}
	v, err := yamlfmt.Decode(Codec(reflect.TypeFor[T]()), n)
	if err != nil {
		return err
	}
	l.m = v.(Map)
	return nil
}

// MarshalJSON writes m the way Lens.MarshalJSON does.
func (m Map) MarshalJSON() ([]byte, error) {
	if m.t == nil {
		return []byte("{}"), nil
	}
	return jsonfmt.Marshal(Codec(m.t), m)
}

// MarshalYAML returns m as a YAML mapping node.
func (m Map) MarshalYAML() (any, error) {
	if m.t == nil {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	return yamlfmt.Node(Codec(m.t), m)
}
