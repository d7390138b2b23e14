package yamlfmt

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reclens/codec"
	"github.com/roach88/reclens/internal/testutil"
)

func pointCodec() *testutil.RecordCodec {
	return testutil.NewRecordCodec("point",
		testutil.RecordElement{Name: "x", Codec: codec.Value(reflect.TypeFor[int]())},
		testutil.RecordElement{Name: "tags", Codec: codec.Value(reflect.TypeFor[[]string]())},
	)
}

func TestMarshal(t *testing.T) {
	data, err := Marshal(pointCodec(), map[string]any{"tags": []string{"a"}, "x": 1})
	require.NoError(t, err)
	assert.Equal(t, "x: 1\ntags:\n    - a\n", string(data))

	data, err = Marshal(pointCodec(), map[string]any{"tags": nil})
	require.NoError(t, err)
	assert.Equal(t, "tags: null\n", string(data))
}

func TestNode_IsMapping(t *testing.T) {
	n, err := Node(pointCodec(), map[string]any{"x": 3})
	require.NoError(t, err)

	assert.Equal(t, yaml.MappingNode, n.Kind)
	require.Len(t, n.Content, 2)
	assert.Equal(t, "x", n.Content[0].Value)
	assert.Equal(t, "3", n.Content[1].Value)
}

func TestUnmarshal(t *testing.T) {
	c := pointCodec()
	v, err := Unmarshal(c, []byte("other: {a: 1}\ntags: [p, q]\nx: 9\n"))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"x": 9, "tags": []string{"p", "q"}}, v)
	assert.Equal(t, []string{"other"}, c.Unknown)
}

func TestUnmarshal_NullAndAlias(t *testing.T) {
	v, err := Unmarshal(pointCodec(), []byte("tags: ~\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tags": nil}, v)

	_, err = Unmarshal(pointCodec(), []byte("x: null\n"))
	assert.ErrorIs(t, err, codec.ErrUnexpectedNull)

	outer := testutil.NewRecordCodec("outer",
		testutil.RecordElement{Name: "a", Codec: pointCodec()},
		testutil.RecordElement{Name: "b", Codec: pointCodec()},
	)
	v, err = Unmarshal(outer, []byte("a: &p\n  x: 1\nb: *p\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": 1},
		"b": map[string]any{"x": 1},
	}, v)
}

func TestUnmarshal_NotMapping(t *testing.T) {
	_, err := Unmarshal(pointCodec(), []byte("- 1\n- 2\n"))
	assert.Error(t, err)
}
