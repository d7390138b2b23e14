package lens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reclens/internal/testutil"
)

func TestFromProperties_Basic(t *testing.T) {
	l, err := FromProperties[RegularClass2](map[string]string{"prop2": "42"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Prop2": 42}, l.ToMap())
}

func TestFromProperties_CaseFold(t *testing.T) {
	l, err := FromProperties[RegularClass2](map[string]string{"PROP2": "42"}, CaseFold())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Prop2": 42}, l.ToMap())
}

func TestFromProperties_CaseFoldCollision(t *testing.T) {
	_, err := FromProperties[RegularClass2](map[string]string{"prop2": "7", "PROP2": "42"}, CaseFold())
	require.Error(t, err)
	assert.True(t, IsCasefoldCollision(err))
	assert.Contains(t, err.Error(), "prop2 collides with casefolded property name")
}

func TestFromProperties_TypeFoldCollision(t *testing.T) {
	_, err := FromProperties[TestCasefoldReject](map[string]string{"theprop": "x"}, CaseFold())
	require.Error(t, err)
	assert.True(t, IsCasefoldCollision(err))
}

func TestFromProperties_CaseFoldWireName(t *testing.T) {
	l, err := FromProperties[TestCasefold](map[string]string{"THEPROP": "v"}, CaseFold())
	require.NoError(t, err)

	v, _ := l.Get("TheProp")
	assert.Equal(t, "v", v)
}

func TestFromProperties_Recursive(t *testing.T) {
	l, err := FromProperties[ClassWithDataclassMember](map[string]string{"prop2.prop1": "aaa"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Prop2": map[string]any{"Prop1": "aaa"}}, l.ToMap())
}

func TestFromProperties_RecursiveCaseFold(t *testing.T) {
	l, err := FromProperties[ClassWithDataclassMember](map[string]string{"PROP2.PROP1": "aaa"}, CaseFold())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"Prop2": map[string]any{"Prop1": "aaa"}}, l.ToMap())
}

func TestFromProperties_EmptyComponent(t *testing.T) {
	_, err := FromProperties[RegularClass2](map[string]string{"..a..b": "1"}, CaseFold())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty component in key")
}

func TestFromProperties_Collections(t *testing.T) {
	l, err := FromProperties[ClassWithCollections](map[string]string{
		"tags.0":   "a",
		"tags.1":   "b",
		"counts.0": "x",
		"counts.1": "3",
		"when":     "2024-05-01T12:00:00Z",
	})
	require.NoError(t, err)

	tags, _ := l.Get("Tags")
	assert.Equal(t, []string{"a", "b"}, tags)
	counts, _ := l.Get("Counts")
	assert.Equal(t, map[string]int{"x": 3}, counts)
	when, _ := l.Get("When")
	assert.True(t, when.(time.Time).Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
}

func TestFromProperties_PointerNested(t *testing.T) {
	l, err := FromProperties[ClassWithNullableNestedMember](map[string]string{
		"prop1.prop2": "2.5",
		"prop2":       "s",
	})
	require.NoError(t, err)

	got, err := l.Apply(ClassWithNullableNestedMember{Prop1: &Nested{Prop1: 1}})
	require.NoError(t, err)
	assert.Equal(t, ClassWithNullableNestedMember{Prop1: &Nested{Prop1: 1, Prop2: 2.5}, Prop2: "s"}, got)
}

func TestFromProperties_UnknownKeyWarned(t *testing.T) {
	diags := testutil.CaptureDiagnostics(t)

	l, err := FromProperties[RegularClass](map[string]string{"prop1": "a", "other": "b"})
	require.NoError(t, err)

	assert.Equal(t, 1, l.Len())
	recs := diags.Matching("ignored key because it is not a viable field")
	require.Len(t, recs, 1)
	assert.Equal(t, "other", recs[0].Key)
}

func TestFromProperties_BadScalar(t *testing.T) {
	_, err := FromProperties[RegularClass2](map[string]string{"prop2": "forty-two"})
	assert.Error(t, err)
}

func TestFromProperties_IndexOutOfRange(t *testing.T) {
	tests := []map[string]string{
		{"tags.99999999999999": "x"},
		{"tags.0": "a", "tags.5": "b"},
	}
	for _, props := range tests {
		_, err := FromProperties[ClassWithCollections](props)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "out of range")
	}
}
