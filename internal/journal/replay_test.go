package journal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reclens/internal/testutil"
	"github.com/roach88/reclens/lens"
)

func TestReplay(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	versions := []profile{
		{Name: "ada", Age: 36, Address: &address{City: "London"}},
		{Name: "ada", Age: 37, Email: strPtr("ada@example.com"), Address: &address{City: "London"}},
		{Name: "ada lovelace", Age: 37, Address: &address{City: "Oslo"}},
	}
	for i := 1; i < len(versions); i++ {
		_, _, err := Record(ctx, s, "user/1", versions[i-1], versions[i])
		require.NoError(t, err)
	}

	got, err := Replay(ctx, s, "user/1", versions[0])
	require.NoError(t, err)
	assert.Equal(t, versions[2], got)
}

func TestReplay_EmptyStream(t *testing.T) {
	base := profile{Name: "x"}
	got, err := Replay(context.Background(), openTestStore(t), "none", base)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestReplay_NilNestedTargetCreated(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	before := profile{Name: "n"}
	after := profile{Name: "n", Address: &address{City: "Oslo"}}
	_, ok, err := Record(ctx, s, "user/1", before, after)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := Replay(ctx, s, "user/1", before)
	require.NoError(t, err)
	assert.Equal(t, after, got)
}

func TestReplay_NilNestedTargetReplacedWhole(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, _, err := Record(ctx, s, "user/1",
		profile{Address: &address{City: "London"}},
		profile{Name: "n", Address: &address{City: "Oslo"}})
	require.NoError(t, err)

	got, err := Replay(ctx, s, "user/1", profile{})
	require.NoError(t, err)
	assert.Equal(t, profile{Name: "n", Address: &address{City: "Oslo"}}, got)
}

func TestReplay_PartialNestedOnNilDropped(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	diags := testutil.CaptureDiagnostics(t)

	l, err := lens.New[profile](map[string]any{"Name": "n", "Address": map[string]any{}})
	require.NoError(t, err)
	_, err = AppendLens(ctx, s, "user/1", l)
	require.NoError(t, err)

	got, err := Replay(ctx, s, "user/1", profile{})
	require.NoError(t, err)
	assert.Equal(t, profile{Name: "n"}, got)
	assert.NotEmpty(t, diags.Matching("dropped nested update on nil field"))
}

func TestReplay_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	l, err := lens.New[profile](map[string]any{"Age": 1})
	require.NoError(t, err)
	_, err = AppendLens(ctx, s, "user/1", l)
	require.NoError(t, err)

	_, err = Replay(ctx, s, "user/1", address{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records github.com/roach88/reclens/internal/journal.profile")
}

func TestReplay_ValidateErrorPropagates(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	l, err := lens.New[guarded](map[string]any{"N": -1})
	require.NoError(t, err)
	_, err = AppendLens(ctx, s, "g", l)
	require.NoError(t, err)

	_, err = Replay(ctx, s, "g", guarded{})
	assert.ErrorIs(t, err, errNegative)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, WithIDGenerator(testutil.NewSequentialIDs("e")))

	for i := 0; i < 2; i++ {
		_, err := s.Append(ctx, Entry{Stream: "a", Type: "T", Patch: []byte(`{"x":1}`)})
		require.NoError(t, err)
	}

	bad, err := s.Verify(ctx)
	require.NoError(t, err)
	assert.Empty(t, bad)

	_, err = s.db.Exec(`UPDATE entries SET patch = '{"x":2}' WHERE id = 'e-0002'`)
	require.NoError(t, err)

	bad, err = s.Verify(ctx)
	require.NoError(t, err)
	require.Len(t, bad, 1)
	assert.Equal(t, "e-0002", bad[0].ID)
	assert.Equal(t, PatchHash([]byte(`{"x":2}`)), bad[0].Actual)
}
