package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/reclens/internal/journal"
	"github.com/roach88/reclens/internal/testutil"
	"github.com/roach88/reclens/lens"
)

type profile struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

const profileType = "github.com/roach88/reclens/internal/cli.profile"

// seedJournal writes three entries over two streams:
//
//	e-0001 user/1 #1 {"age":37}
//	e-0002 user/2 #1 {"name":"grace"}
//	e-0003 user/1 #2 {"name":"ada l"}
func seedJournal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	st, err := journal.Open(path, journal.WithIDGenerator(testutil.NewSequentialIDs("e")))
	require.NoError(t, err)
	defer st.Close()

	v0 := profile{Name: "ada", Age: 36}
	v1 := profile{Name: "ada", Age: 37}
	v2 := profile{Name: "ada l", Age: 37}

	_, _, err = journal.Record(ctx, st, "user/1", v0, v1)
	require.NoError(t, err)
	l, err := lens.New[profile](map[string]any{"Name": "grace"})
	require.NoError(t, err)
	_, err = journal.AppendLens(ctx, st, "user/2", l)
	require.NoError(t, err)
	_, _, err = journal.Record(ctx, st, "user/1", v1, v2)
	require.NoError(t, err)

	return path
}

func emptyJournal(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	st, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Close())
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestMissingDatabaseFlag(t *testing.T) {
	for _, newCmd := range []func(*RootOptions) *cobra.Command{
		NewStreamsCommand, NewLogCommand, NewVerifyCommand,
	} {
		_, err := execute(t, newCmd(&RootOptions{Format: "text"}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "required flag")
	}
}

func TestMissingDatabaseFile(t *testing.T) {
	_, err := execute(t, NewStreamsCommand(&RootOptions{Format: "text"}),
		"--db", filepath.Join(t.TempDir(), "absent.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal not found")
}

func TestStreams_Empty(t *testing.T) {
	out, err := execute(t, NewStreamsCommand(&RootOptions{Format: "text"}), "--db", emptyJournal(t))
	require.NoError(t, err)
	assert.Equal(t, "No streams found in journal.\n", out)
}

func TestStreams_Text(t *testing.T) {
	out, err := execute(t, NewStreamsCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, []string{"STREAM", "TYPE", "ENTRIES", "LAST", "SEQ"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"user/1", profileType, "2", "2"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"user/2", profileType, "1", "1"}, strings.Fields(lines[2]))
}

func TestStreams_YAML(t *testing.T) {
	out, err := execute(t, NewStreamsCommand(&RootOptions{Format: "yaml"}), "--db", seedJournal(t))
	require.NoError(t, err)

	var resp struct {
		Status string        `yaml:"status"`
		Data   StreamsResult `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []journal.Stream{
		{Name: "user/1", Type: profileType, Entries: 2, LastSeq: 2},
		{Name: "user/2", Type: profileType, Entries: 1, LastSeq: 1},
	}, resp.Data.Streams)
}

func TestLog_TextGolden(t *testing.T) {
	out, err := execute(t, NewLogCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t))
	require.NoError(t, err)
	testutil.AssertGolden(t, "log_text", []byte(out))
}

func TestLog_Stream(t *testing.T) {
	out, err := execute(t, NewLogCommand(&RootOptions{Format: "text"}),
		"--db", seedJournal(t), "--stream", "user/2")
	require.NoError(t, err)
	assert.Equal(t, "user/2 #1 e-0002 {\"name\":\"grace\"}\n", out)

	out, err = execute(t, NewLogCommand(&RootOptions{Format: "text"}),
		"--db", seedJournal(t), "--stream", "nobody")
	require.NoError(t, err)
	assert.Equal(t, "No entries found.\n", out)
}

func TestLog_JSON(t *testing.T) {
	out, err := execute(t, NewLogCommand(&RootOptions{Format: "json"}),
		"--db", seedJournal(t), "--stream", "user/1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Entries []map[string]any `json:"entries"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Entries, 2)
	assert.Equal(t, "e-0001", resp.Data.Entries[0]["id"])
	assert.Equal(t, map[string]any{"age": float64(37)}, resp.Data.Entries[0]["patch"])
	assert.Equal(t, map[string]any{"name": "ada l"}, resp.Data.Entries[1]["patch"])
	assert.Equal(t, journal.PatchHash([]byte(`{"age":37}`)), resp.Data.Entries[0]["hash"])
}

func TestShow_Text(t *testing.T) {
	out, err := execute(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t), "e-0003")
	require.NoError(t, err)

	assert.Contains(t, out, "id:     e-0003\n")
	assert.Contains(t, out, "stream: user/1\n")
	assert.Contains(t, out, "seq:    2\n")
	assert.Contains(t, out, "type:   "+profileType+"\n")
	assert.Contains(t, out, `"name": "ada l"`)
}

func TestShow_YAML(t *testing.T) {
	out, err := execute(t, NewShowCommand(&RootOptions{Format: "yaml"}), "--db", seedJournal(t), "e-0001")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	data := resp["data"].(map[string]any)
	assert.Equal(t, "e-0001", data["id"])
	assert.Equal(t, map[string]any{"age": 37}, data["patch"])
}

func TestShow_NotFound(t *testing.T) {
	out, err := execute(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t), "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, journal.ErrNotFound)
	assert.Contains(t, out, "Error [E_NOT_FOUND]: no entry with id nope")
}

func TestShow_RequiresID(t *testing.T) {
	_, err := execute(t, NewShowCommand(&RootOptions{Format: "text"}), "--db", seedJournal(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestVerify(t *testing.T) {
	path := seedJournal(t)

	out, err := execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "✓ 3 entries verified\n", out)

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE entries SET patch = '{"age":99}' WHERE id = 'e-0001'`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err = execute(t, NewVerifyCommand(&RootOptions{Format: "text"}), "--db", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ e-0001 (stream user/1)")
	assert.Contains(t, out, "✗ 1 of 3 entries failed verification\n")
}

func TestRootExecute_Log(t *testing.T) {
	out, err := execute(t, NewRootCommand(), "log", "--db", seedJournal(t), "--stream", "user/2")
	require.NoError(t, err)
	assert.Equal(t, "user/2 #1 e-0002 {\"name\":\"grace\"}\n", out)
}
