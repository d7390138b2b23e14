package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/roach88/reclens/internal/journal"
)

// openJournal opens an existing journal. journal.Open would create a
// missing file, which is never what an inspection command wants.
func openJournal(path string) (*journal.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := journal.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

// EntryView is a journal entry with its patch decoded for output.
type EntryView struct {
	ID     string `json:"id" yaml:"id"`
	Stream string `json:"stream" yaml:"stream"`
	Type   string `json:"type" yaml:"type"`
	Seq    int64  `json:"seq" yaml:"seq"`
	Hash   string `json:"hash" yaml:"hash"`
	Patch  any    `json:"patch" yaml:"patch"`

	raw json.RawMessage
}

func newEntryView(e journal.Entry) (EntryView, error) {
	var patch any
	if err := json.Unmarshal(e.Patch, &patch); err != nil {
		return EntryView{}, fmt.Errorf("decode patch of %s: %w", e.ID, err)
	}
	return EntryView{
		ID:     e.ID,
		Stream: e.Stream,
		Type:   e.Type,
		Seq:    e.Seq,
		Hash:   e.Hash,
		Patch:  patch,
		raw:    e.Patch,
	}, nil
}

func (v EntryView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "id:     %s\n", v.ID)
	fmt.Fprintf(&b, "stream: %s\n", v.Stream)
	fmt.Fprintf(&b, "type:   %s\n", v.Type)
	fmt.Fprintf(&b, "seq:    %d\n", v.Seq)
	fmt.Fprintf(&b, "hash:   %s\n", v.Hash)
	b.WriteString("patch:\n")

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, v.raw, "  ", "  "); err != nil {
		pretty.Reset()
		pretty.Write(v.raw)
	}
	fmt.Fprintf(&b, "  %s\n", pretty.String())
	return b.String()
}

// compact returns the patch on one line.
func (v EntryView) compact() string {
	var b bytes.Buffer
	if err := json.Compact(&b, v.raw); err != nil {
		return string(v.raw)
	}
	return b.String()
}
