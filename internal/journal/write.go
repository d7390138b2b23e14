package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/reclens/internal/diag"
	"github.com/roach88/reclens/lens"
)

// Entry is one journaled update lens.
type Entry struct {
	ID     string          `json:"id" yaml:"id"`
	Stream string          `json:"stream" yaml:"stream"`
	Type   string          `json:"type" yaml:"type"`
	Seq    int64           `json:"seq" yaml:"seq"`
	Patch  json.RawMessage `json:"patch" yaml:"-"`
	Hash   string          `json:"hash" yaml:"hash"`
}

// TypeName is the record type name stored for lenses of T.
func TypeName[T any]() string {
	return diag.TypeName(reflect.TypeFor[T]())
}

// Append stores e and returns it with ID, Seq and Hash filled in. Seq is
// always the stream's next sequence number. Appending an id that already
// exists returns the stored entry unchanged.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.Stream == "" {
		return Entry{}, errors.New("append entry: empty stream")
	}
	if e.Type == "" {
		return Entry{}, errors.New("append entry: empty record type")
	}
	if !json.Valid(e.Patch) {
		return Entry{}, fmt.Errorf("append entry to %s: patch is not valid JSON", e.Stream)
	}
	if e.ID == "" {
		e.ID = s.ids.Generate()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	defer tx.Rollback()

	existing, err := scanEntry(tx.QueryRowContext(ctx, selectEntries+` WHERE id = ?`, e.ID))
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM entries WHERE stream = ?`, e.Stream,
	).Scan(&e.Seq); err != nil {
		return Entry{}, fmt.Errorf("append entry: next seq: %w", err)
	}
	e.Hash = PatchHash(e.Patch)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (id, stream, record_type, seq, patch, hash)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Stream, e.Type, e.Seq, string(e.Patch), e.Hash); err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}

	diag.Logger().Debug("journal entry appended",
		"id", e.ID, "stream", e.Stream, "type", e.Type, "seq", e.Seq)
	return e, nil
}

// AppendLens journals l on stream.
func AppendLens[T any](ctx context.Context, s *Store, stream string, l lens.Lens[T]) (Entry, error) {
	patch, err := json.Marshal(l)
	if err != nil {
		return Entry{}, fmt.Errorf("encode patch for %s: %w", stream, err)
	}
	return s.Append(ctx, Entry{Stream: stream, Type: TypeName[T](), Patch: patch})
}

// Record journals the fields that changed from before to after. Nothing
// is written when the two project to equal lenses; ok reports whether an
// entry was appended.
func Record[T any](ctx context.Context, s *Store, stream string, before, after T) (e Entry, ok bool, err error) {
	from, err := lens.FromInstance(before)
	if err != nil {
		return Entry{}, false, err
	}
	to, err := lens.FromInstance(after)
	if err != nil {
		return Entry{}, false, err
	}

	d := lens.Diff(to, from)
	if d.Len() == 0 {
		return Entry{}, false, nil
	}
	e, err = AppendLens(ctx, s, stream, d)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}
