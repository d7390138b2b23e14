package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("journal entry not found")

// Stream summarizes one stream.
type Stream struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Entries int    `json:"entries" yaml:"entries"`
	LastSeq int64  `json:"last_seq" yaml:"last_seq"`
}

const selectEntries = `SELECT id, stream, record_type, seq, patch, hash FROM entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var e Entry
	var patch string
	if err := row.Scan(&e.ID, &e.Stream, &e.Type, &e.Seq, &patch, &e.Hash); err != nil {
		return Entry{}, err
	}
	e.Patch = []byte(patch)
	return e, nil
}

// Entries returns the entries of stream ordered by seq ASC, id ASC.
// An unknown stream yields an empty slice.
func (s *Store) Entries(ctx context.Context, stream string) ([]Entry, error) {
	return s.queryEntries(ctx, selectEntries+`
		WHERE stream = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, stream)
}

// All returns every entry ordered by stream, seq, id.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	return s.queryEntries(ctx, selectEntries+`
		ORDER BY stream COLLATE BINARY ASC, seq ASC, id COLLATE BINARY ASC
	`)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, selectEntries+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get %s: %w", id, err)
	}
	return e, nil
}

// Streams lists every stream, ordered by name.
func (s *Store) Streams(ctx context.Context) ([]Stream, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stream, MIN(record_type), COUNT(*), MAX(seq)
		FROM entries
		GROUP BY stream
		ORDER BY stream COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query streams: %w", err)
	}
	defer rows.Close()

	streams := []Stream{}
	for rows.Next() {
		var st Stream
		if err := rows.Scan(&st.Name, &st.Type, &st.Entries, &st.LastSeq); err != nil {
			return nil, fmt.Errorf("scan stream: %w", err)
		}
		streams = append(streams, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streams: %w", err)
	}
	return streams, nil
}
