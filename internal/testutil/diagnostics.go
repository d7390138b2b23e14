package testutil

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/roach88/reclens/internal/diag"
)

// Record is one captured diagnostic.
type Record struct {
	Level  string `json:"level"`
	Msg    string `json:"msg"`
	Type   string `json:"type"`
	Field  string `json:"field"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// Diagnostics collects everything written to the diag channel while a test
// runs.
//
// The diag logger is process-wide; tests that capture must not run in
// parallel with each other.
type Diagnostics struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// CaptureDiagnostics installs a capturing logger (debug level and up) for
// the rest of the test.
func CaptureDiagnostics(t *testing.T) *Diagnostics {
	t.Helper()

	d := &Diagnostics{}
	h := slog.NewJSONHandler(d, &slog.HandlerOptions{Level: slog.LevelDebug})
	restore := diag.SetLogger(slog.New(h))
	t.Cleanup(restore)
	return d
}

func (d *Diagnostics) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.Write(p)
}

// Records returns the captured records in emission order.
func (d *Diagnostics) Records() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()

	records := []Record{}
	sc := bufio.NewScanner(bytes.NewReader(d.buf.Bytes()))
	for sc.Scan() {
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	return records
}

// Matching returns the captured records with the given message.
func (d *Diagnostics) Matching(msg string) []Record {
	var out []Record
	for _, r := range d.Records() {
		if r.Msg == msg {
			out = append(out, r)
		}
	}
	return out
}

// Reset discards everything captured so far.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf.Reset()
}
