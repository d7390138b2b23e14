package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reclens/internal/journal"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	Stream   string // optional - one stream only
}

// LogResult is an ordered list of entries.
type LogResult struct {
	Entries []EntryView `json:"entries" yaml:"entries"`
}

func (r LogResult) String() string {
	if len(r.Entries) == 0 {
		return "No entries found.\n"
	}
	var b strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&b, "%s #%d %s %s\n", e.Stream, e.Seq, e.ID, e.compact())
	}
	return b.String()
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Print journal entries in order",
		Long: `Print the entries of one stream, or of every stream, ordered by stream
and sequence number. Each line shows the stream, seq, entry id and patch.

Examples:
  lensctl log --db ./journal.db
  lensctl log --db ./journal.db --stream user/42
  lensctl log --db ./journal.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Stream, "stream", "", "print one stream only")

	return cmd
}

func runLog(ctx context.Context, opts *LogOptions, cmd *cobra.Command) error {
	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var entries []journal.Entry
	if opts.Stream != "" {
		entries, err = st.Entries(ctx, opts.Stream)
	} else {
		entries, err = st.All(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}

	result := LogResult{Entries: make([]EntryView, 0, len(entries))}
	for _, e := range entries {
		v, err := newEntryView(e)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read entries", err)
		}
		result.Entries = append(result.Entries, v)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(result)
}
