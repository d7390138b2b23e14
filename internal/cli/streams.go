package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/reclens/internal/journal"
)

// StreamsOptions holds flags for the streams command.
type StreamsOptions struct {
	*RootOptions
	Database string
}

// StreamsResult lists the streams of a journal.
type StreamsResult struct {
	Streams []journal.Stream `json:"streams" yaml:"streams"`
}

func (r StreamsResult) String() string {
	if len(r.Streams) == 0 {
		return "No streams found in journal.\n"
	}
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STREAM\tTYPE\tENTRIES\tLAST SEQ")
	for _, s := range r.Streams {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Name, s.Type, s.Entries, s.LastSeq)
	}
	w.Flush()
	return b.String()
}

// NewStreamsCommand creates the streams command.
func NewStreamsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StreamsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "streams",
		Short: "List the streams in a journal",
		Long: `List every stream in the journal with its record type, entry count and
last sequence number.

Examples:
  lensctl streams --db ./journal.db
  lensctl streams --db ./journal.db --format yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStreams(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStreams(ctx context.Context, opts *StreamsOptions, cmd *cobra.Command) error {
	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	streams, err := st.Streams(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list streams", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return out.Success(StreamsResult{Streams: streams})
}
