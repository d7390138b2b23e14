package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/reclens/internal/journal"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Database string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print one journal entry",
		Long: `Print one entry with its hash and its patch.

Exit codes:
  0 - Entry printed
  2 - Entry or journal not found

Examples:
  lensctl show --db ./journal.db 0190c5a8-...`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(ctx context.Context, opts *ShowOptions, cmd *cobra.Command, id string) error {
	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	e, err := st.Get(ctx, id)
	if errors.Is(err, journal.ErrNotFound) {
		if ferr := out.Error("E_NOT_FOUND", "no entry with id "+id, nil); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitCommandError, "entry not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entry", err)
	}

	v, err := newEntryView(e)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entry", err)
	}
	return out.Success(v)
}
