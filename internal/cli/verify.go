package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reclens/internal/journal"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// VerifyResult reports the outcome of a hash check.
type VerifyResult struct {
	Entries    int                `json:"entries" yaml:"entries"`
	Mismatches []journal.Mismatch `json:"mismatches" yaml:"mismatches"`
}

func (r VerifyResult) String() string {
	var b strings.Builder
	for _, m := range r.Mismatches {
		fmt.Fprintf(&b, "✗ %s (stream %s): stored %s, actual %s\n", m.ID, m.Stream, m.Stored, m.Actual)
	}
	if len(r.Mismatches) == 0 {
		fmt.Fprintf(&b, "✓ %d entries verified\n", r.Entries)
	} else {
		fmt.Fprintf(&b, "✗ %d of %d entries failed verification\n", len(r.Mismatches), r.Entries)
	}
	return b.String()
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check every entry's content hash",
		Long: `Recompute the content hash of every entry and report the ones whose
patch no longer matches the stored hash.

Exit codes:
  0 - All entries verified
  1 - At least one mismatch
  2 - Command error (journal not found, etc.)

Examples:
  lensctl verify --db ./journal.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to journal database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(ctx context.Context, opts *VerifyOptions, cmd *cobra.Command) error {
	st, err := openJournal(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	all, err := st.All(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read entries", err)
	}
	bad, err := st.Verify(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to verify entries", err)
	}

	result := VerifyResult{Entries: len(all), Mismatches: bad}
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if err := out.Success(result); err != nil {
		return err
	}
	if len(bad) > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d entries failed verification", len(bad)))
	}
	return nil
}
