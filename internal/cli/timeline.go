package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/reducer"
	"github.com/rapportlabs/rapport/internal/replica"
	"github.com/rapportlabs/rapport/internal/store"
	"github.com/rapportlabs/rapport/internal/view"
)

// TimelineOptions holds flags for the timeline command.
type TimelineOptions struct {
	*RootOptions
	Database string
	EntityID string
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TimelineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Show the chronological activity for one entity",
		Long: `Reconstruct the document from the database and print the entity's
timeline: interactions that touched it interleaved with linked notes,
oldest first.

Examples:
  rapport timeline --db ./rapport.db --entity cont_1f3a
  rapport timeline --db ./rapport.db --entity acct_9b21 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimeline(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.EntityID, "entity", "", "entity id (required)")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

func runTimeline(opts *TimelineOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	registry, err := reducer.Default()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build reducers", err)
	}

	d, _, err := replica.LoadDocument(ctx, st, engine.New(registry))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to reconstruct document", err)
	}

	entries := view.Timeline(d, opts.EntityID)

	if opts.Format == "json" {
		return outputJSON(cmd, entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(w, "No activity for entity: %s\n", opts.EntityID)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-11s %s\n", e.Timestamp.UTC().Format(time.RFC3339), e.Kind, e.Headline)
		if opts.Verbose {
			fmt.Fprintf(w, "  id=%s\n", e.ID)
		}
	}
	fmt.Fprintf(w, "%d entr(ies)\n", len(entries))
	return nil
}
