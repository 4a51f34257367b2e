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
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Database string
}

// SnapshotResult reports the snapshot that was written.
type SnapshotResult struct {
	SnapshotID string    `json:"snapshotId"`
	Timestamp  time.Time `json:"timestamp"`
	Events     int64     `json:"events"`
	Snapshots  int64     `json:"snapshots"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Materialize the current document into a new snapshot",
		Long: `Reconstruct the document from the latest snapshot plus the log tail,
then write it as a new snapshot stamped at the newest event timestamp.
Old snapshots are kept; boot always picks the newest.

Examples:
  rapport snapshot --db ./rapport.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
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

	d, snapTS, err := replica.LoadDocument(ctx, st, engine.New(registry))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to reconstruct document", err)
	}

	ts, ok, err := st.LastEventTimestamp(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log position", err)
	}
	if !ok {
		ts = snapTS
	}

	snap, err := store.NewSnapshot(d, ts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build snapshot", err)
	}
	if err := st.SaveSnapshot(ctx, snap); err != nil {
		return WrapExitError(ExitCommandError, "failed to save snapshot", err)
	}

	eventCount, err := st.CountEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	snapCount, err := st.CountSnapshots(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count snapshots", err)
	}

	result := SnapshotResult{
		SnapshotID: snap.ID,
		Timestamp:  snap.Timestamp,
		Events:     eventCount,
		Snapshots:  snapCount,
	}

	if opts.Format == "json" {
		return outputJSON(cmd, result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Snapshot written: %s\n", result.SnapshotID)
	fmt.Fprintf(w, "Covers events through: %s\n", result.Timestamp.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Log: %d event(s), %d snapshot(s)\n", result.Events, result.Snapshots)
	return nil
}
