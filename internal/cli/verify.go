package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rapportlabs/rapport/internal/canonical"
	"github.com/rapportlabs/rapport/internal/doc"
	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/reducer"
	"github.com/rapportlabs/rapport/internal/replica"
	"github.com/rapportlabs/rapport/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Database string
}

// VerifyResult reports the outcome of a verification run.
type VerifyResult struct {
	Events     int64 `json:"events"`
	Snapshots  int64 `json:"snapshots"`
	Converged  bool  `json:"converged"`
	DocumentSz int   `json:"documentBytes"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that snapshot plus log tail equals a full replay",
		Long: `Reconstruct the document two ways - a full replay of the log from an
empty document, and the boot path (latest snapshot plus log tail) -
and compare their canonical JSON forms byte for byte.

A mismatch means the snapshot has diverged from the log it claims to
summarize, and exits with status 1.

Examples:
  rapport verify --db ./rapport.db
  rapport verify --db ./rapport.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
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
	eng := engine.New(registry)

	// Full replay from the empty document.
	events, err := st.ReadAllEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	full, err := eng.Replay(doc.New(), events)
	if err != nil {
		return WrapExitError(ExitFailure, "full replay failed", err)
	}

	// Boot path: snapshot plus tail.
	booted, _, err := replica.LoadDocument(ctx, st, eng)
	if err != nil {
		return WrapExitError(ExitFailure, "boot reconstruction failed", err)
	}

	fullJSON, err := canonical.Marshal(full)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to serialize document", err)
	}
	bootJSON, err := canonical.Marshal(booted)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to serialize document", err)
	}

	eventCount, err := st.CountEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}
	snapCount, err := st.CountSnapshots(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count snapshots", err)
	}

	result := VerifyResult{
		Events:     eventCount,
		Snapshots:  snapCount,
		Converged:  bytes.Equal(fullJSON, bootJSON),
		DocumentSz: len(fullJSON),
	}

	if opts.Format == "json" {
		if err := outputJSON(cmd, result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Events: %d, snapshots: %d\n", result.Events, result.Snapshots)
		if result.Converged {
			fmt.Fprintln(w, "OK: snapshot + tail matches full replay")
		} else {
			fmt.Fprintln(w, "MISMATCH: snapshot + tail diverges from full replay")
		}
	}

	if !result.Converged {
		return NewExitError(ExitFailure, "snapshot diverges from log replay")
	}
	return nil
}
