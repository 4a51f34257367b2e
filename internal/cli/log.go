package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rapportlabs/rapport/internal/engine"
	"github.com/rapportlabs/rapport/internal/event"
	"github.com/rapportlabs/rapport/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Database string
	EntityID string
	Since    string
}

// LogEntry is one event row rendered for output.
type LogEntry struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	EntityID  string          `json:"entityId,omitempty"`
	DeviceID  string          `json:"deviceId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List the event log in canonical replay order",
		Long: `List the append-only event log in canonical replay order
(timestamp, then device id, then event id).

Examples:
  rapport log --db ./rapport.db
  rapport log --db ./rapport.db --entity cont_1f3a
  rapport log --db ./rapport.db --since 2026-01-01T00:00:00Z --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.EntityID, "entity", "", "filter to events targeting one entity")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only events strictly after this RFC 3339 timestamp")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	events, err := readLogEvents(ctx, st, opts)
	if err != nil {
		return err
	}

	entries := make([]LogEntry, 0, len(events))
	for _, evt := range events {
		payload, err := event.MarshalPayload(evt.Payload)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to render payload", err)
		}
		entries = append(entries, LogEntry{
			ID:        evt.ID,
			Type:      string(evt.Type),
			EntityID:  resolvedEntityID(evt),
			DeviceID:  evt.DeviceID,
			Timestamp: evt.Timestamp,
			Payload:   json.RawMessage(payload),
		})
	}

	if opts.Format == "json" {
		return outputJSON(cmd, entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "(empty log)")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-25s %-12s %s\n",
			e.Timestamp.UTC().Format(time.RFC3339), e.Type, e.DeviceID, e.EntityID)
		if opts.Verbose {
			fmt.Fprintf(w, "  id=%s payload=%s\n", e.ID, e.Payload)
		}
	}
	fmt.Fprintf(w, "%d event(s)\n", len(entries))
	return nil
}

func readLogEvents(ctx context.Context, st *store.Store, opts *LogOptions) ([]event.Event, error) {
	if opts.Since != "" {
		since, err := time.Parse(time.RFC3339Nano, opts.Since)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "invalid --since timestamp", err)
		}
		events, err := st.ReadEventsSince(ctx, since)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read events", err)
		}
		return filterByEntity(events, opts.EntityID), nil
	}

	events, err := st.ReadAllEvents(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read events", err)
	}
	return filterByEntity(events, opts.EntityID), nil
}

// filterByEntity keeps events whose resolved target matches entityID.
// Resolution covers creation events that carry the id in the payload.
func filterByEntity(events []event.Event, entityID string) []event.Event {
	if entityID == "" {
		return events
	}
	out := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if resolvedEntityID(evt) == entityID {
			out = append(out, evt)
		}
	}
	return out
}

func resolvedEntityID(evt event.Event) string {
	if id, err := engine.ResolveEntityID(evt); err == nil {
		return id
	}
	return evt.EntityID
}
