package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/classcal/internal/calendar"
)

// HealthReport is the health command's JSON payload.
type HealthReport struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Backend    string `json:"backend"`
	EventCount *int   `json:"event_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (r HealthReport) String() string {
	if r.Status != "ok" {
		return fmt.Sprintf("%s: %s (%s)", r.Backend, r.Status, r.Error)
	}
	return fmt.Sprintf("%s: ok, %d event(s)", r.Backend, *r.EventCount)
}

// NewHealthCommand creates the health command.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured store is reachable",
		Long: `Check that the configured store is reachable and count its events.

Exits 1 when the store is degraded and 2 when it cannot be opened at all.`,
		Args:          rootOpts.checkArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, cmd, func(ctx context.Context, s calendar.EventStore, f *OutputFormatter) error {
				return runHealth(ctx, s, f, time.Now)
			})
		},
	}
}

func runHealth(ctx context.Context, s calendar.EventStore, f *OutputFormatter, now func() time.Time) error {
	h := s.HealthCheck(ctx)
	report := HealthReport{
		Timestamp: now().UTC().Format(calendar.TimestampLayout),
		Backend:   h.Backend,
	}
	if !h.OK {
		report.Status = "error"
		report.Error = calendar.MsgStorageUnavailable
		f.VerboseLog("health check failed: %s", h.Error)
		if f.Format == "json" {
			_ = f.Success(report)
		} else {
			_ = f.Error(string(calendar.ErrCodeStorageUnavailable), report.String(), nil)
		}
		return reported(NewExitError(ExitFailure, "store degraded"))
	}

	report.Status = "ok"
	report.EventCount = &h.EventCount
	return f.Success(report)
}
