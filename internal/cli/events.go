package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/classcal/internal/calendar"
)

// EventsOptions holds flags shared by the events subcommands.
type EventsOptions struct {
	*RootOptions

	Date        string
	Title       string
	Time        string
	Description string
	Instructor  string
}

// NewEventsCommand creates the events command group.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List and edit events in the configured store",
		Long: `List and edit events directly in the configured store.

These commands open the same backend as serve and apply the same validation
and sanitization rules. Do not point them at a file store that a running
server is writing to.`,
	}

	cmd.AddCommand(newEventsListCommand(&EventsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newEventsAddCommand(&EventsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newEventsUpdateCommand(&EventsOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newEventsDeleteCommand(&EventsOptions{RootOptions: rootOpts}))

	return cmd
}

func newEventsListCommand(opts *EventsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events ordered by date and time",
		Example: `  classcal events list
  classcal events list --date 2024-01-01 --format json`,
		Args:          opts.checkArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts.RootOptions, cmd, func(ctx context.Context, s calendar.EventStore, f *OutputFormatter) error {
				var (
					events []calendar.Event
					err    error
				)
				if opts.Date != "" {
					events, err = s.ListByDate(ctx, opts.Date)
				} else {
					events, err = s.ListAll(ctx)
				}
				if err != nil {
					return f.Fail(err)
				}
				f.VerboseLog("%d event(s)", len(events))
				if f.Format == "json" {
					return f.Success(events)
				}
				return f.Success(eventTable(events))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Date, "date", "", "only events on this date")
	return cmd
}

func newEventsAddCommand(opts *EventsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an event",
		Example: `  classcal events add --title "Morning Yoga" --date 2024-01-01 --time 09:00 --instructor Ann`,
		Args:          opts.checkArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := calendar.Input{
				Title:       opts.Title,
				Date:        opts.Date,
				Time:        opts.Time,
				Description: opts.Description,
				Instructor:  opts.Instructor,
			}
			return withStore(opts.RootOptions, cmd, func(ctx context.Context, s calendar.EventStore, f *OutputFormatter) error {
				e, err := s.Create(ctx, in)
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(eventResult(f, e, "Created"))
			})
		},
	}
	opts.bindFieldFlags(cmd)
	return cmd
}

func newEventsUpdateCommand(opts *EventsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an existing event",
		Long: `Change fields of an existing event.

Only flags given on the command line are applied; an empty value such as
--description "" clears that field.`,
		Example:       `  classcal events update 3 --time 13:00`,
		Args:          opts.checkArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return opts.formatter(cmd).Usage(err)
			}
			p := opts.patch(cmd)
			return withStore(opts.RootOptions, cmd, func(ctx context.Context, s calendar.EventStore, f *OutputFormatter) error {
				e, err := s.Update(ctx, id, p)
				if err != nil {
					return f.Fail(err)
				}
				return f.Success(eventResult(f, e, "Updated"))
			})
		},
	}
	opts.bindFieldFlags(cmd)
	return cmd
}

func newEventsDeleteCommand(opts *EventsOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <id>",
		Short:         "Delete an event",
		Args:          opts.checkArgs(cobra.ExactArgs(1)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return opts.formatter(cmd).Usage(err)
			}
			return withStore(opts.RootOptions, cmd, func(ctx context.Context, s calendar.EventStore, f *OutputFormatter) error {
				if err := s.Delete(ctx, id); err != nil {
					return f.Fail(err)
				}
				if f.Format == "json" {
					return f.Success(map[string]int64{"deleted": id})
				}
				return f.Success(fmt.Sprintf("Deleted event %d", id))
			})
		},
	}
}

func (o *EventsOptions) bindFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Title, "title", "", "event title")
	cmd.Flags().StringVar(&o.Date, "date", "", "event date")
	cmd.Flags().StringVar(&o.Time, "time", "", "start time")
	cmd.Flags().StringVar(&o.Description, "description", "", "description")
	cmd.Flags().StringVar(&o.Instructor, "instructor", "", "instructor name")
}

// patch collects the flags that were set explicitly.
func (o *EventsOptions) patch(cmd *cobra.Command) calendar.Patch {
	var p calendar.Patch
	set := func(name string, v string, dst **string) {
		if cmd.Flags().Changed(name) {
			*dst = &v
		}
	}
	set("title", o.Title, &p.Title)
	set("date", o.Date, &p.Date)
	set("time", o.Time, &p.Time)
	set("description", o.Description, &p.Description)
	set("instructor", o.Instructor, &p.Instructor)
	return p
}

// withStore loads config, opens the store, runs fn and closes the store.
// Config and open failures exit 2.
func withStore(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, calendar.EventStore, *OutputFormatter) error) error {
	f := opts.formatter(cmd)

	cfg, err := opts.loadConfig()
	if err != nil {
		_ = f.Error(ErrCodeConfig, err.Error(), nil)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return reported(exitErr)
		}
		return err
	}
	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	s, _, err := openStore(cfg, logger)
	if err != nil {
		_ = f.Error(string(calendar.ErrCodeStorageUnavailable), calendar.MsgStorageUnavailable, err.Error())
		return reported(WrapExitError(ExitCommandError, "failed to open store", err))
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s, f)
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid event id %q", s)
	}
	return id, nil
}

func eventResult(f *OutputFormatter, e calendar.Event, verb string) any {
	if f.Format == "json" {
		return e
	}
	return fmt.Sprintf("%s event %d\n%s", verb, e.ID, eventTable{e})
}

// eventTable renders events one per line for text output.
type eventTable []calendar.Event

func (t eventTable) String() string {
	if len(t) == 0 {
		return "No events"
	}
	var b strings.Builder
	for i, e := range t {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%4d  %s", e.ID, e.Date)
		if e.Time != "" {
			fmt.Fprintf(&b, " %s", e.Time)
		}
		fmt.Fprintf(&b, "  %s", e.Title)
		if e.Instructor != "" {
			fmt.Fprintf(&b, " (%s)", e.Instructor)
		}
	}
	return b.String()
}
