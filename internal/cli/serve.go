package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/classcal/internal/calendar"
	"github.com/roach88/classcal/internal/httpapi"
	"github.com/roach88/classcal/internal/metrics"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string

	// Ready, if set, is called with the bound address once the listener is
	// open (for testing).
	Ready func(addr string)

	// IDs overrides the request id generator (for testing).
	IDs httpapi.IDGenerator
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return newServeCommand(&ServeOptions{RootOptions: rootOpts})
}

func newServeCommand(opts *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the calendar HTTP API until interrupted.

The store is opened once at startup. SIGINT or SIGTERM stops accepting new
connections and waits up to server.shutdown_timeout for in-flight requests.

Example:
  classcal serve
  classcal serve --listen :9090 --backend sqlite --data ./cal.db`,
		Args:          opts.checkArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides server.listen_address)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Server.ListenAddress = opts.Listen
		if err := cfg.Validate(); err != nil {
			return WrapExitError(ExitCommandError, "invalid listen address", err)
		}
	}

	logger := opts.newLogger(cfg, cmd.ErrOrStderr())

	st, backend, err := openStore(cfg, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	handlerOpts := httpapi.Options{IDs: opts.IDs, Logger: logger}
	var es calendar.EventStore = st
	if cfg.MetricsEnabled() {
		m := metrics.New()
		es = metrics.InstrumentStore(st, backend, m)
		handlerOpts.Metrics = m
		handlerOpts.MetricsPath = cfg.Metrics.Path
	}

	srv := httpapi.NewServer(
		cfg.Server.ListenAddress,
		httpapi.NewHandler(es, handlerOpts),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		cfg.Server.IdleTimeout,
	)

	ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	addr := ln.Addr().String()
	logger.Info("server listening", "addr", addr, "backend", backend, "metrics", cfg.MetricsEnabled())
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s (backend %s)\n", addr, backend)
	if opts.Ready != nil {
		opts.Ready(addr)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown incomplete", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}
