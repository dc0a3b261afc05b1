package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/railwatch/railwatch/internal/api"
	"github.com/railwatch/railwatch/internal/config"
	"github.com/railwatch/railwatch/internal/feed"
	"github.com/railwatch/railwatch/internal/movement"
	"github.com/railwatch/railwatch/internal/store"
	"github.com/railwatch/railwatch/internal/tracker"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed consumer and projection server",
		Long: `Run the railwatch daemon: connect to the upstream feed, apply step
events to the train store and serve the current picture over HTTP.

Example:
  railwatch serve --config config.yml
  railwatch serve --config /etc/railwatch/config.yml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts)
		},
	}
}

func runServe(opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Store initialization is the only fatal path: without a valid
	// store there is no state to serve.
	slog.Info("opening store", "path", cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
		}
	}()

	tk := tracker.New(st, cfg.Tracker.Areas,
		tracker.WithTakeoverPolicy(tracker.TakeoverPolicy(cfg.Tracker.Takeover)))

	session := feed.NewSession(feed.Config{
		Host:             cfg.Feed.Host,
		Port:             cfg.Feed.Port,
		Username:         cfg.Feed.Username,
		Password:         cfg.Feed.Password,
		SubscriptionName: cfg.Feed.SubscriptionName,
		ReconnectBase:    time.Duration(cfg.Feed.ReconnectBaseSeconds) * time.Second,
	}, tk, movement.NewIngester(st))

	srv := api.Server(":"+strconv.Itoa(cfg.Server.Port), api.NewHandler(st, tk))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 3)

	go func() {
		if err := tk.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- err
		}
	}()
	go func() {
		if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errc <- err
		}
	}()
	go func() {
		slog.Info("projection server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errc:
		stop()
		slog.Error("component failed", "error", err)
		defer shutdownServer(srv)
		return WrapExitError(ExitFailure, "runtime failure", err)
	}

	shutdownServer(srv)
	tk.Stop()
	return nil
}

func shutdownServer(srv *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
}
