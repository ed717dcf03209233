// Package gymtrack assembles the application: storage adapters, the sync
// controller, the notification sink and the HTTP server.
package gymtrack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yahyaheni/gymtrack/internal/config"
	"github.com/yahyaheni/gymtrack/internal/lib/sl"
	"github.com/yahyaheni/gymtrack/internal/metrics"
	"github.com/yahyaheni/gymtrack/internal/notify"
	"github.com/yahyaheni/gymtrack/internal/services/tracker"
	"github.com/yahyaheni/gymtrack/internal/storage/local"
	"github.com/yahyaheni/gymtrack/internal/storage/remote"
	"github.com/yahyaheni/gymtrack/internal/store"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	remote *remote.Remote
	cache  *local.Cache
	sink   notify.Sink
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.gymtrack.New"

	cache, err := local.Open(cfg.LocalCachePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var remoteStore *remote.Remote
	if cfg.StorageConnectionString != "" {
		remoteStore, err = remote.New(cfg.StorageConnectionString)
		if err != nil {
			logger.Warn("remote store unavailable, starting offline", sl.Err(err))
		}
	}

	var sink notify.Sink = notify.NewSlogSink(logger)
	if cfg.AMQP.URL != "" {
		amqpSink, err := notify.NewAMQPSink(cfg.AMQP.URL, cfg.AMQP.Queue, logger)
		if err != nil {
			logger.Warn("notification broker unavailable, logging only", sl.Err(err))
		} else {
			sink = amqpSink
		}
	}

	st := store.New()
	m := metrics.New(prometheus.DefaultRegisterer)

	probeCtx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()
	var remoteIface tracker.RemoteStore
	if remoteStore != nil {
		remoteIface = remoteStore
	}
	service := tracker.New(probeCtx, remoteIface, cache, st, sink, m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, service, st)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		remote: remoteStore,
		cache:  cache,
		sink:   sink,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.remote != nil {
			_ = a.remote.Close()
		}
		if closer, ok := a.sink.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		_ = a.cache.Close()
		return err
	}
}
