package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/grapple/internal/adapters/http/api"
	"github.com/okian/grapple/internal/adapters/source"
	app "github.com/okian/grapple/internal/app"
	"github.com/okian/grapple/internal/config"
	"github.com/okian/grapple/pkg/logger"
	"github.com/okian/grapple/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := setupLogger(ctx, cfg)

	if err := metrics.RegisterRuntimeCollectors(); err != nil {
		log.Warn(ctx, "runtime collectors not registered", logger.Error(err))
	}

	svc, err := app.NewFromConfig(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build pipeline", logger.Error(err))
		os.Exit(1)
	}

	// A failed first run leaves the API up but not ready; SIGHUP retries.
	if err := runPipeline(ctx, svc, cfg.InputDir, log); err != nil {
		log.Error(ctx, "initial pipeline run failed", logger.Error(err))
	}
	go reloadOnHangup(ctx, svc, cfg.InputDir, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	log.Info(shutdownCtx, "server stopped")
}

// setupLogger re-initializes the global logger with the configured format
// and level (falling back to info on invalid input).
func setupLogger(ctx context.Context, cfg *config.Config) logger.Logger {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return log
}

func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(svc, svc, cfg.LeaderboardLimit).Register(ctx, mux)
	return mux
}

// runPipeline recomputes everything from the documents in dir.
func runPipeline(ctx context.Context, svc *app.Service, dir string, log logger.Logger) error {
	docs, err := source.NewLoader(dir, source.WithLogger(log.Named("source"))).Load(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Run(ctx, docs)
	return err
}

// reloadOnHangup rescans dir on SIGHUP and applies only rounds not seen
// before. It falls back to a full run while nothing has run yet.
func reloadOnHangup(ctx context.Context, svc *app.Service, dir string, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := extendPipeline(ctx, svc, dir, log); err != nil {
				log.Error(ctx, "reload failed", logger.Error(err))
			}
		}
	}
}

func extendPipeline(ctx context.Context, svc *app.Service, dir string, log logger.Logger) error {
	if svc.Last() == nil {
		return runPipeline(ctx, svc, dir, log)
	}
	docs, err := source.NewLoader(dir, source.WithLogger(log.Named("source"))).Load(ctx)
	if err != nil {
		return err
	}
	_, err = svc.Extend(ctx, docs)
	return err
}
