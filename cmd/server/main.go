package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/fastcall/internal/adapters/http"
	sig "github.com/dkeye/fastcall/internal/adapters/signal"
	"github.com/dkeye/fastcall/internal/app"
	"github.com/dkeye/fastcall/internal/config"
	"github.com/dkeye/fastcall/internal/core"
	"github.com/dkeye/fastcall/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	closer, err := setupLogger(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logger")
	}
	defer closer.Close()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	policy, err := app.PolicyFor(cfg.SlowConsumer)
	if err != nil {
		return err
	}

	reg := core.NewRegistry()
	sessions := app.NewSessions()
	m := metrics.New(reg.RoomCount, sessions.Len)

	d := &app.Dispatcher{
		Registry:          reg,
		Broadcaster:       core.NewBroadcaster(reg),
		Sessions:          sessions,
		Policy:            policy,
		Routes:            app.DefaultRoutes(),
		Metrics:           m,
		MessagesPerSecond: cfg.MessagesPerSecond,
		MessageBurst:      cfg.MessageBurst,
	}

	var limiter *sig.JoinRateLimiter
	if cfg.JoinAttempts > 0 {
		limiter = sig.NewJoinRateLimiter(cfg.JoinAttempts, cfg.JoinWindow)
	}
	ctl := sig.NewSignalWSController(d, limiter, sig.Options{
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		WriteWait:  cfg.WriteWait,
		SendQueue:  cfg.SendQueue,
	}, cfg.AllowedOrigins)

	r := router.SetupRouter(ctx, cfg, d, ctl, m.Handler())
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("fastcall signaling server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		n := sessions.CancelAll()
		log.Info().Int("sessions", n).Msg("closed live sessions")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		return nil
	})
	return g.Wait()
}
