package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/snacka/voice/internal/adapters/http"
	"github.com/snacka/voice/internal/adapters/rtc"
	signalws "github.com/snacka/voice/internal/adapters/signal"
	"github.com/snacka/voice/internal/app"
	"github.com/snacka/voice/internal/app/orch"
	"github.com/snacka/voice/internal/app/sfu"
	"github.com/snacka/voice/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	engine := rtc.NewEngine(cfg.ICEServers)
	presence := app.NewConnectionPresenceTracker()
	bridge := app.NewSignalingBridge(presence, app.SimplePolicy{})
	fanout := app.NewScreenShareFanout()
	relays := sfu.NewRelayManager()
	notifier := signalws.NewNotifier(bridge)
	sessions := app.NewSessionRegistry(engine, fanout, notifier.IceCandidate)

	o := &orch.Orchestrator{
		Sessions: sessions,
		Fanout:   fanout,
		Presence: presence,
		Bridge:   bridge,
		Relays:   relays,
		Events:   notifier,
	}

	limiter := app.NewSignalRateLimiter(cfg.SignalRateLimit, cfg.SignalRateInterval)
	ctl := signalws.NewSignalWSController(o, limiter, cfg.ReadLimit, cfg.PingPeriod)

	r := router.SetupRouter(ctx, cfg, o, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("voice server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	sessions.CloseAll()
	log.Info().Msg("server exited gracefully")
}
