// Command railclawd runs the Railclaw payment orchestrator as a standalone
// HTTP service.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/railclaw/orchestrator/internal/logger"
	"github.com/railclaw/orchestrator/pkg/railclaw"
)

func main() {
	configPath := flag.String("config", os.Getenv("RAILCLAW_CONFIG"), "path to the YAML configuration file")
	flag.Parse()

	cfg, err := railclaw.LoadConfig(*configPath)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("railclawd.load_config_failed")
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "railclawd",
		Environment: cfg.Logging.Environment,
	})

	ctx, cancel := context.WithCancel(context.Background())

	app, err := railclaw.NewApp(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("railclawd.build_app_failed")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      app.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  cfg.Server.IdleTimeout.Duration,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Address).Msg("railclawd.listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("railclawd.server_error")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("railclawd.shutting_down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("railclawd.server_forced_shutdown")
	}
	if err := app.Close(); err != nil {
		log.Error().Err(err).Msg("railclawd.app_close_failed")
	}
}
