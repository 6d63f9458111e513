package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ideanest-backend/internal/app"
	"ideanest-backend/internal/config"
	"ideanest-backend/internal/interfaces/router"
	"ideanest-backend/internal/pkg/logging"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logging.Setup(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app build")
	}
	defer c.Close()

	if err := c.Health.DB.Ping(); err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	log.Info().Msg("postgres connected")
	if err := c.Rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Msg("redis connected")

	if cfg.DocumentSweepSchedule != "" {
		if err := c.Sweeper.Start(cfg.DocumentSweepSchedule); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.DocumentSweepSchedule).Msg("document sweeper")
		}
	}

	fa := router.CreateApp(c)
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := fa.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("server listening")
	if err := fa.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("listen")
	}
}
