// Command bankerd hosts rooms for remote players.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/undeconstructed/banker/config"
	"github.com/undeconstructed/banker/server"
	"github.com/undeconstructed/banker/store/backend"
	"github.com/undeconstructed/banker/telemetry"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}
	zerolog.SetGlobalLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "bankerd", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		log.Warn().Err(err).Msg("no tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	}()

	st, err := backend.FromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Store).Msg("cannot open store")
	}
	defer st.Close()

	s := server.New(server.Options{
		Config: cfg,
		Store:  st,
	})

	err = s.Run(ctx)
	log.Info().Err(err).Msg("server return")
	if err != nil {
		os.Exit(1)
	}
}
