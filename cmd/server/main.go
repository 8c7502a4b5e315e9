package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shirtdown/shirtdown/internal/comms"
	"github.com/shirtdown/shirtdown/internal/config"
	"github.com/shirtdown/shirtdown/internal/game"
	"github.com/shirtdown/shirtdown/internal/server"
)

const version = "v1.0.0"

func main() {
	var portFlag string

	cmd := &cobra.Command{
		Use:           "shirtdown",
		Short:         "Party game server: draw shirts, write slogans, rank everything.",
		Version:       version,
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if portFlag != "" {
				cfg.Port = portFlag
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringVarP(&portFlag, "port", "p", "", "port to listen on (overrides PORT env var)")

	if err := cmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg config.Config) error {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	registry := game.NewRegistry(logger)
	comm := comms.New(logger)
	srv := server.New(cfg, registry, comm, logger)

	r, io := srv.Router()
	defer io.Close()

	// Abandoned rooms are cleaned up in the background; there is no
	// explicit teardown endpoint.
	go func() {
		for range time.Tick(cfg.SweepEvery) {
			removed := registry.Sweep(cfg.IdleTimeout)
			for _, code := range removed {
				comm.Forget(code)
			}
			if len(removed) > 0 {
				logger.Info().Int("rooms", len(removed)).Msg("swept idle rooms")
			}
		}
	}()

	logger.Info().Str("port", cfg.Port).Msg("listening")
	return r.Run(":" + cfg.Port)
}
