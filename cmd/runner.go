package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "github.com/tokenlens/burnwatch/configs"
)

var (
	runnerCmd = &cobra.Command{
		Use:   "runner",
		Short: "Run only the background recomputation workers",
		Long:  "Periodically scans the token registry and recomputes stale burn windows without serving the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			engine, err := initEngine()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize burn engine")
			}
			defer engine.reader.Close()
			RunRunner(engine)
		},
	}
)

// RunRunner starts the workers and drives them from a registry scan loop
// instead of the request path.
func RunRunner(e *engine) {
	ctx := context.Background()
	go e.runner.Start(ctx)

	interval := time.Duration(config.Cfg.Runner.RefreshIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	log.Info().Dur("interval", interval).Msg("Starting refresh scan loop")

	e.service.RefreshStale(ctx, time.Now())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		e.service.RefreshStale(ctx, time.Now())
	}
}
