package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/calculator"
	"github.com/tokenlens/burnwatch/internal/freshness"
	"github.com/tokenlens/burnwatch/internal/handlers"
	"github.com/tokenlens/burnwatch/internal/middleware"
	"github.com/tokenlens/burnwatch/internal/registry"
	"github.com/tokenlens/burnwatch/internal/rpc"
	"github.com/tokenlens/burnwatch/internal/service"
	"github.com/tokenlens/burnwatch/internal/storage"
	"github.com/tokenlens/burnwatch/internal/worker"
)

var (
	apiCmd = &cobra.Command{
		Use:   "api",
		Short: "Serve the burn-metrics HTTP API without the background runner",
		Run: func(cmd *cobra.Command, args []string) {
			engine, err := initEngine()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to initialize burn engine")
			}
			defer engine.reader.Close()
			RunApi(engine)
		},
	}
)

// engine bundles the wired components shared by the API server and the
// background runner.
type engine struct {
	reader   rpc.IChainReader
	storage  storage.IStorage
	service  *service.Service
	runner   *worker.Runner
	registry *registry.Registry
}

func initEngine() (*engine, error) {
	reader, err := rpc.Initialize()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RPC: %w", err)
	}

	store, err := storage.NewStorageConnector(&config.Cfg.Storage)
	if err != nil {
		return nil, err
	}

	calc := calculator.New(reader, config.Cfg.Burn.SinkAddresses)
	policy := freshness.NewPolicy(&config.Cfg.Freshness)
	reg := registry.NewRegistry(config.Cfg.Tokens)
	runner := worker.NewRunner(reader, calc, store.Burn, store.Jobs, &config.Cfg.Runner)
	svc := service.New(reader, calc, store.Burn, policy, runner, reg)

	return &engine{
		reader:   reader,
		storage:  store,
		service:  svc,
		runner:   runner,
		registry: reg,
	}, nil
}

// RunAll starts the background runner and the API server together.
func RunAll(cmd *cobra.Command, args []string) {
	engine, err := initEngine()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize burn engine")
	}
	defer engine.reader.Close()

	go engine.runner.Start(context.Background())
	RunApi(engine)
}

func RunApi(e *engine) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	handlers.Init(e.service, e.storage.Jobs, e.registry)

	v1 := r.Group("/v1")
	{
		v1.GET("/tokens/:tokenId/burn-metrics", handlers.GetBurnMetrics)
		v1.GET("/tokens/:tokenId/jobs", handlers.ListTokenJobs)
		v1.GET("/jobs/:jobId", handlers.GetJobStatus)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	port := config.Cfg.API.Port
	if port == 0 {
		port = 3000
	}
	log.Info().Int("port", port).Msg("Starting API server")
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatal().Err(err).Msg("API server exited")
	}
}
