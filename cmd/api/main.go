package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mturbe/pubsubprobe/internal/config"
	"github.com/mturbe/pubsubprobe/internal/httpapi"
	"github.com/mturbe/pubsubprobe/internal/httpapi/middleware"
	"github.com/mturbe/pubsubprobe/internal/logging"
	"github.com/mturbe/pubsubprobe/internal/notify"
	"github.com/mturbe/pubsubprobe/internal/probe"
	"github.com/mturbe/pubsubprobe/internal/pubsub"
	"github.com/mturbe/pubsubprobe/internal/repo"
	"github.com/mturbe/pubsubprobe/internal/repo/memory"
	"github.com/mturbe/pubsubprobe/internal/repo/postgres"
	"github.com/mturbe/pubsubprobe/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		opts = pubsub.WithEmulator(cfg.EmulatorHost)
	}
	gcp, err := pubsub.NewGCP(ctx, cfg.ProjectID, opts...)
	if err != nil {
		logger.Fatal("pubsub_client_error", zap.Error(err))
	}
	defer gcp.Close()

	prober, err := probe.New(gcp, probe.Config{
		Subscription: cfg.HealthSubscription,
		Timeout:      cfg.HealthTimeout,
	})
	if err != nil {
		logger.Fatal("prober_config_error", zap.Error(err))
	}

	// Fail fast: unreachable credentials or a bad subscription should stop
	// startup, not surface as a permanently unhealthy endpoint.
	if err := prober.Validate(ctx); err != nil {
		logger.Fatal("prober_validation_error", zap.Error(err))
	}
	logger.Info("prober_validated", zap.String("subscription", prober.Subscription()))

	var (
		results repo.ResultStore
		alerts  repo.AlertStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_error", zap.Error(err))
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal("postgres_schema_error", zap.Error(err))
		}
		results, alerts = pg, pg
	} else {
		mem := memory.New()
		results, alerts = mem, mem
	}

	go scheduler.NewReprober(logger, results, prober, cfg.ProbeInterval).Run(ctx)

	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil && cfg.ProbeInterval > 0 {
		al := scheduler.NewAlerter(results, alerts, slack, scheduler.AlerterConfig{
			AlertOnRecovery: true,
			Cooldown:        10 * cfg.ProbeInterval,
			PollInterval:    cfg.ProbeInterval,
		})
		go func() { _ = al.Run(ctx) }()
	}

	api := httpapi.NewServer(logger, prober, gcp, cfg.Topic, results)
	api.Keys = middleware.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	api.RPM = cfg.PublicRPM
	api.Burst = cfg.PublicBurst

	logger.Info("api_listen", zap.String("addr", cfg.Addr), zap.String("topic", cfg.Topic))
	if err := http.ListenAndServe(cfg.Addr, api.Router()); err != nil {
		log.Fatal(err)
	}
}
