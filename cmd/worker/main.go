package main

import (
	"context"
	"log"
	"log/slog"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/geoquery/internal/adapters/nats"
	"github.com/samirrijal/geoquery/internal/adapters/valkey"
	"github.com/samirrijal/geoquery/internal/app"
	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/logging"
	"github.com/samirrijal/geoquery/internal/pkg/telemetry"
	"github.com/samirrijal/geoquery/internal/workflows"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("geoquery-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Batch results live in the cache and completion events go to NATS;
	// both are required here.
	cache, err := valkey.New(cfg.Valkey.Addr, "geoquery")
	if err != nil {
		log.Fatalf("valkey: %v", err)
	}
	defer cache.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.BatchParseWorkflow)
	w.RegisterActivity(&workflows.BatchActivities{
		Parser:  app.NewParseService(cfg, pub),
		Batches: usecases.NewBatchService(pub, cache),
	})

	// Submitted jobs become workflow executions
	scheduler := workflows.NewScheduler(c, cfg.Temporal.TaskQueue)
	err = sub.SubscribeBatchJobs(ctx, func(ctx context.Context, job *domain.BatchJob) error {
		return scheduler.Schedule(ctx, job)
	})
	if err != nil {
		log.Fatalf("subscribe batch jobs: %v", err)
	}

	slog.Info("batch worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
