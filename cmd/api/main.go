package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/samirrijal/geoquery/internal/adapters/http"
	natsadapter "github.com/samirrijal/geoquery/internal/adapters/nats"
	"github.com/samirrijal/geoquery/internal/adapters/valkey"
	"github.com/samirrijal/geoquery/internal/app"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/logging"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
	"github.com/samirrijal/geoquery/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("geoquery-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Gazetteer (PostGIS or GeoJSON file)
	gaz, err := app.OpenGazetteer(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer gaz.Close()

	// Cache
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr, "geoquery")
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var events ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// Use cases
	parser := app.NewParseService(cfg, events)
	locations := usecases.NewLocationService(gaz.Source, cacheSvc)

	deps := &http.Dependencies{
		Parser:      parser,
		Locations:   locations,
		SearchAreas: app.NewSearchAreaService(parser, locations),
		Batches:     usecases.NewBatchService(events, cacheSvc),
		NATS:        natsConn,
		DB:          gaz.DB,
		Cache:       cache,
		Version:     version,
	}

	// Pool gauges
	if gaz.DB != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(gaz.DB.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Fiber
	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "GeoQuery API",
	})
	fiberApp.Use(recover.New())
	fiberApp.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(fiberApp, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", version)
		if err := fiberApp.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
