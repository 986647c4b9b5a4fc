package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/samirrijal/geoquery/internal/app"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/logging"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("geoquery-repl")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.LLM.APIKey == "" {
		log.Fatal("GEOQUERY_LLM_API_KEY is not set")
	}
	slog.SetDefault(logging.New(os.Stderr, "warn", "text"))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sh := &shell{parser: app.NewParseService(cfg, nil), out: os.Stdout}
	if err := sh.run(ctx, os.Stdin); err != nil {
		log.Fatalf("repl: %v", err)
	}
}
