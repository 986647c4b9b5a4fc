package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	mcpserver "github.com/samirrijal/geoquery/internal/adapters/mcp"
	"github.com/samirrijal/geoquery/internal/app"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/logging"
)

var version = "dev"

func main() {
	transport := flag.String("transport", "stdio", "Transport mode: stdio or http")
	port := flag.String("port", "8082", "HTTP port (only used with --transport http)")
	withGazetteer := flag.Bool("gazetteer", true, "Register location tools backed by the configured data source")
	flag.Parse()

	_ = godotenv.Load(".env")

	cfg, err := config.Load("geoquery-mcp")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	// stdout carries the stdio protocol.
	slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc := mcpserver.Services{Parser: app.NewParseService(cfg, nil)}
	if *withGazetteer {
		gz, err := app.OpenGazetteer(ctx, cfg)
		if err != nil {
			log.Printf("gazetteer unavailable, location tools disabled: %v", err)
		} else {
			defer gz.Close()
			svc.Locations = usecases.NewLocationService(gz.Source, nil)
			svc.SearchAreas = app.NewSearchAreaService(svc.Parser, svc.Locations)
		}
	}

	srv := mcpserver.New(version, svc)

	switch *transport {
	case "stdio":
		log.Println("GeoQuery MCP server starting (stdio)")
		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case "http":
		addr := ":" + *port
		handler := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
			return srv
		}, nil)
		log.Printf("GeoQuery MCP server listening on %s", addr)
		if err := http.ListenAndServe(addr, handler); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	default:
		log.Fatalf("Unknown transport: %s (use stdio or http)", *transport)
	}
}
