package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/adapters/postgres"
	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

// Manifest lists the GeoJSON datasets to load into the features table.
type Manifest struct {
	Source   string         `json:"source"`
	Datasets []DatasetEntry `json:"datasets"`
}

// DatasetEntry is one FeatureCollection, read from Path or downloaded
// from URL. Type is applied to features that carry no "type" property.
type DatasetEntry struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
	Type string `json:"type,omitempty"`
}

const upsertChunk = 500

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load("geoquery-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 8)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	repo := postgres.NewFeatureRepo(db)

	// Load manifest
	manifestPath := "manifest.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("GeoQuery gazetteer ingestor: %d datasets from %s", len(manifest.Datasets), manifest.Source)

	// Filter datasets (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent datasets

	for _, ds := range manifest.Datasets {
		if len(slugFilter) > 0 && !slugFilter[ds.Slug] {
			continue
		}

		wg.Add(1)
		go func(d DatasetEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestDataset(ctx, repo, client, d); err != nil {
				log.Printf("ERROR [%s]: %v", d.Slug, err)
			}
		}(ds)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-dataset ingestion
// ---------------------------------------------------------------------------

func ingestDataset(ctx context.Context, repo ports.FeatureWriter, client *http.Client, ds DatasetEntry) error {
	body, err := readDataset(client, ds)
	if err != nil {
		return err
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	features := prepare(ds, fc.Features)
	log.Printf("[%s] %d of %d features usable", ds.Slug, len(features), len(fc.Features))

	for start := 0; start < len(features); start += upsertChunk {
		end := min(start+upsertChunk, len(features))
		if err := repo.UpsertBatch(ctx, ds.Slug, features[start:end]); err != nil {
			return fmt.Errorf("upsert %d-%d: %w", start, end, err)
		}
	}
	log.Printf("[%s] upserted %d features", ds.Slug, len(features))
	return nil
}

func readDataset(client *http.Client, ds DatasetEntry) ([]byte, error) {
	if ds.Path != "" {
		data, err := os.ReadFile(ds.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ds.Path, err)
		}
		return data, nil
	}
	if ds.URL == "" {
		return nil, fmt.Errorf("dataset needs a path or url")
	}

	log.Printf("[%s] downloading %s", ds.Slug, ds.URL)
	resp, err := client.Get(ds.URL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, ds.URL)
	}
	return io.ReadAll(resp.Body)
}

// prepare drops features without a name or geometry, fills in missing ids
// as "<slug>:<index>" and applies the dataset's default type.
func prepare(ds DatasetEntry, in []*geojson.Feature) []*domain.Feature {
	out := make([]*domain.Feature, 0, len(in))
	for i, f := range in {
		if f.Geometry == nil || strings.TrimSpace(domain.FeatureName(f)) == "" {
			continue
		}
		if domain.FeatureID(f) == "" {
			f.ID = fmt.Sprintf("%s:%d", ds.Slug, i)
		}
		if domain.FeatureType(f) == "" && ds.Type != "" {
			f.Properties["type"] = ds.Type
		}
		out = append(out, f)
	}
	return out
}
