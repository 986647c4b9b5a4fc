package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/loctypes"
	"github.com/samirrijal/geoquery/internal/pkg/textnorm"
)

// FeatureRepo implements ports.GeoDataSource and ports.FeatureWriter over the
// PostGIS features table.
type FeatureRepo struct {
	db *DB
}

// NewFeatureRepo creates a new FeatureRepo.
func NewFeatureRepo(db *DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search ranks features by how closely their folded name matches name:
// exact, prefix, substring, then trigram similarity.
func (r *FeatureRepo) Search(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error) {
	folded := textnorm.Fold(name)
	if folded == "" || maxResults <= 0 {
		return nil, nil
	}

	var types []string
	if typeHint != nil {
		types = loctypes.MatchingTypes(*typeHint)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, type, ST_AsGeoJSON(geom), properties,
		       CASE
		         WHEN name_folded = $1 THEN 1.0::float8
		         WHEN name_folded LIKE $2 || '%' THEN 0.9
		         WHEN name_folded LIKE '%' || $2 || '%' THEN 0.8
		         ELSE similarity(name_folded, $1) * 0.75
		       END AS confidence
		FROM features
		WHERE (name_folded LIKE '%' || $2 || '%' OR name_folded % $1)
		  AND ($3::text[] IS NULL OR type = ANY($3))
		ORDER BY confidence DESC, length(name_folded), id
		LIMIT $4
	`, folded, likeEscaper.Replace(folded), types, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search features: %w", err)
	}
	defer rows.Close()

	var features []*domain.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, rows.Err()
}

// GetByID returns a feature by id, or domain.ErrNotFound.
func (r *FeatureRepo) GetByID(ctx context.Context, id string) (*domain.Feature, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, type, ST_AsGeoJSON(geom), properties, 1.0::float8
		FROM features WHERE id = $1
	`, id)
	f, err := scanFeature(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("feature %s: %w", id, domain.ErrNotFound)
	}
	return f, err
}

// AvailableTypes returns the distinct feature types, sorted.
func (r *FeatureRepo) AvailableTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT DISTINCT type FROM features ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	defer rows.Close()

	var types []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// UpsertBatch inserts or replaces features using pgx.Batch. Features without
// a name or geometry are rejected.
func (r *FeatureRepo) UpsertBatch(ctx context.Context, source string, features []*domain.Feature) error {
	batch := &pgx.Batch{}
	for _, f := range features {
		id := domain.FeatureID(f)
		name := domain.FeatureName(f)
		if id == "" || name == "" || f.Geometry == nil {
			return fmt.Errorf("feature %q: id, name and geometry are required", id)
		}

		geom, err := geojson.NewGeometry(f.Geometry).MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode geometry %s: %w", id, err)
		}
		props, err := json.Marshal(extraProperties(f.Properties))
		if err != nil {
			return fmt.Errorf("encode properties %s: %w", id, err)
		}
		typ := loctypes.Normalize(domain.FeatureType(f))
		if typ == "" {
			typ = "unknown"
		}

		batch.Queue(`
			INSERT INTO features (id, source, name, name_folded, type, geom, properties)
			VALUES ($1, $2, $3, $4, $5, ST_SetSRID(ST_GeomFromGeoJSON($6), 4326), $7)
			ON CONFLICT (id) DO UPDATE
			SET source = EXCLUDED.source, name = EXCLUDED.name,
			    name_folded = EXCLUDED.name_folded, type = EXCLUDED.type,
			    geom = EXCLUDED.geom, properties = EXCLUDED.properties,
			    updated_at = now()
		`, id, source, name, textnorm.Fold(name), typ, string(geom), props)
	}

	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range features {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func scanFeature(row pgx.Row) (*domain.Feature, error) {
	var (
		id, name, typ string
		geomJSON      string
		props         []byte
		confidence    float64
	)
	if err := row.Scan(&id, &name, &typ, &geomJSON, &props, &confidence); err != nil {
		return nil, err
	}

	g, err := geojson.UnmarshalGeometry([]byte(geomJSON))
	if err != nil {
		return nil, fmt.Errorf("decode geometry %s: %w", id, err)
	}

	f := domain.NewFeature(id, name, typ, g.Geometry())
	if len(props) > 0 {
		var extra map[string]any
		if err := json.Unmarshal(props, &extra); err == nil {
			for k, v := range extra {
				if _, reserved := f.Properties[k]; !reserved {
					f.Properties[k] = v
				}
			}
		}
	}
	f.Properties["confidence"] = confidence
	return f, nil
}

// extraProperties drops the properties stored in dedicated columns.
func extraProperties(p geojson.Properties) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		switch k {
		case "name", "type", "confidence":
			continue
		}
		out[k] = v
	}
	return out
}
