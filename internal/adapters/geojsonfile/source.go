// Package geojsonfile serves a gazetteer held in a GeoJSON FeatureCollection
// file. Names are matched accent-insensitively, with a fuzzy fallback backed
// by an in-memory bleve index.
package geojsonfile

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/loctypes"
	"github.com/samirrijal/geoquery/internal/pkg/textnorm"
)

// Match confidences, best first.
const (
	ConfidenceExact  = 1.0
	ConfidencePrefix = 0.9
	ConfidencePart   = 0.8
	ConfidenceFuzzy  = 0.6
)

type entry struct {
	feature *domain.Feature
	folded  string
	typ     string
}

type indexDoc struct {
	Name string `json:"name"`
}

// Source implements ports.GeoDataSource over an immutable feature set.
type Source struct {
	entries []entry
	byID    map[string]int
	index   bleve.Index
}

// Load reads a FeatureCollection from path.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return New(fc)
}

// New indexes the features of fc. Features without a geometry or a "name"
// property are skipped; features without an id get a random one.
func New(fc *geojson.FeatureCollection) (*Source, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := &Source{byID: make(map[string]int), index: idx}
	batch := idx.NewBatch()
	for _, f := range fc.Features {
		name := strings.TrimSpace(f.Properties.MustString("name", ""))
		if f.Geometry == nil || name == "" {
			continue
		}
		id := domain.FeatureID(f)
		if id == "" {
			id = uuid.NewString()
			f.ID = id
		}
		if _, dup := s.byID[id]; dup {
			return nil, fmt.Errorf("duplicate feature id %q", id)
		}
		if f.BBox == nil {
			f.BBox = geojson.NewBBox(f.Geometry.Bound())
		}

		e := entry{
			feature: f,
			folded:  textnorm.Fold(name),
			typ:     loctypes.Normalize(f.Properties.MustString("type", "unknown")),
		}
		s.byID[id] = len(s.entries)
		s.entries = append(s.entries, e)
		if err := batch.Index(id, indexDoc{Name: e.folded}); err != nil {
			return nil, fmt.Errorf("index %q: %w", id, err)
		}
	}
	if err := idx.Batch(batch); err != nil {
		return nil, fmt.Errorf("index features: %w", err)
	}
	return s, nil
}

// Len returns the number of indexed features.
func (s *Source) Len() int { return len(s.entries) }

// Close releases the search index.
func (s *Source) Close() error { return s.index.Close() }

type scored struct {
	pos   int
	score float64
	rank  float64
}

// Search matches name against feature names ignoring case and accents.
// Exact matches come first, then prefix and substring matches, then fuzzy
// matches from the index.
func (s *Source) Search(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error) {
	q := textnorm.Fold(name)
	if q == "" || maxResults <= 0 {
		return nil, nil
	}
	accept := loctypes.Filter(typeHint)

	best := make(map[int]scored)
	add := func(pos int, conf, rank float64) {
		if !accept(s.entries[pos].typ) {
			return
		}
		if cur, ok := best[pos]; ok && (cur.score > conf || (cur.score == conf && cur.rank >= rank)) {
			return
		}
		best[pos] = scored{pos: pos, score: conf, rank: rank}
	}

	for i, e := range s.entries {
		switch {
		case e.folded == q:
			add(i, ConfidenceExact, 0)
		case strings.HasPrefix(e.folded, q):
			add(i, ConfidencePrefix, -float64(len(e.folded)))
		case strings.Contains(e.folded, q):
			add(i, ConfidencePart, -float64(len(e.folded)))
		}
	}

	if len(best) < maxResults {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.fuzzy(q, maxResults*4, add); err != nil {
			return nil, err
		}
	}

	hits := make([]scored, 0, len(best))
	for _, h := range best {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].rank != hits[j].rank {
			return hits[i].rank > hits[j].rank
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}

	out := make([]*domain.Feature, len(hits))
	for i, h := range hits {
		out[i] = withConfidence(s.entries[h.pos].feature, h.score)
	}
	return out, nil
}

func (s *Source) fuzzy(q string, size int, add func(pos int, conf, rank float64)) error {
	match := bleve.NewMatchQuery(q)
	match.SetField("name")
	match.SetFuzziness(2)

	res, err := s.index.Search(bleve.NewSearchRequestOptions(match, size, 0, false))
	if err != nil {
		return fmt.Errorf("fuzzy search: %w", err)
	}
	for _, hit := range res.Hits {
		if pos, ok := s.byID[hit.ID]; ok {
			add(pos, ConfidenceFuzzy, hit.Score)
		}
	}
	return nil
}

// GetByID returns the feature with id, or domain.ErrNotFound.
func (s *Source) GetByID(ctx context.Context, id string) (*domain.Feature, error) {
	pos, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("feature %s: %w", id, domain.ErrNotFound)
	}
	return withConfidence(s.entries[pos].feature, ConfidenceExact), nil
}

// AvailableTypes returns the distinct feature types, sorted.
func (s *Source) AvailableTypes(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, e := range s.entries {
		seen[e.typ] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out, nil
}

// withConfidence returns a copy of f carrying the match confidence, leaving
// the indexed feature untouched.
func withConfidence(f *domain.Feature, conf float64) *domain.Feature {
	cp := *f
	cp.Properties = f.Properties.Clone()
	cp.Properties["confidence"] = conf
	return &cp
}
