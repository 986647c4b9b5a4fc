package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// LocationService resolves reference locations against the gazetteer,
// caching results when a cache is configured.
type LocationService struct {
	source ports.GeoDataSource
	cache  ports.CacheService
}

// NewLocationService creates a new LocationService. cache may be nil.
func NewLocationService(source ports.GeoDataSource, cache ports.CacheService) *LocationService {
	return &LocationService{source: source, cache: cache}
}

// Search returns features matching name, best match first. typeHint may be a
// concrete type or a type category.
func (s *LocationService) Search(ctx context.Context, name string, typeHint *string, limit int) ([]*domain.Feature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Message: "location name must not be empty", Field: "q"}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	hint := ""
	if typeHint != nil {
		hint = strings.ToLower(*typeHint)
	}
	cacheKey := fmt.Sprintf("features:search:%s:%s:%d", strings.ToLower(name), hint, limit)

	var features []*domain.Feature
	if s.cachedInto(ctx, "search", cacheKey, &features) {
		return features, nil
	}

	features, err := s.source.Search(ctx, name, typeHint, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", name, err)
	}

	// Cache for 5 minutes
	s.store(ctx, cacheKey, features, 300)
	return features, nil
}

// Resolve returns the best match for a parsed reference location.
func (s *LocationService) Resolve(ctx context.Context, ref domain.ReferenceLocation) (*domain.Feature, error) {
	features, err := s.Search(ctx, ref.Name, ref.Type, 1)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("reference location %q: %w", ref.Name, domain.ErrNotFound)
	}
	return features[0], nil
}

// GetByID returns a single feature.
func (s *LocationService) GetByID(ctx context.Context, id string) (*domain.Feature, error) {
	cacheKey := "features:id:" + id

	var feature domain.Feature
	if s.cachedInto(ctx, "get", cacheKey, &feature) {
		return &feature, nil
	}

	f, err := s.source.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, f, 600) // 10 min for single feature
	return f, nil
}

// AvailableTypes returns the feature types present in the gazetteer.
func (s *LocationService) AvailableTypes(ctx context.Context) ([]string, error) {
	const cacheKey = "features:types"

	var types []string
	if s.cachedInto(ctx, "types", cacheKey, &types) {
		return types, nil
	}

	types, err := s.source.AvailableTypes(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, cacheKey, types, 3600)
	return types, nil
}

func (s *LocationService) cachedInto(ctx context.Context, op, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err == nil && json.Unmarshal(data, dst) == nil {
		metrics.CacheHits.WithLabelValues(op).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(op).Inc()
	return false
}

func (s *LocationService) store(ctx context.Context, key string, v any, ttlSeconds int) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		_ = s.cache.Set(ctx, key, data, ttlSeconds)
	}
}
