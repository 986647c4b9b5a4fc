package ports

import (
	"context"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// GeoDataSource resolves place names to features.
type GeoDataSource interface {
	// Search returns features whose name matches, best match first. A nil
	// typeHint or an unknown hint does not filter.
	Search(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error)
	// GetByID returns domain.ErrNotFound when no feature has the id.
	GetByID(ctx context.Context, id string) (*domain.Feature, error)
	AvailableTypes(ctx context.Context) ([]string, error)
}

// FeatureWriter persists gazetteer features.
type FeatureWriter interface {
	UpsertBatch(ctx context.Context, source string, features []*domain.Feature) error
}
