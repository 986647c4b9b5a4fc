package workflows

import (
	"context"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

// BatchActivities holds the activity implementations for BatchParseWorkflow.
type BatchActivities struct {
	Parser  *usecases.ParseService
	Batches *usecases.BatchService
}

// ParseQuery parses a single query. Low-confidence advisories are published
// by the parser and not returned.
func (a *BatchActivities) ParseQuery(ctx context.Context, query string) (*domain.GeoQuery, error) {
	q, _, err := a.Parser.Parse(ctx, query)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// StoreBatchResult stores the final result and announces it.
func (a *BatchActivities) StoreBatchResult(ctx context.Context, result *domain.BatchResult) error {
	return a.Batches.Complete(ctx, result)
}
