package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
)

// MaxBatchSize bounds the number of queries accepted in one batch.
const MaxBatchSize = 100

const (
	batchKeyPrefix = "batches:"
	batchTTL       = 24 * 60 * 60
)

// ErrBatchUnavailable is returned when no broker or cache is configured.
var ErrBatchUnavailable = errors.New("batch processing is not available")

// BatchService tracks asynchronous batch parses. Jobs are handed to the
// broker; results live in the cache.
type BatchService struct {
	events ports.EventPublisher
	cache  ports.CacheService
	now    func() time.Time
}

// NewBatchService creates a new BatchService.
func NewBatchService(events ports.EventPublisher, cache ports.CacheService) *BatchService {
	return &BatchService{events: events, cache: cache, now: time.Now}
}

// ValidateQueries checks a batch before it is parsed or submitted.
func ValidateQueries(queries []string) error {
	if len(queries) == 0 {
		return &domain.ValidationError{Message: "batch must contain at least one query", Field: "queries"}
	}
	if len(queries) > MaxBatchSize {
		return &domain.ValidationError{
			Message: fmt.Sprintf("batch must not exceed %d queries", MaxBatchSize),
			Field:   "queries",
			Detail:  fmt.Sprintf("got %d", len(queries)),
		}
	}
	for i, q := range queries {
		if strings.TrimSpace(q) == "" {
			return &domain.ValidationError{
				Message: "queries must not be empty",
				Field:   fmt.Sprintf("queries[%d]", i),
			}
		}
	}
	return nil
}

// Submit stores a pending result and publishes the job for a worker.
func (s *BatchService) Submit(ctx context.Context, queries []string) (*domain.BatchResult, error) {
	if s.events == nil || s.cache == nil {
		return nil, ErrBatchUnavailable
	}
	if err := ValidateQueries(queries); err != nil {
		return nil, err
	}

	job := &domain.BatchJob{
		ID:          uuid.NewString(),
		Queries:     queries,
		SubmittedAt: s.now().UTC(),
	}
	pending := &domain.BatchResult{
		ID:          job.ID,
		Status:      domain.BatchPending,
		Total:       len(queries),
		SubmittedAt: job.SubmittedAt,
	}
	if err := s.save(ctx, pending); err != nil {
		return nil, err
	}
	if err := s.events.PublishBatchJob(ctx, job); err != nil {
		return nil, fmt.Errorf("publish batch %s: %w", job.ID, err)
	}

	metrics.BatchJobs.WithLabelValues(domain.BatchPending).Inc()
	return pending, nil
}

// Get returns the current state of a batch. Unknown or expired ids return
// domain.ErrNotFound.
func (s *BatchService) Get(ctx context.Context, id string) (*domain.BatchResult, error) {
	if s.cache == nil {
		return nil, ErrBatchUnavailable
	}
	data, err := s.cache.Get(ctx, batchKeyPrefix+id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("batch %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load batch %s: %w", id, err)
	}

	var result domain.BatchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", id, err)
	}
	return &result, nil
}

// Complete records the final result of a batch and announces it.
func (s *BatchService) Complete(ctx context.Context, result *domain.BatchResult) error {
	if s.cache == nil {
		return ErrBatchUnavailable
	}
	if result.CompletedAt == nil {
		now := s.now().UTC()
		result.CompletedAt = &now
	}
	if err := s.save(ctx, result); err != nil {
		return err
	}

	metrics.BatchJobs.WithLabelValues(result.Status).Inc()
	if s.events != nil {
		if err := s.events.PublishBatchResult(ctx, result); err != nil {
			return fmt.Errorf("publish batch result %s: %w", result.ID, err)
		}
	}
	return nil
}

func (s *BatchService) save(ctx context.Context, result *domain.BatchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", result.ID, err)
	}
	if err := s.cache.Set(ctx, batchKeyPrefix+result.ID, data, batchTTL); err != nil {
		return fmt.Errorf("store batch %s: %w", result.ID, err)
	}
	return nil
}
