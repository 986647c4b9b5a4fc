package ports

import (
	"context"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Message is one chat message sent to a language model.
type Message struct {
	Role    string `json:"role"` // system | user | assistant
	Content string `json:"content"`
}

// Inference is the outcome of a structured-output call. Either Candidate is
// set, or ParsingError explains why the raw output could not be decoded.
type Inference struct {
	Candidate    *domain.GeoQuery
	Raw          string
	ParsingError error
}

// LanguageModel turns prompt messages into a structured GeoQuery candidate.
// A returned error means the invocation itself failed.
type LanguageModel interface {
	Infer(ctx context.Context, messages []Message) (*Inference, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishParseEvent(ctx context.Context, event *domain.ParseEvent) error
	PublishAdvisory(ctx context.Context, advisory *domain.LowConfidenceAdvisory) error
	PublishBatchJob(ctx context.Context, job *domain.BatchJob) error
	PublishBatchResult(ctx context.Context, result *domain.BatchResult) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeBatchJobs(ctx context.Context, handler func(ctx context.Context, job *domain.BatchJob) error) error
}

// BatchScheduler hands a batch job to a durable executor.
type BatchScheduler interface {
	Schedule(ctx context.Context, job *domain.BatchJob) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
