package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
)

// --- Mock LanguageModel ---

type mockLLM struct {
	calls   int
	inferFn func(ctx context.Context, messages []ports.Message) (*ports.Inference, error)
}

func (m *mockLLM) Infer(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
	m.calls++
	if m.inferFn != nil {
		return m.inferFn(ctx, messages)
	}
	return nil, nil
}

// candidateLLM answers every query with a fresh copy of build().
func candidateLLM(build func(query string) *domain.GeoQuery) *mockLLM {
	return &mockLLM{inferFn: func(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
		query := messages[len(messages)-1].Content
		return &ports.Inference{Candidate: build(query), Raw: "{}"}, nil
	}}
}

func nearCandidate(query string) *domain.GeoQuery {
	return &domain.GeoQuery{
		QueryType:         domain.QueryTypeSimple,
		SpatialRelation:   domain.SpatialRelation{Relation: "near", Category: domain.CategoryBuffer},
		ReferenceLocation: domain.ReferenceLocation{Name: "Bern", Type: domain.String("city")},
		ConfidenceBreakdown: domain.ConfidenceScore{
			Overall:            0.9,
			LocationConfidence: 0.95,
		},
	}
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu         sync.Mutex
	events     []*domain.ParseEvent
	advisories []*domain.LowConfidenceAdvisory
	jobs       []*domain.BatchJob
	results    []*domain.BatchResult
	err        error
}

func (m *mockPublisher) PublishParseEvent(ctx context.Context, event *domain.ParseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockPublisher) PublishAdvisory(ctx context.Context, advisory *domain.LowConfidenceAdvisory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advisories = append(m.advisories, advisory)
	return m.err
}

func (m *mockPublisher) PublishBatchJob(ctx context.Context, job *domain.BatchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return m.err
}

func (m *mockPublisher) PublishBatchResult(ctx context.Context, result *domain.BatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, result)
	return m.err
}

// --- In-memory CacheService ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttl  map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttl: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttl[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock GeoDataSource ---

type mockSource struct {
	searchCalls int
	searchFn    func(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error)
	getByIDFn   func(ctx context.Context, id string) (*domain.Feature, error)
	typesFn     func(ctx context.Context) ([]string, error)
}

func (m *mockSource) Search(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error) {
	m.searchCalls++
	if m.searchFn != nil {
		return m.searchFn(ctx, name, typeHint, maxResults)
	}
	return nil, nil
}

func (m *mockSource) GetByID(ctx context.Context, id string) (*domain.Feature, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockSource) AvailableTypes(ctx context.Context) ([]string, error) {
	if m.typesFn != nil {
		return m.typesFn(ctx)
	}
	return nil, nil
}
