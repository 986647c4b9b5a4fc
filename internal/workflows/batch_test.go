package workflows_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/prompt"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/core/validation"
	"github.com/samirrijal/geoquery/internal/workflows"
)

// --- Mocks ---

type mockLLM struct{}

// Infer answers "near <place>" and "north of <place>"; anything else gets
// an unregistered relation.
func (mockLLM) Infer(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
	query := messages[len(messages)-1].Content
	relation, category := "beside", domain.CategoryBuffer
	switch {
	case strings.HasPrefix(query, "near "):
		relation = "near"
	case strings.HasPrefix(query, "north of "):
		relation, category = "north_of", domain.CategoryDirectional
	}
	place := query[strings.LastIndex(query, " ")+1:]
	return &ports.Inference{Candidate: &domain.GeoQuery{
		SpatialRelation:     domain.SpatialRelation{Relation: relation, Category: category},
		ReferenceLocation:   domain.ReferenceLocation{Name: place},
		ConfidenceBreakdown: domain.ConfidenceScore{Overall: 0.9, LocationConfidence: 0.9},
	}}, nil
}

type memCache struct{ data map[string][]byte }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func newActivities(cache *memCache) *workflows.BatchActivities {
	reg := relations.New()
	parser := usecases.NewParseService(
		mockLLM{},
		reg,
		validation.NewPipeline(reg, validation.DefaultConfidenceThreshold, false),
		prompt.NewBuilder(reg, false),
		nil,
	)
	return &workflows.BatchActivities{
		Parser:  parser,
		Batches: usecases.NewBatchService(nil, cache),
	}
}

func runWorkflow(t *testing.T, job domain.BatchJob) (*domain.BatchResult, *memCache) {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	cache := &memCache{data: map[string][]byte{}}
	env.RegisterWorkflow(workflows.BatchParseWorkflow)
	env.RegisterActivity(newActivities(cache))

	env.ExecuteWorkflow(workflows.BatchParseWorkflow, job)
	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}

	var result domain.BatchResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("workflow result: %v", err)
	}
	return &result, cache
}

func TestBatchParseWorkflow_Completed(t *testing.T) {
	job := domain.BatchJob{
		ID:          "b-1",
		Queries:     []string{"near Bern", "north of Thun"},
		SubmittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	result, cache := runWorkflow(t, job)

	if result.Status != domain.BatchCompleted {
		t.Fatalf("expected completed, got %q (%s)", result.Status, result.Error)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result.Results))
	}
	if result.Results[0].OriginalQuery != "near Bern" || result.Results[1].SpatialRelation.Relation != "north_of" {
		t.Errorf("results out of order: %+v", result.Results)
	}
	if result.Results[0].BufferConfig == nil || result.Results[0].BufferConfig.DistanceM != 5000 {
		t.Errorf("expected enriched buffer config, got %+v", result.Results[0].BufferConfig)
	}
	if result.CompletedAt == nil {
		t.Error("expected completion time")
	}

	var stored domain.BatchResult
	if err := json.Unmarshal(cache.data["batches:b-1"], &stored); err != nil {
		t.Fatalf("expected stored result: %v", err)
	}
	if stored.Status != domain.BatchCompleted || stored.Total != 2 {
		t.Errorf("unexpected stored result %+v", stored)
	}
}

func TestBatchParseWorkflow_StopsAtFirstFailure(t *testing.T) {
	job := domain.BatchJob{
		ID:      "b-2",
		Queries: []string{"near Bern", "beside Thun", "near Biel"},
	}
	result, cache := runWorkflow(t, job)

	if result.Status != domain.BatchFailed {
		t.Fatalf("expected failed, got %q", result.Status)
	}
	if result.FailedIndex == nil || *result.FailedIndex != 1 {
		t.Fatalf("expected failed index 1, got %v", result.FailedIndex)
	}
	if len(result.Results) != 1 {
		t.Errorf("expected the first result kept, got %d", len(result.Results))
	}
	if !strings.Contains(result.Error, "Unknown spatial relation: 'beside'") {
		t.Errorf("unexpected error message %q", result.Error)
	}
	if _, ok := cache.data["batches:b-2"]; !ok {
		t.Error("expected failed result to be stored")
	}
}
