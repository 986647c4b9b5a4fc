package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

func TestBatchService_Submit(t *testing.T) {
	events := &mockPublisher{}
	cache := newMemCache()
	svc := usecases.NewBatchService(events, cache)

	pending, err := svc.Submit(context.Background(), []string{"near Bern", "north of Thun"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pending.ID == "" || pending.Status != domain.BatchPending || pending.Total != 2 {
		t.Fatalf("unexpected pending result %+v", pending)
	}
	if len(events.jobs) != 1 || events.jobs[0].ID != pending.ID {
		t.Fatalf("expected published job with id %s, got %+v", pending.ID, events.jobs)
	}
	if len(events.jobs[0].Queries) != 2 {
		t.Errorf("expected 2 queries in job, got %v", events.jobs[0].Queries)
	}

	stored, err := svc.Get(context.Background(), pending.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != domain.BatchPending {
		t.Errorf("expected pending, got %q", stored.Status)
	}
	if ttl := cache.ttl["batches:"+pending.ID]; ttl != 86400 {
		t.Errorf("expected one day ttl, got %d", ttl)
	}
}

func TestBatchService_SubmitValidation(t *testing.T) {
	svc := usecases.NewBatchService(&mockPublisher{}, newMemCache())

	tooMany := make([]string, usecases.MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = "near Bern"
	}

	tests := []struct {
		name    string
		queries []string
		field   string
	}{
		{"empty", nil, "queries"},
		{"too many", tooMany, "queries"},
		{"blank query", []string{"near Bern", " "}, "queries[1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), tt.queries)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestBatchService_Unavailable(t *testing.T) {
	svc := usecases.NewBatchService(nil, nil)
	if _, err := svc.Submit(context.Background(), []string{"near Bern"}); !errors.Is(err, usecases.ErrBatchUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, usecases.ErrBatchUnavailable) {
		t.Errorf("expected unavailable, got %v", err)
	}
}

func TestBatchService_PublishFailure(t *testing.T) {
	svc := usecases.NewBatchService(&mockPublisher{err: errors.New("nats down")}, newMemCache())
	_, err := svc.Submit(context.Background(), []string{"near Bern"})
	if err == nil || !strings.Contains(err.Error(), "nats down") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestBatchService_GetUnknown(t *testing.T) {
	svc := usecases.NewBatchService(&mockPublisher{}, newMemCache())
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBatchService_Complete(t *testing.T) {
	events := &mockPublisher{}
	cache := newMemCache()
	svc := usecases.NewBatchService(events, cache)

	failed := 1
	result := &domain.BatchResult{
		ID:          "b-1",
		Status:      domain.BatchFailed,
		Total:       2,
		Results:     []*domain.GeoQuery{nearCandidate("near Bern")},
		FailedIndex: &failed,
		Error:       "Unknown spatial relation: 'beside'",
	}
	if err := svc.Complete(context.Background(), result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CompletedAt == nil {
		t.Error("expected completion time to be set")
	}
	if len(events.results) != 1 {
		t.Errorf("expected published result, got %d", len(events.results))
	}

	var stored domain.BatchResult
	if err := json.Unmarshal(cache.data["batches:b-1"], &stored); err != nil {
		t.Fatalf("decode stored result: %v", err)
	}
	if stored.Status != domain.BatchFailed || stored.FailedIndex == nil || *stored.FailedIndex != 1 {
		t.Errorf("unexpected stored result %+v", stored)
	}
	if len(stored.Results) != 1 || stored.Results[0].ReferenceLocation.Name != "Bern" {
		t.Errorf("expected partial results kept, got %+v", stored.Results)
	}
}
