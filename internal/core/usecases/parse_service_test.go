package usecases_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/prompt"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/core/validation"
)

func newParseService(llm ports.LanguageModel, events ports.EventPublisher, strict bool) *usecases.ParseService {
	reg := relations.New()
	return usecases.NewParseService(
		llm,
		reg,
		validation.NewPipeline(reg, validation.DefaultConfidenceThreshold, strict),
		prompt.NewBuilder(reg, false),
		events,
	)
}

func TestParseService_Parse(t *testing.T) {
	events := &mockPublisher{}
	svc := newParseService(candidateLLM(nearCandidate), events, false)

	q, advisory, err := svc.Parse(context.Background(), "restaurants near Bern")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advisory != nil {
		t.Errorf("expected no advisory, got %+v", advisory)
	}
	if q.OriginalQuery != "restaurants near Bern" {
		t.Errorf("expected original query backfilled, got %q", q.OriginalQuery)
	}
	if q.BufferConfig == nil || q.BufferConfig.DistanceM != 5000 || !q.BufferConfig.Inferred {
		t.Fatalf("expected inferred 5000m buffer, got %+v", q.BufferConfig)
	}
	if q.BufferConfig.BufferFrom != domain.BufferFromCenter {
		t.Errorf("expected center origin, got %q", q.BufferConfig.BufferFrom)
	}

	if len(events.events) != 1 || events.events[0].Outcome != usecases.OutcomeOK {
		t.Fatalf("expected one ok event, got %+v", events.events)
	}
	if events.events[0].Relation != "near" || events.events[0].Location != "Bern" {
		t.Errorf("unexpected event %+v", events.events[0])
	}
}

func TestParseService_OriginalQueryIsCallerInput(t *testing.T) {
	llm := candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.OriginalQuery = "near Bern"
		return q
	})
	svc := newParseService(llm, nil, false)

	q, _, err := svc.Parse(context.Background(), "cafes near Bern")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.OriginalQuery != "cafes near Bern" {
		t.Errorf("expected caller input, got %q", q.OriginalQuery)
	}
}

func TestParseService_PromptCarriesQuery(t *testing.T) {
	var got []ports.Message
	llm := &mockLLM{inferFn: func(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
		got = messages
		return &ports.Inference{Candidate: nearCandidate("")}, nil
	}}
	svc := newParseService(llm, nil, false)

	if _, _, err := svc.Parse(context.Background(), "near Bern"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Role != "system" || got[1].Role != "user" {
		t.Fatalf("expected system and user messages, got %+v", got)
	}
	if got[1].Content != "near Bern" {
		t.Errorf("expected user message to be the query, got %q", got[1].Content)
	}
	if !strings.Contains(got[0].Content, "on_shores_of") {
		t.Error("expected system prompt to list relations")
	}
}

func TestParseService_InvocationFailure(t *testing.T) {
	llm := &mockLLM{inferFn: func(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
		return nil, errors.New("connection refused")
	}}
	events := &mockPublisher{}
	svc := newParseService(llm, events, false)

	_, _, err := svc.Parse(context.Background(), "near Bern")
	if !errors.Is(err, domain.ErrParsing) || !errors.Is(err, domain.ErrGeoQuery) {
		t.Fatalf("expected parsing error, got %v", err)
	}
	if err.Error() != "LLM invocation failed: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if len(events.events) != 1 || events.events[0].Outcome != usecases.OutcomeError {
		t.Errorf("expected one error event, got %+v", events.events)
	}
}

func TestParseService_MissingCandidate(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	llm := &mockLLM{inferFn: func(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
		return &ports.Inference{Raw: `{"spatial_relation":`, ParsingError: cause}, nil
	}}
	svc := newParseService(llm, nil, false)

	_, _, err := svc.Parse(context.Background(), "near Bern")
	var perr *domain.ParsingError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParsingError, got %T: %v", err, err)
	}
	if perr.RawResponse != `{"spatial_relation":` {
		t.Errorf("expected raw response kept, got %q", perr.RawResponse)
	}
	if !errors.Is(err, cause) {
		t.Error("expected decode error to be wrapped")
	}
	if !strings.HasPrefix(perr.Message, "Failed to parse query into structured format.") {
		t.Errorf("unexpected message %q", perr.Message)
	}
}

func TestParseService_MalformedCandidate(t *testing.T) {
	llm := candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.ReferenceLocation.Name = ""
		q.ConfidenceBreakdown.Overall = 1.4
		return q
	})
	svc := newParseService(llm, nil, false)

	_, _, err := svc.Parse(context.Background(), "near somewhere")
	if !errors.Is(err, domain.ErrParsing) {
		t.Fatalf("expected parsing error, got %v", err)
	}
	if !strings.Contains(err.Error(), "reference_location.name") {
		t.Errorf("expected shape problem in message, got %q", err.Error())
	}
}

func TestParseService_UnknownRelation(t *testing.T) {
	llm := candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.SpatialRelation.Relation = "beside"
		return q
	})
	svc := newParseService(llm, nil, false)

	_, _, err := svc.Parse(context.Background(), "beside Bern")
	var unknown *domain.UnknownRelationError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected *UnknownRelationError, got %v", err)
	}
	if unknown.Name != "beside" {
		t.Errorf("expected name beside, got %q", unknown.Name)
	}
}

func lowConfidenceLLM() *mockLLM {
	return candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.ConfidenceBreakdown.Overall = 0.4
		q.ConfidenceBreakdown.Reasoning = domain.String("ambiguous place name")
		return q
	})
}

func TestParseService_PermissiveLowConfidence(t *testing.T) {
	events := &mockPublisher{}
	svc := newParseService(lowConfidenceLLM(), events, false)

	q, advisory, err := svc.Parse(context.Background(), "near Springfield")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q == nil || advisory == nil {
		t.Fatal("expected both a query and an advisory")
	}
	if advisory.Confidence != 0.4 || advisory.Threshold != 0.6 {
		t.Errorf("unexpected advisory %+v", advisory)
	}
	if len(events.advisories) != 1 {
		t.Errorf("expected one published advisory, got %d", len(events.advisories))
	}
	if events.events[0].Outcome != usecases.OutcomeLowConfidence {
		t.Errorf("expected low_confidence outcome, got %q", events.events[0].Outcome)
	}
}

func TestParseService_StrictLowConfidence(t *testing.T) {
	svc := newParseService(lowConfidenceLLM(), nil, true)

	q, advisory, err := svc.Parse(context.Background(), "near Springfield")
	if !errors.Is(err, domain.ErrLowConfidence) {
		t.Fatalf("expected low confidence error, got %v", err)
	}
	if q != nil || advisory != nil {
		t.Error("expected no result in strict mode")
	}
}

func TestParseService_EmptyQuery(t *testing.T) {
	llm := candidateLLM(nearCandidate)
	svc := newParseService(llm, nil, false)

	_, _, err := svc.Parse(context.Background(), "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if llm.calls != 0 {
		t.Errorf("expected no model call, got %d", llm.calls)
	}
}

func TestParseService_PublishFailureIsNotFatal(t *testing.T) {
	events := &mockPublisher{err: errors.New("nats down")}
	svc := newParseService(candidateLLM(nearCandidate), events, false)

	if _, _, err := svc.Parse(context.Background(), "near Bern"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseService_ParseBatch(t *testing.T) {
	svc := newParseService(candidateLLM(nearCandidate), nil, false)
	queries := []string{"near Bern", "cafes near Bern", "parks near Bern"}

	results, err := svc.ParseBatch(context.Background(), queries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != len(queries) {
		t.Fatalf("expected %d results, got %d", len(queries), len(results))
	}
	for i, q := range results {
		if q.OriginalQuery != queries[i] {
			t.Errorf("result %d: expected %q, got %q", i, queries[i], q.OriginalQuery)
		}
	}
}

func TestParseService_ParseBatchStopsAtFirstFailure(t *testing.T) {
	llm := candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		if strings.Contains(query, "beside") {
			q.SpatialRelation.Relation = "beside"
		}
		return q
	})
	svc := newParseService(llm, nil, false)

	results, err := svc.ParseBatch(context.Background(), []string{"near Bern", "beside Bern", "near Thun"})
	var itemErr *usecases.BatchItemError
	if !errors.As(err, &itemErr) {
		t.Fatalf("expected *BatchItemError, got %v", err)
	}
	if itemErr.Index != 1 {
		t.Errorf("expected failing index 1, got %d", itemErr.Index)
	}
	if !errors.Is(err, domain.ErrUnknownRelation) {
		t.Error("expected cause to be kept")
	}
	if len(results) != 1 {
		t.Errorf("expected one result before the failure, got %d", len(results))
	}
	if llm.calls != 2 {
		t.Errorf("expected the third query to be skipped, got %d calls", llm.calls)
	}
}

func TestParseService_AvailableRelations(t *testing.T) {
	svc := newParseService(&mockLLM{}, nil, false)

	all, err := svc.AvailableRelations("")
	if err != nil || len(all) != 15 {
		t.Fatalf("expected 15 relations, got %v (%v)", all, err)
	}
	directional, _ := svc.AvailableRelations(domain.CategoryDirectional)
	if len(directional) != 8 {
		t.Errorf("expected 8 directional relations, got %v", directional)
	}
	if _, err := svc.AvailableRelations("radial"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseService_DescribeRelation(t *testing.T) {
	svc := newParseService(&mockLLM{}, nil, false)

	desc, err := svc.DescribeRelation("north_of")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc != "Directional sector north of reference" {
		t.Errorf("unexpected description %q", desc)
	}
	if _, err := svc.DescribeRelation("beside"); !errors.Is(err, domain.ErrUnknownRelation) {
		t.Errorf("expected unknown relation error, got %v", err)
	}
}
