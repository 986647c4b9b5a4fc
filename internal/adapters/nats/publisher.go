package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Subjects.
const (
	SubjectParsePrefix    = "geoquery.parse."
	SubjectAdvisory       = "geoquery.advisory.low_confidence"
	SubjectBatchSubmitted = "geoquery.batch.submitted"
	SubjectBatchCompleted = "geoquery.batch.completed"
	SubjectAll            = "geoquery.>"
)

// Streams returns the JetStream streams the service relies on.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:      "GEOQUERY_BATCH_JOBS",
			Subjects:  []string{SubjectBatchSubmitted},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "GEOQUERY_EVENTS",
			Subjects:  []string{SubjectParsePrefix + ">", "geoquery.advisory.>", SubjectBatchCompleted},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}
}

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS, enables JetStream and ensures the streams.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range Streams() {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

func (p *Publisher) PublishParseEvent(ctx context.Context, event *domain.ParseEvent) error {
	return p.publish(ctx, SubjectParsePrefix+event.Outcome, event)
}

func (p *Publisher) PublishAdvisory(ctx context.Context, advisory *domain.LowConfidenceAdvisory) error {
	return p.publish(ctx, SubjectAdvisory, advisory)
}

func (p *Publisher) PublishBatchJob(ctx context.Context, job *domain.BatchJob) error {
	return p.publish(ctx, SubjectBatchSubmitted, job)
}

func (p *Publisher) PublishBatchResult(ctx context.Context, result *domain.BatchResult) error {
	return p.publish(ctx, SubjectBatchCompleted, result)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("geoquery"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
