package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeBatchJobs delivers submitted batch jobs to handler. Messages are
// acked after handler succeeds and redelivered up to three times otherwise.
// Undecodable messages are terminated.
func (s *Subscriber) SubscribeBatchJobs(ctx context.Context, handler func(ctx context.Context, job *domain.BatchJob) error) error {
	sub, err := s.js.Subscribe(SubjectBatchSubmitted, func(msg *nats.Msg) {
		var job domain.BatchJob
		if err := json.Unmarshal(msg.Data, &job); err != nil {
			slog.Warn("dropping malformed batch job", "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &job); err != nil {
			slog.Error("batch job failed", "batch_id", job.ID, "error", err)
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("batch-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
