package events

import (
	"context"
	"fmt"
	"sync"

	"circulation/pkg/kafka"
	"circulation/pkg/logger"
	"circulation/pkg/middleware"
)

type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := kafka.NewMessage().
		WithKey(evt.Key()).
		WithValue(evt).
		WithEventID(evt.ID).
		WithEventType(string(evt.Type)).
		WithSource(Source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithTimestamp(evt.OccurredAt).
		Build()
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", evt.Type, err)
	}
	return p.producer.Publish(ctx, msg)
}

// LogPublisher writes events to the service log. It is used when EVENTS_ENABLED is false.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, evt Event) error {
	p.log.Info("Circulation event",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"item_id", evt.ItemID,
		"patron_id", evt.PatronID,
		"loan_id", evt.LoanID,
		"hold_id", evt.HoldID,
		"fine_id", evt.FineID,
	)
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, evt)
	return nil
}

// FailWith makes every later Publish return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, 0, len(r.events))
	for _, evt := range r.events {
		types = append(types, evt.Type)
	}
	return types
}
