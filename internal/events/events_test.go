package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"circulation/internal/events"
	"circulation/internal/events/repository"
	"circulation/pkg/clock"
	"circulation/pkg/db/memory"
	"circulation/pkg/kafka"
	"circulation/pkg/logger"
	"circulation/pkg/middleware"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	mu       sync.Mutex
	messages []kafkago.Message
}

func (w *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *captureWriter) Close() error { return nil }

var occurred = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func loanCreated() events.Event {
	evt := events.New(events.LoanCreated, occurred).WithPayload(map[string]string{"id": "loan-1"})
	evt.ItemID = "item-1"
	evt.PatronID = "patron-1"
	evt.LoanID = "loan-1"
	evt.OperatorID = "desk-1"
	return evt
}

func Test_EventKey(t *testing.T) {
	evt := events.New(events.HoldPlaced, occurred)
	assert.Equal(t, evt.ID, evt.Key())

	evt.PatronID = "p"
	assert.Equal(t, "p", evt.Key())

	evt.ItemID = "i"
	assert.Equal(t, "i", evt.Key())
}

func Test_KafkaPublisher(t *testing.T) {
	writer := &captureWriter{}
	publisher := events.NewKafkaPublisher(kafka.NewProducerWithWriters("circulation.events", writer, nil, logger.Discard()))
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	evt := loanCreated()

	require.NoError(t, publisher.Publish(ctx, evt))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "item-1", string(msg.Key))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, evt.ID, headers[kafka.HeaderEventID])
	assert.Equal(t, "LoanCreated", headers[kafka.HeaderEventType])
	assert.Equal(t, events.Source, headers[kafka.HeaderSource])
	assert.Equal(t, events.SchemaVersion, headers[kafka.HeaderSchemaVersion])
	assert.Equal(t, "req-42", headers[kafka.HeaderCorrelationID])

	var decoded events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, evt.LoanID, decoded.LoanID)
	assert.JSONEq(t, `{"id":"loan-1"}`, string(decoded.Payload))
}

func Test_Recorder(t *testing.T) {
	recorder := events.NewRecorder()
	require.NoError(t, recorder.Publish(context.Background(), loanCreated()))

	recorder.FailWith(errors.New("down"))
	assert.Error(t, recorder.Publish(context.Background(), loanCreated()))

	assert.Equal(t, []events.Type{events.LoanCreated}, recorder.Types())
}

func auditMessage(t *testing.T, evt events.Event) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey(evt.Key()).
		WithValue(evt).
		WithEventID(evt.ID).
		WithSource(events.Source).
		WithCorrelationID("req-7").
		Build()
	require.NoError(t, err)
	return msg
}

func Test_AuditHandler_RecordsOnce(t *testing.T) {
	store := memory.NewStore()
	recordedAt := occurred.Add(time.Second)
	handler := events.NewAuditHandler(repository.NewMemoryAuditRepository(store), clock.NewManual(recordedAt), logger.Discard())
	evt := loanCreated()
	msg := auditMessage(t, evt)

	require.NoError(t, handler.Handle(context.Background(), msg))
	require.NoError(t, handler.Handle(context.Background(), msg), "redelivery is not an error")

	audit := store.Snapshot().Audit
	require.Len(t, audit, 1)
	entry := audit[evt.ID]
	assert.Equal(t, "LoanCreated", entry.EventType)
	assert.Equal(t, events.Source, entry.Source)
	assert.Equal(t, "req-7", entry.CorrelationID)
	assert.Equal(t, "item-1", entry.ItemID)
	assert.Equal(t, occurred, entry.OccurredAt)
	assert.Equal(t, recordedAt, entry.RecordedAt)
	assert.JSONEq(t, `{"id":"loan-1"}`, entry.Payload)
}

func Test_AuditHandler_UndecodableIsPermanent(t *testing.T) {
	handler := events.NewAuditHandler(repository.NewMemoryAuditRepository(memory.NewStore()), clock.New(), logger.Discard())

	for _, value := range []string{`not json`, `{"type":"LoanCreated"}`} {
		err := handler.Handle(context.Background(), kafka.Message{Key: "k", Value: []byte(value), Headers: map[string]string{}})
		assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err), value)
	}
}
