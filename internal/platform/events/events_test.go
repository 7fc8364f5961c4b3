package events

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublishKeysByTenant(t *testing.T) {
	w := &recordingWriter{}
	p := &Kafka{writer: w}

	err := p.Publish(context.Background(), Event{Type: UsersImported, TenantID: "t1", Payload: map[string]int{"created": 3}})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "t1", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, UsersImported, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.NotEmpty(t, decoded.ID)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestNewWithoutBrokersIsNoop(t *testing.T) {
	p := New(nil, "hris.events")
	_, ok := p.(Noop)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: EmailSent}))
}

func TestEmitSwallowsErrors(t *testing.T) {
	p := &Kafka{writer: &recordingWriter{err: errors.New("broker down")}}
	Emit(context.Background(), p, Event{Type: PayrollPeriodRun, TenantID: "t1"})
}
