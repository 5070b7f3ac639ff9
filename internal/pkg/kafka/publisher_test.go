package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPayrollEventPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	pub := NewPayrollEventPublisher(w)

	occurred := time.Date(2025, 3, 28, 10, 0, 0, 0, time.UTC)
	err := pub.Publish(context.Background(), payroll.Event{
		Type:       payroll.EventTypeApproved,
		PayrollID:  "p1",
		EmployeeID: "e1",
		FromLevel:  payroll.LevelDepartmentHead,
		ToLevel:    payroll.LevelHRManager,
		ToStatus:   payroll.StatusPending,
		OccurredAt: occurred,
	})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "p1", string(msg.Key))
	assert.Equal(t, occurred, msg.Time)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "payroll.approved", string(msg.Headers[0].Value))

	var decoded payroll.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, payroll.LevelHRManager, decoded.ToLevel)

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestPayrollEventPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unreachable")
	pub := NewPayrollEventPublisher(&recordingWriter{err: boom})

	err := pub.Publish(context.Background(), payroll.Event{Type: payroll.EventTypePaid, PayrollID: "p1"})
	assert.ErrorIs(t, err, boom)
}

func TestNewWriter(t *testing.T) {
	w := NewWriter([]string{"localhost:9092"}, "payroll.events")
	assert.Equal(t, "payroll.events", w.Topic)
	assert.IsType(t, &kafkago.Hash{}, w.Balancer)
}

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), payroll.Event{}))
}
