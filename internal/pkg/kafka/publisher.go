package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-backend-go/internal/domain/payroll"
	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafkago.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewWriter builds a writer that keys messages onto partitions by hash, so
// events for one payroll stay ordered.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

type PayrollEventPublisher struct {
	writer MessageWriter
}

func NewPayrollEventPublisher(writer MessageWriter) *PayrollEventPublisher {
	return &PayrollEventPublisher{writer: writer}
}

func (p *PayrollEventPublisher) Publish(ctx context.Context, event payroll.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode payroll event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.PayrollID),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "aggregate_type", Value: []byte("payroll")},
		},
	})
	if err != nil {
		return fmt.Errorf("write payroll event %s: %w", event.Type, err)
	}
	return nil
}

func (p *PayrollEventPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, payroll.Event) error { return nil }
