package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/segmentio/kafka-go"
)

type Producer interface {
	SendTask(ctx context.Context, task *domain.ProcessingTask) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &producer{writer: writer}
}

// SendTask publishes the task keyed by its ID.
func (p *producer) SendTask(ctx context.Context, task *domain.ProcessingTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(task.ID),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (p *producer) Close() error {
	return p.writer.Close()
}
