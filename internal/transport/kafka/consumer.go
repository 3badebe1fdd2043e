package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oziev02/ResponsiveImages/internal/domain"
	"github.com/segmentio/kafka-go"
)

// Processor runs a generation job. service.ImageService satisfies it.
type Processor interface {
	Generate(ctx context.Context, opts domain.RunOptions) (*domain.RunResult, error)
}

type Consumer interface {
	Start(ctx context.Context, processor Processor) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type consumer struct {
	reader messageReader
	logger *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &consumer{reader: reader, logger: logger}
}

// Start consumes tasks until ctx is cancelled. A failed job is logged and
// its message committed anyway, so one bad input never blocks the queue.
func (c *consumer) Start(ctx context.Context, processor Processor) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				return fmt.Errorf("failed to fetch message: %w", err)
			}

			var task domain.ProcessingTask
			if err := json.Unmarshal(msg.Value, &task); err != nil {
				c.logger.Error("failed to decode task", "offset", msg.Offset, "error", err)
				_ = c.reader.CommitMessages(ctx, msg)
				continue
			}

			logger := c.logger.With("task_id", task.ID, "input", task.Options.InputPath)
			logger.Info("processing task")
			result, err := processor.Generate(ctx, task.Options)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Error("task failed", "error", err)
			} else {
				logger.Info("task completed", "run_id", result.RunID, "processed", result.Metrics.Processed)
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("failed to commit message: %w", err)
			}
		}
	}
}

func (c *consumer) Close() error {
	return c.reader.Close()
}
