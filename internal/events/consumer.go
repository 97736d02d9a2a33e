package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one finalize event. Returning an error only logs it;
// the loop never stops, and redelivery is the broker's job.
type Handler func(ctx context.Context, ev ObjectFinalized) error

type Consumer struct {
	reader  *kafkago.Reader
	log     *zap.SugaredLogger
	timeout time.Duration
}

// NewConsumer opens a reader with its own group id, so every derivative kind
// sees every finalize event independently.
func NewConsumer(brokers []string, topic, groupID string, timeout time.Duration, log *zap.SugaredLogger) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Consumer{reader: r, log: log, timeout: timeout}
}

// Run blocks until ctx is cancelled. Each invocation gets a bounded
// wall-clock budget; overrunning it counts as a crash and the idempotency
// checks make the redelivery safe.
func (c *Consumer) Run(ctx context.Context, handle Handler) {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			c.log.Warnf("kafka read error: %v", err)
			time.Sleep(time.Second)
			continue
		}

		var ev ObjectFinalized
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			c.log.Warnf("drop malformed finalize event: %v", err)
			continue
		}

		invCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if err := handle(invCtx, ev); err != nil {
			c.log.Errorf("finalize handler %s: %v", ev.Path, err)
		}
		cancel()
	}
}

func (c *Consumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
