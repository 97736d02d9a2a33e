package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// Publisher is the send side of the finalize bus.
type Publisher interface {
	PublishFinalized(ctx context.Context, ev ObjectFinalized) error
}

type Producer struct {
	writer *kafkago.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		Async:        false,
	}
	return &Producer{writer: w, topic: topic}
}

// PublishFinalized keys the message by object path so redeliveries of the
// same object land on the same partition, in order.
func (p *Producer) PublishFinalized(ctx context.Context, ev ObjectFinalized) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg := kafkago.Message{
		Key:   []byte(ev.Path),
		Value: b,
		Time:  time.Now(),
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
