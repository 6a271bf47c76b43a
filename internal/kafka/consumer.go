package kafka

import (
	"context"
	"errors"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/fathima-sithara/whisper-backend/internal/config"
)

// Consumer reads message-persisted events from the broker.
type Consumer struct {
	reader *kafkago.Reader
}

func NewConsumer(cfg *config.Config) *Consumer {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	return &Consumer{reader: r}
}

// Run delivers raw event payloads to out until the context is cancelled.
func (c *Consumer) Run(ctx context.Context, out chan<- []byte) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		select {
		case out <- m.Value:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
