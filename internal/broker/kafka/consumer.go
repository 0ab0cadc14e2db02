package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// Handler processes one record. A non-nil error stops consumption and the
// record stays uncommitted.
type Handler func(key, value []byte) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads one topic, committing each record synchronously after it is handled.
type Consumer struct {
	reader messageReader
}

// NewConsumer joins groupID when it is set, otherwise reads the topic directly.
// A new group starts from the oldest record.
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	rc := kafka.ReaderConfig{
		Brokers:           brokers,
		MaxWait:           time.Second,
		StartOffset:       kafka.FirstOffset,
		HeartbeatInterval: 3 * time.Second,
		SessionTimeout:    30 * time.Second,
	}
	if groupID == "" {
		rc.Topic = topic
	} else {
		rc.GroupID = groupID
		rc.GroupTopics = []string{topic}
	}
	return newConsumerWithReader(kafka.NewReader(rc))
}

func newConsumerWithReader(r messageReader) *Consumer {
	return &Consumer{reader: r}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Consume blocks until ctx is done, the reader fails or handler returns an error.
// Cancellation is reported as the bare ctx error.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			return errors.Wrapf(err, "fetch from %s", msg.Topic)
		}

		if err := handler(msg.Key, msg.Value); err != nil {
			// коммитим только успешно обработанные
			return errors.Wrapf(err, "handle %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return errors.Wrapf(err, "commit %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
		}
	}
}
