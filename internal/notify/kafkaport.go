package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/BearBump/CargoBox/internal/broker/messages"
	"github.com/pkg/errors"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaPort hands the message to notify-worker through a topic.
// The recipient is the record key, so one chat keeps its order.
type KafkaPort struct {
	p     Publisher
	topic string
	now   func() time.Time
}

func NewKafkaPort(p Publisher, topic string) *KafkaPort {
	return &KafkaPort{p: p, topic: topic, now: time.Now}
}

func (k *KafkaPort) Notify(ctx context.Context, recipient, text string) error {
	b, err := json.Marshal(messages.NotificationRequested{
		Recipient: recipient,
		Text:      text,
		Kind:      KindFrom(ctx),
		CreatedAt: k.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal notification")
	}
	return k.p.Publish(ctx, k.topic, []byte(recipient), b)
}
