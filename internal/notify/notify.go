// Package notify delivers short text messages to chat recipients.
//
// Business code talks to a Port and never waits on delivery: the Dispatcher
// queues the message and a background loop hands it to the real transport
// (Telegram, Kafka relay or plain logging).
package notify

import (
	"context"

	"github.com/BearBump/CargoBox/internal/broker/messages"
)

type Port interface {
	Notify(ctx context.Context, recipient, text string) error
}

// PortFunc adapts a plain function to Port.
type PortFunc func(ctx context.Context, recipient, text string) error

func (f PortFunc) Notify(ctx context.Context, recipient, text string) error {
	return f(ctx, recipient, text)
}

type kindKey struct{}

// WithKind tags the notification sent with ctx, e.g. messages.KindNewShipment.
func WithKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, kindKey{}, kind)
}

func KindFrom(ctx context.Context) string {
	if k, ok := ctx.Value(kindKey{}).(string); ok && k != "" {
		return k
	}
	return messages.KindUnclassified
}
