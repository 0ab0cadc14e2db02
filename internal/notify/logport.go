package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogPort only writes the message to the log. Used when no transport is configured.
type LogPort struct {
	log *zap.Logger
}

func NewLogPort(logger *zap.Logger) *LogPort {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogPort{log: logger}
}

func (p *LogPort) Notify(ctx context.Context, recipient, text string) error {
	p.log.Info("notification",
		zap.String("recipient", recipient),
		zap.String("kind", KindFrom(ctx)),
		zap.String("text", text),
	)
	return nil
}
