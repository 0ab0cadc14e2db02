// Package relay moves notification requests from Kafka to the chat transport.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/CargoBox/internal/broker/kafka"
	"github.com/BearBump/CargoBox/internal/broker/messages"
	"github.com/BearBump/CargoBox/internal/notify"
	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

type Relay struct {
	consumer Consumer
	sender   notify.Port
	rl       notify.RateLimiter
	log      *zap.Logger

	rateLimitPerMinute int64
	throttleDelay      time.Duration
	sendTimeout        time.Duration
	restartDelay       time.Duration

	startedAtUnixNano   int64
	lastMessageUnixNano atomic.Int64
	totalReceived       atomic.Int64
	totalDelivered      atomic.Int64
	totalFailed         atomic.Int64
	totalMalformed      atomic.Int64
	totalThrottled      atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(consumer Consumer, sender notify.Port, rl notify.RateLimiter, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		consumer:           consumer,
		sender:             sender,
		rl:                 rl,
		log:                logger,
		rateLimitPerMinute: 20,
		throttleDelay:      time.Second,
		sendTimeout:        10 * time.Second,
		restartDelay:       2 * time.Second,
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (r *Relay) WithSettings(rlPerMin int64, throttleDelay, sendTimeout, restartDelay time.Duration) *Relay {
	if rlPerMin > 0 {
		r.rateLimitPerMinute = rlPerMin
	}
	if throttleDelay > 0 {
		r.throttleDelay = throttleDelay
	}
	if sendTimeout > 0 {
		r.sendTimeout = sendTimeout
	}
	if restartDelay > 0 {
		r.restartDelay = restartDelay
	}
	return r
}

// Run consumes until ctx is done. A broken consumer is restarted after restartDelay.
func (r *Relay) Run(ctx context.Context) error {
	for {
		err := r.consumer.Consume(ctx, func(key, value []byte) error {
			r.handle(ctx, value)
			return nil
		})
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			r.setLastError(err)
			r.log.Error("notification consumer stopped", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.restartDelay):
		}
	}
}

// handle never fails: a message that cannot be delivered is logged and committed.
func (r *Relay) handle(ctx context.Context, value []byte) {
	r.totalReceived.Add(1)
	r.lastMessageUnixNano.Store(time.Now().UTC().UnixNano())

	var msg messages.NotificationRequested
	if err := json.Unmarshal(value, &msg); err != nil || msg.Recipient == "" {
		r.totalMalformed.Add(1)
		r.log.Warn("malformed notification skipped", zap.ByteString("value", value))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()

	if r.rl != nil && r.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:relay:%s:%s", msg.Recipient, time.Now().UTC().Format("200601021504"))
		allowed, n, err := r.rl.Allow(ctx, minuteKey, r.rateLimitPerMinute, 70*time.Second)
		switch {
		case err != nil:
			r.log.Warn("rate limiter unavailable", zap.Error(err))
		case !allowed:
			// Telegram режет частые сообщения в один чат, притормозим.
			r.totalThrottled.Add(1)
			r.log.Warn("rate limit exceeded", zap.String("recipient", msg.Recipient), zap.Int64("count", n))
			time.Sleep(r.throttleDelay)
		}
	}

	if err := r.sender.Notify(notify.WithKind(ctx, msg.Kind), msg.Recipient, msg.Text); err != nil {
		r.setLastError(err)
		r.totalFailed.Add(1)
		r.log.Error("notification delivery failed",
			zap.String("recipient", msg.Recipient), zap.String("kind", msg.Kind), zap.Error(err))
		return
	}
	r.totalDelivered.Add(1)
}

func (r *Relay) setLastError(err error) {
	r.lastErrorMu.Lock()
	r.lastError = err.Error()
	r.lastErrorMu.Unlock()
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastMessageAt  *time.Time `json:"lastMessageAt,omitempty"`
	TotalReceived  int64      `json:"totalReceived"`
	TotalDelivered int64      `json:"totalDelivered"`
	TotalFailed    int64      `json:"totalFailed"`
	TotalMalformed int64      `json:"totalMalformed"`
	TotalThrottled int64      `json:"totalThrottled"`
	LastError      string     `json:"lastError,omitempty"`
}

func (r *Relay) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, r.startedAtUnixNano).UTC(),
		TotalReceived:  r.totalReceived.Load(),
		TotalDelivered: r.totalDelivered.Load(),
		TotalFailed:    r.totalFailed.Load(),
		TotalMalformed: r.totalMalformed.Load(),
		TotalThrottled: r.totalThrottled.Load(),
	}
	if n := r.lastMessageUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastMessageAt = &t
	}
	r.lastErrorMu.Lock()
	st.LastError = r.lastError
	r.lastErrorMu.Unlock()
	return st
}
