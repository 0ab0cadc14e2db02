package notify

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type Options struct {
	QueueSize          int
	Concurrency        int
	RateLimitPerMinute int64         // на одного получателя, 0 = без лимита
	ThrottleDelay      time.Duration // пауза перед отправкой сверх лимита
	SendTimeout        time.Duration
}

func DefaultOptions() Options {
	return Options{
		QueueSize:          256,
		Concurrency:        4,
		RateLimitPerMinute: 20,
		ThrottleDelay:      500 * time.Millisecond,
		SendTimeout:        10 * time.Second,
	}
}

type job struct {
	recipient string
	text      string
	kind      string
}

// Dispatcher is a Port whose Notify only enqueues. Run performs the delivery.
// Failed deliveries are logged and counted, never retried.
type Dispatcher struct {
	inner Port
	log   *zap.Logger
	rl    RateLimiter
	opts  Options
	queue chan job

	startedAt     time.Time
	enqueued      atomic.Int64
	dropped       atomic.Int64
	delivered     atomic.Int64
	failed        atomic.Int64
	throttled     atomic.Int64
	inFlight      atomic.Int64
	lastDeliverNs atomic.Int64
	lastErrorMu   sync.Mutex
	lastError     string
}

func NewDispatcher(inner Port, logger *zap.Logger, opts Options) *Dispatcher {
	def := DefaultOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = def.QueueSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RateLimitPerMinute < 0 {
		opts.RateLimitPerMinute = 0
	}
	if opts.ThrottleDelay < 0 {
		opts.ThrottleDelay = 0
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = def.SendTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		inner:     inner,
		log:       logger,
		opts:      opts,
		queue:     make(chan job, opts.QueueSize),
		startedAt: time.Now().UTC(),
	}
}

func (d *Dispatcher) WithRateLimiter(rl RateLimiter) *Dispatcher {
	d.rl = rl
	return d
}

// Notify never blocks and never fails. With a full queue the message is dropped.
func (d *Dispatcher) Notify(ctx context.Context, recipient, text string) error {
	kind := KindFrom(ctx)
	if recipient == "" {
		d.log.Debug("notification without recipient skipped", zap.String("kind", kind))
		return nil
	}
	select {
	case d.queue <- job{recipient: recipient, text: text, kind: kind}:
		d.enqueued.Add(1)
	default:
		d.dropped.Add(1)
		d.log.Warn("notification queue full, message dropped",
			zap.String("recipient", recipient), zap.String("kind", kind))
	}
	return nil
}

// Run delivers queued messages until ctx is done, then waits for in-flight sends.
func (d *Dispatcher) Run(ctx context.Context) error {
	sem := make(chan struct{}, d.opts.Concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			if n := len(d.queue); n > 0 {
				d.log.Warn("dispatcher stopped with undelivered messages", zap.Int("count", n))
			}
			return ctx.Err()
		case j := <-d.queue:
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				d.dropped.Add(1)
				return ctx.Err()
			}
			wg.Add(1)
			d.inFlight.Add(1)
			go func() {
				defer func() {
					d.inFlight.Add(-1)
					<-sem
					wg.Done()
				}()
				d.deliver(context.WithoutCancel(ctx), j)
			}()
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
	defer cancel()

	if d.rl != nil && d.opts.RateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:notify:%s:%s", j.recipient, time.Now().UTC().Format("200601021504"))
		allowed, n, err := d.rl.Allow(ctx, minuteKey, d.opts.RateLimitPerMinute, 70*time.Second)
		switch {
		case err != nil:
			// лимитер недоступен: отправляем без него
			d.log.Warn("rate limiter unavailable", zap.Error(err))
		case !allowed:
			d.throttled.Add(1)
			d.log.Warn("notification rate limit exceeded",
				zap.String("recipient", j.recipient), zap.Int64("count", n))
			time.Sleep(d.opts.ThrottleDelay)
		}
	}

	if err := d.inner.Notify(WithKind(ctx, j.kind), j.recipient, j.text); err != nil {
		d.lastErrorMu.Lock()
		d.lastError = err.Error()
		d.lastErrorMu.Unlock()
		d.failed.Add(1)
		d.log.Error("notification delivery failed",
			zap.String("recipient", j.recipient), zap.String("kind", j.kind), zap.Error(err))
		return
	}
	d.lastDeliverNs.Store(time.Now().UTC().UnixNano())
	d.delivered.Add(1)
}

type Stats struct {
	StartedAt       time.Time  `json:"startedAt"`
	LastDeliveredAt *time.Time `json:"lastDeliveredAt,omitempty"`
	Enqueued        int64      `json:"enqueued"`
	Dropped         int64      `json:"dropped"`
	Delivered       int64      `json:"delivered"`
	Failed          int64      `json:"failed"`
	Throttled       int64      `json:"throttled"`
	InFlight        int64      `json:"inFlight"`
	Queued          int        `json:"queued"`
	LastError       string     `json:"lastError,omitempty"`
}

func (d *Dispatcher) Stats() Stats {
	st := Stats{
		StartedAt: d.startedAt,
		Enqueued:  d.enqueued.Load(),
		Dropped:   d.dropped.Load(),
		Delivered: d.delivered.Load(),
		Failed:    d.failed.Load(),
		Throttled: d.throttled.Load(),
		InFlight:  d.inFlight.Load(),
		Queued:    len(d.queue),
	}
	if n := d.lastDeliverNs.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastDeliveredAt = &t
	}
	d.lastErrorMu.Lock()
	st.LastError = d.lastError
	d.lastErrorMu.Unlock()
	return st
}
