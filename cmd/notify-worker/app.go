package main

import (
	"context"
	"time"

	"github.com/BearBump/CargoBox/config"
	"github.com/BearBump/CargoBox/internal/broker/kafka"
	"github.com/BearBump/CargoBox/internal/cache/rediscache"
	"github.com/BearBump/CargoBox/internal/integrations/telegram"
	"github.com/BearBump/CargoBox/internal/notify"
	"github.com/BearBump/CargoBox/internal/services/relay"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type workerFactories struct {
	newConsumer    func(cfg *config.Config) (c relay.Consumer, closeFn func(), err error)
	newSender      func(cfg *config.Config) (notify.Port, error)
	newRateLimiter func(cfg *config.Config) (rl notify.RateLimiter, closeFn func())
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newConsumer: func(cfg *config.Config) (relay.Consumer, func(), error) {
			c := kafka.NewConsumer(cfg.Kafka.Brokers(), notificationsTopic(cfg), consumerGroup(cfg))
			return c, func() { _ = c.Close() }, nil
		},
		newSender: func(cfg *config.Config) (notify.Port, error) {
			if cfg.Telegram.BotToken == "" {
				return nil, errors.New("notify-worker requires TELEGRAM_BOT_TOKEN")
			}
			return telegram.New(cfg.Telegram.BaseURL, cfg.Telegram.BotToken), nil
		},
		newRateLimiter: func(cfg *config.Config) (notify.RateLimiter, func()) {
			rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
			return rl, func() { _ = rl.Close() }
		},
	}
}

func notificationsTopic(cfg *config.Config) string {
	if cfg.Kafka.NotificationsTopicName == "" {
		return "cargo.notifications"
	}
	return cfg.Kafka.NotificationsTopicName
}

func consumerGroup(cfg *config.Config) string {
	if cfg.Kafka.ConsumerGroup == "" {
		return "notify-worker"
	}
	return cfg.Kafka.ConsumerGroup
}

func relaySettings(cfg *config.Config) (rlPerMin int64, throttleDelay, sendTimeout, restartDelay time.Duration) {
	c := cfg.CargoBox
	return int64(c.NotifyRateLimitPerMinute),
		time.Duration(c.NotifyThrottleDelayMillis) * time.Millisecond,
		time.Duration(c.NotifySendTimeoutSeconds) * time.Second,
		time.Duration(c.WorkerRestartDelaySeconds) * time.Second
}

// RunNotifyWorker runs the relay and its ops HTTP server until ctx is done
// or the HTTP server fails.
func RunNotifyWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	sender, err := f.newSender(cfg)
	if err != nil {
		return err
	}
	consumer, closeConsumer, err := f.newConsumer(cfg)
	if err != nil {
		return err
	}
	if closeConsumer != nil {
		defer closeConsumer()
	}
	rl, closeRL := f.newRateLimiter(cfg)
	if closeRL != nil {
		defer closeRL()
	}

	r := relay.New(consumer, sender, rl, log.Named("relay")).WithSettings(relaySettings(cfg))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpOpts.relay = r
	httpOpts.cfg = cfg
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runWorkerHTTPServer(ctx, httpOpts)
	}()

	relayErr := make(chan error, 1)
	go func() {
		log.Info("relay started",
			zap.String("topic", notificationsTopic(cfg)), zap.String("group", consumerGroup(cfg)))
		relayErr <- r.Run(ctx)
	}()

	select {
	case err := <-relayErr:
		return err
	case err := <-httpErr:
		cancel()
		<-relayErr
		return err
	}
}
