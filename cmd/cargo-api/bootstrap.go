package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/CargoBox/config"
	"github.com/BearBump/CargoBox/internal/broker/kafka"
	"github.com/BearBump/CargoBox/internal/cache/rediscache"
	"github.com/BearBump/CargoBox/internal/integrations/telegram"
	"github.com/BearBump/CargoBox/internal/logging"
	"github.com/BearBump/CargoBox/internal/notify"
	"github.com/BearBump/CargoBox/internal/services/shipments"
	"github.com/BearBump/CargoBox/internal/storage"
	"github.com/BearBump/CargoBox/internal/storage/memsnapshot"
	"github.com/BearBump/CargoBox/internal/storage/pgsnapshot"
	"github.com/BearBump/CargoBox/internal/storage/redissnapshot"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type cargoAPIApp struct {
	ctx        context.Context
	cancel     context.CancelFunc
	opts       cargoAPIOpts
	svc        *shipments.Service
	dispatcher *notify.Dispatcher
	log        *zap.Logger
	closers    []func()
}

func mustBootstrapCargoAPI() *cargoAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log, err := logging.New(cfg.CargoBox.LogDir, "cargo-api", cfg.CargoBox.Debug)
	if err != nil {
		panic(fmt.Sprintf("logger: %v", err))
	}

	httpAddr := cfg.CargoBox.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	app := &cargoAPIApp{log: log}

	st, closeStore, err := newStore(cfg)
	if err != nil {
		panic(err)
	}
	app.closers = append(app.closers, closeStore)

	inner, limiter, closeNotifier, err := newNotifier(cfg, log)
	if err != nil {
		app.Close()
		panic(err)
	}
	app.closers = append(app.closers, closeNotifier)

	app.dispatcher = notify.NewDispatcher(inner, log.Named("dispatcher"), dispatcherOptions(cfg))
	if limiter != nil {
		app.dispatcher.WithRateLimiter(limiter)
	}

	app.svc = shipments.New(st, app.dispatcher, shipments.Config{
		AdminExternalID: cfg.CargoBox.AdminExternalID,
		OperatorChatID:  cfg.Telegram.OperatorChatID,
	}, shipments.WithLogger(log.Named("shipments")))

	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	app.opts = cargoAPIOpts{
		httpAddr:    httpAddr,
		swaggerPath: swaggerPath,
	}

	log.Info("cargo-api configured",
		zap.String("store", storeKind(cfg)),
		zap.String("notifications", notificationsMode(cfg)),
		zap.Bool("adminConfigured", cfg.CargoBox.AdminExternalID != ""))
	return app
}

func storeKind(cfg *config.Config) string {
	if cfg.CargoBox.Store == "" {
		return "memory"
	}
	return cfg.CargoBox.Store
}

func notificationsMode(cfg *config.Config) string {
	if cfg.CargoBox.NotificationsMode == "" {
		return "log"
	}
	return cfg.CargoBox.NotificationsMode
}

// newStore picks the snapshot backend: memory | redis | postgres.
func newStore(cfg *config.Config) (storage.Store, func(), error) {
	switch storeKind(cfg) {
	case "memory":
		return memsnapshot.New(), func() {}, nil
	case "redis":
		prefix := cfg.CargoBox.RedisPrefix
		if prefix == "" {
			prefix = "cargobox"
		}
		rc := rediscache.New(cfg.Redis.Addr())
		return redissnapshot.New(rc, prefix), func() { _ = rc.Close() }, nil
	case "postgres":
		st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)
		return st, st.Close, nil
	default:
		return nil, nil, errors.Errorf("unknown store %q", cfg.CargoBox.Store)
	}
}

// newNotifier builds the transport behind the dispatcher: log | telegram | kafka.
// The limiter is only returned for direct Telegram delivery; in kafka mode the
// relay worker throttles.
func newNotifier(cfg *config.Config, log *zap.Logger) (notify.Port, notify.RateLimiter, func(), error) {
	switch notificationsMode(cfg) {
	case "log":
		return notify.NewLogPort(log.Named("notify")), nil, func() {}, nil
	case "telegram":
		if cfg.Telegram.BotToken == "" {
			return nil, nil, nil, errors.New("telegram mode requires TELEGRAM_BOT_TOKEN")
		}
		rl := rediscache.NewRateLimiter(cfg.Redis.Addr())
		return telegram.New(cfg.Telegram.BaseURL, cfg.Telegram.BotToken), rl, func() { _ = rl.Close() }, nil
	case "kafka":
		topic := cfg.Kafka.NotificationsTopicName
		if topic == "" {
			topic = "cargo.notifications"
		}
		p := kafka.NewProducer(cfg.Kafka.Brokers())
		return notify.NewKafkaPort(p, topic), nil, func() { _ = p.Close() }, nil
	default:
		return nil, nil, nil, errors.Errorf("unknown notifications mode %q", cfg.CargoBox.NotificationsMode)
	}
}

func dispatcherOptions(cfg *config.Config) notify.Options {
	opts := notify.DefaultOptions()
	c := cfg.CargoBox
	if c.DispatcherQueueSize > 0 {
		opts.QueueSize = c.DispatcherQueueSize
	}
	if c.DispatcherConcurrency > 0 {
		opts.Concurrency = c.DispatcherConcurrency
	}
	if c.NotifyRateLimitPerMinute > 0 {
		opts.RateLimitPerMinute = int64(c.NotifyRateLimitPerMinute)
	}
	if c.NotifyThrottleDelayMillis > 0 {
		opts.ThrottleDelay = time.Duration(c.NotifyThrottleDelayMillis) * time.Millisecond
	}
	if c.NotifySendTimeoutSeconds > 0 {
		opts.SendTimeout = time.Duration(c.NotifySendTimeoutSeconds) * time.Second
	}
	return opts
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgsnapshot.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgsnapshot.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *cargoAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] != nil {
			a.closers[i]()
		}
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

func (a *cargoAPIApp) Run() error {
	return runCargoAPI(a.ctx, a.opts, a.svc, a.dispatcher, a.log)
}
