package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/CargoBox/config"
	"github.com/BearBump/CargoBox/internal/logging"
	"github.com/pkg/errors"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log, err := logging.New(cfg.CargoBox.LogDir, "notify-worker", cfg.CargoBox.Debug)
	if err != nil {
		panic(fmt.Sprintf("logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunNotifyWorker(ctx, cfg, defaultWorkerFactories(), workerHTTPOpts{
		httpAddr:    cfg.CargoBox.WorkerHTTPAddr,
		swaggerPath: os.Getenv("swaggerPath"),
	}, log); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
