package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/CargoBox/config"
	"github.com/BearBump/CargoBox/internal/services/relay"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	relay *relay.Relay
	cfg   *config.Config
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// publicSettings is what /config shows: no bot token, no passwords.
func publicSettings(cfg *config.Config) map[string]any {
	return map[string]any{
		"topic":                   notificationsTopic(cfg),
		"consumerGroup":           consumerGroup(cfg),
		"telegramBaseURL":         cfg.Telegram.BaseURL,
		"telegramTokenConfigured": cfg.Telegram.BotToken != "",
		"rateLimitPerMinute":      cfg.CargoBox.NotifyRateLimitPerMinute,
		"throttleDelayMillis":     cfg.CargoBox.NotifyThrottleDelayMillis,
		"sendTimeoutSeconds":      cfg.CargoBox.NotifySendTimeoutSeconds,
		"restartDelaySeconds":     cfg.CargoBox.WorkerRestartDelaySeconds,
	}
}

func workerRouter(opts workerHTTPOpts) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	// готов, пока процесс жив: relay сам перезапускает consumer
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ready"})
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		if opts.relay == nil {
			writeJSON(w, map[string]string{"error": "relay not wired"})
			return
		}
		writeJSON(w, opts.relay.Stats())
	})
	r.Get("/config", func(w http.ResponseWriter, _ *http.Request) {
		if opts.cfg == nil {
			writeJSON(w, map[string]string{"error": "config not wired"})
			return
		}
		writeJSON(w, publicSettings(opts.cfg))
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	docsURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		docsURL = fmt.Sprintf("%s?v=%d", docsURL, fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))
	return r
}

// runWorkerHTTPServer serves the ops endpoints until ctx is done.
func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("worker swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); err != nil {
		return fmt.Errorf("worker swagger file: %w", err)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: workerRouter(opts), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		return err
	}
	return ctx.Err()
}
