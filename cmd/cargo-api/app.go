package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BearBump/CargoBox/internal/api/cargo_api"
	"github.com/BearBump/CargoBox/internal/notify"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

type cargoAPIOpts struct {
	httpAddr    string
	swaggerPath string

	onListen func(httpAddr string)
}

type dispatcher interface {
	Run(ctx context.Context) error
	Stats() notify.Stats
}

func runCargoAPI(ctx context.Context, opts cargoAPIOpts, svc cargo_api.Service, d dispatcher, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	r := cargo_api.New(svc, log).Routes()

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(d.Stats())
	})

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	dispatchErr := make(chan error, 1)
	go func() {
		dispatchErr <- d.Run(ctx)
	}()

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second}
	httpErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
		httpErr <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		// ждём отправки того, что уже ушло в работу
		<-dispatchErr
		return ctx.Err()
	case err := <-httpErr:
		return err
	}
}
