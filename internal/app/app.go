// Package app holds the process lifecycle shared by every service binary.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fulfillment/config"
	"fulfillment/internal/util"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// App is one running service: config, logger, tracer, background workers and the
// resources to close on shutdown.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	tp      *sdktrace.TracerProvider
	closers []func() error

	workerCtx    context.Context
	workerCancel context.CancelFunc
	workers      sync.WaitGroup
}

// New loads configuration and initializes logging and tracing for service.
func New(service string) *App {
	cfg := config.Load(service)

	if err := util.InitLogger(service, cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger := util.GetLogger()
	logger.Info("Starting service")

	tp, err := util.InitTracer(service+"-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	return &App{
		Config:       cfg,
		Logger:       logger,
		tp:           tp,
		workerCtx:    workerCtx,
		workerCancel: workerCancel,
	}
}

// OnClose registers fn to run at shutdown, after the workers have stopped.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Go runs fn in the background until shutdown.
func (a *App) Go(name string, fn func(ctx context.Context) error) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		if err := fn(a.workerCtx); err != nil && a.workerCtx.Err() == nil {
			a.Logger.Error("Worker exited", zap.String("worker", name), zap.Error(err))
		}
	}()
}

// Fatal logs and exits, closing what was opened so far.
func (a *App) Fatal(msg string, err error) {
	a.Logger.Error(msg, zap.Error(err))
	a.close()
	os.Exit(1)
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts everything down.
func (a *App) Serve(handler http.Handler) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.Config.Server.Port),
		Handler:           otelhttp.NewHandler(handler, a.Config.Server.Name+"-http"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.Logger.Info("Starting HTTP server", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	a.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	a.close()
	a.Logger.Info("Server exited")
}

func (a *App) close() {
	a.workerCancel()
	a.workers.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("Error closing resource", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tp.Shutdown(ctx); err != nil {
		a.Logger.Warn("Error shutting down tracer", zap.Error(err))
	}
	util.SyncLogger()
}
