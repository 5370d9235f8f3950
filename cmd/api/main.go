package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"lof-premium-service/internal/bootstrap"
	infraconfig "lof-premium-service/internal/infrastructure/config"
	"lof-premium-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, cleanup, err := bootstrap.InitAPI(ctx)
	if err != nil {
		logger.Fatal("bootstrap api", zap.Error(err))
	}
	defer cleanup()

	port := api.Config.Port
	if port == "" {
		port = infraconfig.DefaultHTTPPort
	}
	server := &http.Server{
		Addr:    ":" + port,
		Handler: api.Handler,
	}

	var wg sync.WaitGroup
	if api.Scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			api.Scheduler.Start(ctx)
		}()
	}

	go func() {
		logger.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infraconfig.DefaultShutdownTimeout)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	wg.Wait()
	logger.Info("server stopped")
}
