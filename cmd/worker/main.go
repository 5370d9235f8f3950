package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"lof-premium-service/internal/bootstrap"
	"lof-premium-service/internal/infrastructure/logx"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := bootstrap.InitWorker(ctx)
	if err != nil {
		log.Fatal("init worker", zap.Error(err))
	}
	defer cleanup()

	if app.Config.RunOnce {
		run, err := app.Scheduler.RunOnce(ctx)
		if err != nil {
			log.Error("run once failed", zap.Error(err))
			cleanup()
			os.Exit(1)
		}
		log.Info("run once done",
			zap.Bool("skipped", run.Skipped),
			zap.Int("fetched", run.Fetched),
			zap.Int("written", run.Written))
		return
	}

	app.Scheduler.Start(ctx)
}
