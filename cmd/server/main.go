package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/app"
	"github.com/fastygo/taskboard/internal/config"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := lifecycle.SignalContext(context.Background(), zapLogger)
	defer stop()

	application, err := app.New(ctx, cfg, zapLogger.With(zap.String("app", cfg.AppName)))
	if err != nil {
		zapLogger.Fatal("startup failed", zap.Error(err))
	}

	if err := application.Run(ctx); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
	}
}
