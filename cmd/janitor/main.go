package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/vigild/vigil/internal/config/janitor"
	"github.com/vigild/vigil/internal/obs"
	pg "github.com/vigild/vigil/internal/repository/postgres"
	"github.com/vigild/vigil/internal/services/janitor"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("VIGIL_CONFIG"), "path to config file")
	flag.Parse()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("janitor"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting janitor", zap.String("schedule", cfg.Purge.Schedule))

	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	runner := janitor.New(l, pg.NewMessageRepo(db, 0, 0), cfg.Purge.Schedule)
	if err := runner.Run(rootCtx); err != nil && !errors.Is(err, context.Canceled) {
		l.Error("janitor error", zap.Error(err))
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
