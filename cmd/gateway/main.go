package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	config "github.com/vigild/vigil/internal/config/gateway"
	"github.com/vigild/vigil/internal/obs"
	"github.com/vigild/vigil/internal/repository/kafka"
	pg "github.com/vigild/vigil/internal/repository/postgres"
	"github.com/vigild/vigil/internal/services/gateway"
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

	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig("gateway"))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()

	l.Info("starting gateway",
		zap.String("http_addr", cfg.Server.HTTPAddr),
		zap.Strings("kafka_brokers", cfg.Out.Brokers),
		zap.String("topic", cfg.Out.Topic),
	)

	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	db, err := pg.NewDB(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	if err := kafka.EnsureTopic(rootCtx, cfg.Out.Brokers, kafka.TopicSpec{
		Name:          cfg.Out.Topic,
		NumPartitions: cfg.Out.Partitions,
	}, l); err != nil {
		l.Warn("ensure topic", zap.Error(err))
	}
	producer := kafka.NewProducer(cfg.Out.Brokers, cfg.Out.Topic).WithLogger(l)
	defer func() { _ = producer.Close() }()

	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	tx := pg.NewTransactor(db, l)
	uc := gateway.NewUsecase(
		pg.NewTokenRepo(db),
		pg.NewMessageRepo(db, 0, 0),
		pg.NewSettingsRepo(db),
		pg.NewNotificationRepo(db),
		pg.NewAccountRepo(db, tx),
		kafka.NewMessageEvents(producer),
		gateway.Config{
			SessionSecret:  []byte(cfg.Auth.SessionSecret),
			SessionTTL:     cfg.Auth.SessionTTL,
			PublishTimeout: cfg.Ingest.PublishTimeout,
		},
		l,
	)
	srv := gateway.NewServer(l, uc)

	httpSrv := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: srv.Router(cfg.Server.AllowedOrigins, func(r *http.Request) error {
			hctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			return db.Pool.Ping(hctx)
		}),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("http server error", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
