package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rankscout/rankscout/internal/ai"
	"github.com/rankscout/rankscout/internal/config"
	"github.com/rankscout/rankscout/internal/db"
	"github.com/rankscout/rankscout/internal/httpapi"
	"github.com/rankscout/rankscout/internal/httpapi/handlers"
	"github.com/rankscout/rankscout/internal/observe"
	"github.com/rankscout/rankscout/internal/research"
	"github.com/rankscout/rankscout/internal/sources"
	"github.com/rankscout/rankscout/internal/store/rabbitmq"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb := db.Connect(cfg.DBDSN)

	rds := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rds.Close()

	gem, err := ai.NewGemini(ctx, cfg.GeminiAPIKey)
	if err != nil {
		logger.Fatal("gemini client", zap.Error(err))
	}
	client := ai.NewClient(gem, cfg.GeminiModel, cfg.GeminiExtraFallback)

	citations := sources.NewPipeline(sources.NewGenerator(client), sources.NewValidator(), logger)

	// Trace export: queue when a broker is configured, direct HTTP when only
	// the ingest endpoint is, otherwise off.
	var exporter observe.Exporter
	switch {
	case cfg.RabbitURL != "":
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logger.Fatal("rabbitmq publisher", zap.Error(err))
		}
		defer pub.Close()
		exporter = observe.NewQueueExporter(pub)
	case cfg.ObserveEndpoint != "":
		exporter = observe.NewHTTPExporter(cfg.ObserveEndpoint, cfg.ObservePublicKey, cfg.ObserveSecretKey)
	}
	breaker := observe.NewBreaker(cfg.ObserveErrorThreshold, time.Duration(cfg.ObserveWindowSeconds)*time.Second)
	tracer := observe.NewTracer(exporter, breaker, logger)
	defer tracer.Close()

	repo := research.NewRepo(gdb)
	svc := research.NewService(repo, client, citations, tracer, cfg.SessionRetention, logger)

	h := handlers.NewHandler(gdb, cfg, logger, svc, repo, rds)
	router := httpapi.NewRouter(h, rds, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
