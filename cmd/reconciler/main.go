// cmd/reconciler/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"intake-reconciler/internal/common/aws"
	"intake-reconciler/internal/common/camunda"
	"intake-reconciler/internal/common/config"
	"intake-reconciler/internal/common/database"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/common/observability"
	"intake-reconciler/internal/engine"
	"intake-reconciler/internal/notify"
	"intake-reconciler/internal/schema"
	"intake-reconciler/internal/search"
	"intake-reconciler/internal/store"
	"intake-reconciler/internal/worker/submission"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting intake reconciler...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("intake-reconciler")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Form kind registry ---
	registry := schema.Default()
	if cfg.Registry.Path != "" {
		registry, err = schema.LoadFile(cfg.Registry.Path)
		if err != nil {
			zapLog.Fatal("form kind registry load failed",
				zap.String("path", cfg.Registry.Path),
				zap.Error(err),
			)
		}
	}
	zapLog.Info("Form kind registry loaded", zap.Strings("kinds", registry.KindIDs()))

	// --- Init Camunda client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Camunda client initialization")
	if err != nil {
		zapLog.Fatal("camunda client failed after retries", zap.Error(err))
	}
	defer camundaClient.Close()
	zapLog.Info("Camunda client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	var records store.RecordStore = store.NewPostgresStore(pg.DB)

	// --- Init Redis cache (optional) ---
	if cfg.Database.Redis.Enabled {
		var redisClient *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()

		ttl := time.Duration(cfg.Database.Redis.CacheTTL) * time.Second
		records = store.NewCachedStore(records, redisClient.Client, ttl, log)
		zapLog.Info("Redis record cache enabled", zap.Duration("ttl", ttl))
	}

	// --- Init Elasticsearch index (optional) ---
	var indexer *search.Indexer
	if cfg.Search.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		indexer = search.NewIndexer(esClient.Client, cfg.Search.Index, log)
		zapLog.Info("Elasticsearch record index enabled", zap.String("index", cfg.Search.Index))
	}

	// --- Init notifier (optional) ---
	var notifier *notify.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client init failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client init failed", zap.Error(err))
		}
		notifier = notify.NewNotifier(cfg.Notifications, sesClient, snsClient, log)
		zapLog.Info("Notifier enabled",
			zap.Bool("email", cfg.Notifications.Email.Enabled),
			zap.Bool("sms", cfg.Notifications.SMS.Enabled),
		)
	}

	// --- Reconciliation engine and worker ---
	eng := engine.New(registry, records, log)

	handler, err := submission.NewHandler(submission.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       camundaClient,
		Engine:        eng,
		Records:       records,
		Notifier:      notifier,
		Indexer:       indexer,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create submission handler", zap.Error(err))
	}

	if err := handler.Register(); err != nil {
		zapLog.Fatal("failed to register submission worker", zap.Error(err))
	}
	defer handler.Close()

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()

			w.Header().Set("Content-Type", "application/json")
			if err := handler.HealthCheck(checkCtx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "not ready",
					"error":  err.Error(),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping worker...")
	handler.Close()

	zapLog.Info("Intake reconciler stopped gracefully")
}
