// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ewaybill-workers/internal/api"
	"ewaybill-workers/internal/common/aws"
	"ewaybill-workers/internal/common/camunda"
	"ewaybill-workers/internal/common/config"
	"ewaybill-workers/internal/common/database"
	"ewaybill-workers/internal/common/ewaybill"
	"ewaybill-workers/internal/common/logger"
	"ewaybill-workers/internal/common/observability"
	"ewaybill-workers/pkg/registry"

	be "ewaybill-workers/internal/workers/ewaybill/bulk-extend"
	ev "ewaybill-workers/internal/workers/ewaybill/extend-validity"
	fe "ewaybill-workers/internal/workers/ewaybill/fetch-ewaybill"
	nb "ewaybill-workers/internal/workers/ewaybill/notify-batch"
	rb "ewaybill-workers/internal/workers/ewaybill/record-batch"
	se "ewaybill-workers/internal/workers/ewaybill/search-expiring"
	up "ewaybill-workers/internal/workers/ewaybill/update-part-b"
)

// worker is what every eWay Bill job handler exposes to the manager.
type worker interface {
	Register() error
	Close()
	GetTaskType() string
}

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
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting eWay Bill worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	checkRegistry(cfg, zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()
	checks := map[string]api.ReadinessCheck{}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFromApp(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	checks["zeebe"] = zeebe.HealthCheck
	zapLog.Info("Zeebe client connected successfully")

	compliance := ewaybill.NewClient(cfg.EwayBill)

	// --- PostgreSQL (record-batch) ---
	var pg *database.PostgresClient
	if config.IsWorkerEnabled(cfg, config.WorkerRecordBatch) {
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
		checks["postgres"] = pg.Ping

		if cfg.Database.Postgres.AutoMigrate {
			version, err := pg.Migrate(cfg.Database.Postgres.MigrationsPath)
			if err != nil {
				zapLog.Fatal("database migration failed", zap.Error(err))
			}
			zapLog.Info("Database schema up to date", zap.Uint("version", version))
		}
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Elasticsearch (search-expiring) ---
	var esClient *database.ElasticsearchClient
	if config.IsWorkerEnabled(cfg, config.WorkerSearchExpiring) {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		checks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Redis (fetch-ewaybill cache, optional) ---
	var cache fe.Cache
	if config.IsWorkerEnabled(cfg, config.WorkerFetchEwayBill) && cfg.Database.Redis.Address != "" {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, eWay Bill cache disabled", zap.Error(err))
		} else {
			defer redis.Close()
			cache = redis
			checks["redis"] = redis.Ping
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- AWS (notify-batch) ---
	var mailer nb.EmailSender
	var sms nb.SMSSender
	if config.IsWorkerEnabled(cfg, config.WorkerNotifyBatch) {
		region := cfg.Notifications.AWS.Region
		if cfg.Notifications.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, region, cfg.Notifications.Email.FromEmail)
			if err != nil {
				zapLog.Fatal("failed to create SES client", zap.Error(err))
			}
			mailer = sesClient
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, region, cfg.Notifications.SMS.SenderID)
			if err != nil {
				zapLog.Fatal("failed to create SNS client", zap.Error(err))
			}
			sms = snsClient
		}
	}

	// --- Workers ---
	var workers []worker
	services := api.Services{}

	bulk, err := be.NewHandler(be.HandlerOptions{
		AppConfig:     cfg,
		Camunda:       zeebe,
		Extender:      compliance,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		zapLog.Fatal("failed to create bulk-extend handler", zap.Error(err))
	}
	workers = append(workers, bulk)
	if bulk.IsEnabled() {
		services.BulkExtend = bulk
	}

	single, err := ev.NewHandler(ev.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Extender: compliance, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create extend-validity handler", zap.Error(err))
	}
	workers = append(workers, single)
	if single.IsEnabled() {
		services.Extend = single
	}

	partB, err := up.NewHandler(up.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Updater: compliance, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create update-part-b handler", zap.Error(err))
	}
	workers = append(workers, partB)
	if partB.IsEnabled() {
		services.UpdatePartB = partB
	}

	fetch, err := fe.NewHandler(fe.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Fetcher: compliance, Cache: cache, Logger: log})
	if err != nil {
		zapLog.Fatal("failed to create fetch-ewaybill handler", zap.Error(err))
	}
	workers = append(workers, fetch)
	if fetch.IsEnabled() {
		services.Fetch = fetch
	}

	if esClient != nil {
		search, err := se.NewHandler(se.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Searcher: esClient, Logger: log})
		if err != nil {
			zapLog.Fatal("failed to create search-expiring handler", zap.Error(err))
		}
		workers = append(workers, search)
		services.SearchExpiry = search
	}

	if pg != nil {
		record, err := rb.NewHandler(rb.HandlerOptions{AppConfig: cfg, Camunda: zeebe, DB: pg, Logger: log})
		if err != nil {
			zapLog.Fatal("failed to create record-batch handler", zap.Error(err))
		}
		workers = append(workers, record)
	}

	if config.IsWorkerEnabled(cfg, config.WorkerNotifyBatch) {
		notify, err := nb.NewHandler(nb.HandlerOptions{AppConfig: cfg, Camunda: zeebe, Email: mailer, SMS: sms, Logger: log})
		if err != nil {
			zapLog.Fatal("failed to create notify-batch handler", zap.Error(err))
		}
		workers = append(workers, notify)
	}

	for _, w := range workers {
		if err := w.Register(); err != nil {
			zapLog.Fatal("failed to register worker", zap.String("taskType", w.GetTaskType()), zap.Error(err))
		}
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Dashboard API, Health & Metrics ---
	// health and metrics are always served; the dashboard routes answer 503
	// when the API is switched off.
	if !cfg.Server.Enabled {
		services = api.Services{}
	}
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewServer(services, checks, zapLog).Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Close()
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// checkRegistry warns about enabled workers whose task type is missing from
// the activity registry. A missing registry file is not fatal.
func checkRegistry(cfg *config.Config, log *zap.Logger) {
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		log.Warn("activity registry not loaded", zap.String("path", cfg.Registry.Path), zap.Error(err))
		return
	}
	taskTypes := map[string]string{
		config.WorkerBulkExtend:     be.TaskType,
		config.WorkerExtendValidity: ev.TaskType,
		config.WorkerUpdatePartB:    up.TaskType,
		config.WorkerFetchEwayBill:  fe.TaskType,
		config.WorkerSearchExpiring: se.TaskType,
		config.WorkerRecordBatch:    rb.TaskType,
		config.WorkerNotifyBatch:    nb.TaskType,
	}
	var active []string
	for name, taskType := range taskTypes {
		if config.IsWorkerEnabled(cfg, name) {
			active = append(active, taskType)
		}
	}
	for _, missing := range reg.MissingTaskTypes(active) {
		log.Warn("enabled worker not listed in activity registry", zap.String("taskType", missing))
	}
}
