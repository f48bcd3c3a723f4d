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

	"keep-backend-go/internal/config"
	"keep-backend-go/internal/db"
	httpapi "keep-backend-go/internal/http"
	"keep-backend-go/internal/logging"
	"keep-backend-go/internal/migrations"
	"keep-backend-go/internal/services"
	"keep-backend-go/internal/storage"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "keep: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, cleanupLogs, err := logging.New(logging.Options{
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
		Level:         cfg.LogLevel,
		Production:    cfg.IsProduction(),
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer cleanupLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := migrations.Apply(cfg.DatabaseURL, logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer database.Close()

	cache, closeCache, err := openStatsCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	store, closeStore, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	hub := services.NewTheftHub(logger)
	go hub.Run(ctx)

	inventory, err := services.NewInventory(database, logger, services.InventoryOptions{
		Cache:     cache,
		Store:     store,
		Photos:    storage.PhotoPolicy(cfg.Storage.MaxPhotoBytes),
		Documents: storage.DocumentPolicy(cfg.Storage.MaxDocumentBytes),
		Hub:       hub,
	})
	if err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	server := httpapi.NewServer(database, cfg, inventory, logger)
	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("storage", cfg.Storage.Driver))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	}
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	logger.Info("shutdown complete")
	return nil
}

// openStatsCache uses Redis when REDIS_ADDR is set and no cache otherwise.
func openStatsCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (services.StatsCache, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("stats cache disabled")
		return services.NoopStatsCache{}, func() {}, nil
	}
	client, err := services.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	cache := services.RedisStatsCache{
		Client: client,
		TTL:    time.Duration(cfg.StatsCacheSeconds) * time.Second,
	}
	return cache, func() { _ = client.Close() }, nil
}

func openObjectStore(ctx context.Context, cfg config.Config) (storage.ObjectStore, func(), error) {
	buckets := map[storage.Bucket]string{
		storage.BucketPhotos:    cfg.Storage.PhotoBucket,
		storage.BucketDocuments: cfg.Storage.DocumentBucket,
	}
	if cfg.Storage.Driver == "gcs" {
		gcs, err := storage.NewGCS(ctx, buckets, cfg.Storage.GCSCredentials)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs: %w", err)
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}
	if err := os.MkdirAll(cfg.Storage.LocalPath, 0o755); err != nil {
		return nil, nil, fmt.Errorf("storage path: %w", err)
	}
	return storage.NewLocal(cfg.Storage.LocalPath, buckets, cfg.Storage.MinFreeBytes), func() {}, nil
}
