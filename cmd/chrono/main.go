package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/zsiec/chrono/internal/config"
	"github.com/zsiec/chrono/internal/logger"
	"github.com/zsiec/chrono/internal/marks"
	"github.com/zsiec/chrono/internal/metrics"
	"github.com/zsiec/chrono/internal/server"
	"github.com/zsiec/chrono/pkg/fps"
	"github.com/zsiec/chrono/pkg/version"
)

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "configs/default.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.Parse()

	if showVersion {
		fmt.Println(version.GetInfo().String())
		os.Exit(0)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithField("version", version.GetInfo().Short()).Info("Starting chrono timecode service")
	log.WithField("config_path", configPath).Debug("Configuration loaded")

	// Unknown catalog values are counted and logged at a sampled rate
	// instead of warning on every occurrence.
	catalogLog := logger.NewServiceLogger(logger.NewLogrusAdapter(logger.WithComponent(log, "fps")))
	fps.SetReporter(func(kind string, value interface{}) {
		metrics.IncrementUnknownRate(kind)
		catalogLog.WarnWithCategory(logger.CategoryUnknownRate, "Unknown frame rate", map[string]interface{}{
			"kind":  kind,
			"value": value,
		})
	})

	store, redisClient, err := openMarkStore(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open mark store")
	}

	if cfg.Metrics.Enabled {
		go startMetricsServer(cfg.Metrics, logger.NewLogrusAdapter(logger.WithComponent(log, "metrics")))
	}

	srv, err := server.New(cfg, log, store, redisClient)
	if err != nil {
		log.WithError(err).Fatal("Failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		log.WithError(err).Fatal("Server error")
	}

	if err := store.Close(); err != nil {
		log.WithError(err).Error("Failed to close mark store")
	}

	log.Info("Server shutdown complete")
}

// openMarkStore builds the configured mark backend. The Redis client is
// nil for the memory backend.
func openMarkStore(cfg *config.Config, log *logrus.Logger) (marks.Store, redis.UniversalClient, error) {
	if cfg.Marks.Backend != "redis" {
		log.Info("Using in-memory mark store")
		return marks.NewMemoryStore(cfg.Marks.TTL), nil, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Redis.Addresses,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.WithField("addresses", cfg.Redis.Addresses).Info("Connected to Redis successfully")

	return marks.NewRedisStore(client, log, cfg.Marks.KeyPrefix, cfg.Marks.TTL), client, nil
}

// startMetricsServer starts the Prometheus metrics server
func startMetricsServer(cfg config.MetricsConfig, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.WithField("addr", addr).Info("Starting metrics server")

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server error")
	}
}
