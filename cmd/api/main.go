// cmd/api/main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"agentesocial/internal/adapter/cache"
	"agentesocial/internal/adapter/events"
	"agentesocial/internal/adapter/storage"
	"agentesocial/internal/config"
	"agentesocial/internal/domain/store"
	"agentesocial/internal/domain/virality"
	"agentesocial/internal/logging"
	"agentesocial/internal/metrics"
	"agentesocial/internal/server"
	"agentesocial/internal/service/analysis"
	"agentesocial/internal/service/learning"
	"agentesocial/internal/service/scoring"
	"agentesocial/internal/service/tools"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewServiceLogger(cfg.Log, "agentesocial-api")

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("App exited with error")
	}
	logger.Info("App exited successfully")
}

func run(cfg config.Config, logger *logrus.Entry) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// Initialize dependencies
	recordStore, closeStore, err := initStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	var (
		publisher  virality.Publisher
		subscriber events.Subscriber
	)
	if cfg.NATS.URL != "" {
		natsConn, err := initNATS(cfg.NATS, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsConn.Close()

		publisher = events.NewPublisher(natsConn, cfg.Virality.EventsTopic, m, logger)
		subscriber = events.NewNATSSubscriber(natsConn)
	} else {
		logger.Warn("NATS_URL is empty, viral events are disabled")
	}

	var responseCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()

		responseCache = cache.NewRedisCache(rdb, cfg.Redis.CacheTTL, m, logger)
	} else {
		logger.Info("REDIS_ADDR is empty, response caching is disabled")
	}

	// Initialize services
	analyzer := scoring.NewService(publisher, m, logger, scoring.ServiceConfig{
		Workers:           cfg.Virality.Workers,
		ParallelThreshold: cfg.Virality.ParallelThreshold,
	})

	analyzer.RegisterViralHandler(func(r virality.Result) error {
		logger.WithFields(logrus.Fields{
			"content_id":     r.ContentID,
			"score":          r.ViralityScore,
			"classification": r.Classification,
		}).Info("Viral content detected")
		return nil
	})

	aggregator := learning.NewService(recordStore, m, logger, learning.Config{
		ContentLimit:      cfg.Learning.ContentLimit,
		TopN:              cfg.Learning.TopN,
		GrowthDays:        cfg.Learning.GrowthDays,
		MinInsightsSample: cfg.Learning.MinInsightsSample,
	})

	analysisService := analysis.NewService(recordStore, m, logger, analysis.Config{
		ViralMinScore: cfg.Analysis.ViralMinScore,
		ViralLimit:    cfg.Analysis.ViralLimit,
	})

	deps := server.Dependencies{
		Analyzer:      analyzer,
		Aggregator:    aggregator,
		Analysis:      analysisService,
		Tools:         tools.NewDefaultRegistry(analyzer, aggregator, logger),
		Subscriber:    subscriber,
		EventsTopic:   cfg.Virality.EventsTopic,
		Gatherer:      reg,
		TopContentMax: cfg.Analysis.TopContentMax,
	}
	if responseCache != nil {
		deps.Cache = responseCache
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg.Server, deps, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			logger.WithField("signal", sig.String()).Info("Shutdown signal received")
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("HTTP server shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Initialize the record store for the configured driver
func initStore(ctx context.Context, cfg config.DatabaseConfig, logger logrus.FieldLogger) (store.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("Using the in-memory store, records are lost on restart")
		return storage.NewMemoryStore(), func() {}, nil
	}

	db, err := initDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return storage.NewRecordStore(db, cfg.TablePrefix), db.Close, nil
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger logrus.FieldLogger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("agentesocial-api"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
