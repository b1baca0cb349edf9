package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IgorGrieder/guardiao-url/internal/config"
	"github.com/IgorGrieder/guardiao-url/internal/events"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/db"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/logger"
	"github.com/IgorGrieder/guardiao-url/internal/infrastructure/telemetry"
	"github.com/IgorGrieder/guardiao-url/internal/processing/gateway"
	"github.com/IgorGrieder/guardiao-url/internal/processing/intel"
	"github.com/IgorGrieder/guardiao-url/internal/processing/shortlinks"
	"github.com/IgorGrieder/guardiao-url/internal/ratelimit"
	mongoStorage "github.com/IgorGrieder/guardiao-url/internal/storage/mongo"
	redisStorage "github.com/IgorGrieder/guardiao-url/internal/storage/redis"
	httpTransport "github.com/IgorGrieder/guardiao-url/internal/transport/http"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.App.Env, cfg.App.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
	)

	var shutdownTracer func(context.Context) error
	if cfg.OTel.Enabled {
		var err error
		shutdownTracer, err = telemetry.InitTracer(cfg.OTel.Endpoint, cfg.App.Name, cfg.App.Version)
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			logger.Info("OpenTelemetry tracer initialized", zap.String("endpoint", cfg.OTel.Endpoint))
		}
	}

	mongoConn, err := db.ConnectMongo(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = mongoConn.Disconnect() }()

	shortlinkRepo, err := mongoStorage.NewShortlinksRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize shortlinks repository", zap.Error(err))
	}
	profileRepo, err := mongoStorage.NewProfilesRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize profiles repository", zap.Error(err))
	}
	visitsRepo, err := mongoStorage.NewVisitsRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize visits repository", zap.Error(err))
	}
	statsRepo, err := mongoStorage.NewVisitStatsRepository(mongoConn)
	if err != nil {
		logger.Fatal("Failed to initialize visit stats repository", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared Redis counter when available, so every node enforces the same
	// budget. A process-local window is the degraded fallback.
	var admitter ratelimit.Admitter
	redisAdmitter, err := redisStorage.NewFixedWindowAdmitter(
		redisStorage.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		"rl:visit",
		cfg.Gateway.RateLimitWindow,
		cfg.Gateway.RateLimitMax,
		cfg.Gateway.RateLimitFailOpen,
	)
	if err != nil {
		logger.Warn("Redis unavailable, falling back to in-process rate limiting", zap.Error(err))
		memory := ratelimit.NewMemoryFixedWindow(cfg.Gateway.RateLimitWindow, cfg.Gateway.RateLimitMax)
		go memory.Janitor(rootCtx, cfg.Gateway.RateLimitWindow)
		admitter = memory
	} else {
		defer func() { _ = redisAdmitter.Close() }()
		admitter = redisAdmitter
	}

	prober := shortlinks.NewHTTPProber(cfg.Monitor.ProbeTimeout)
	linkSvc := shortlinks.NewService(shortlinkRepo, prober)

	if cfg.Monitor.Enabled {
		monitor := shortlinks.NewMonitor(shortlinkRepo, prober, cfg.Monitor.Interval)
		go monitor.Start(rootCtx)
	}

	aggregator := intel.NewAggregator(
		cfg.Intel.Timeout,
		cfg.Gateway.FallbackIP,
		intel.NewIPDetectiveSource(cfg.Intel.IPDetectiveBaseURL, cfg.Intel.IPDetectiveAPIKey, cfg.Intel.Timeout),
		intel.NewIPWhoisSource(cfg.Intel.IPWhoisBaseURL, cfg.Intel.Timeout),
	)

	var publisher gateway.EventPublisher
	if cfg.Kafka.Enabled {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		publisher = kafkaPublisher
		logger.Info("Kafka visit events enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	gatewaySvc := gateway.NewService(
		admitter,
		profileRepo,
		shortlinkRepo,
		aggregator,
		visitsRepo,
		publisher,
		gateway.Options{
			FailOpen:    cfg.Gateway.RateLimitFailOpen,
			DedupWindow: cfg.Gateway.DedupWindow,
			DecoyURLs:   cfg.Gateway.DecoyURLs,
		},
	)

	router := httpTransport.NewRouter(cfg, httpTransport.RouterDeps{
		Gateway:  httpTransport.NewGatewayHandler(cfg, gatewaySvc),
		Links:    httpTransport.NewLinksHandler(linkSvc, statsRepo),
		Profiles: profileRepo,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-rootCtx.Done()

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if shutdownTracer != nil {
			_ = shutdownTracer(shutdownCtx)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("Server starting",
		zap.String("port", cfg.Server.Port),
		zap.String("env", cfg.App.Env),
		zap.String("address", fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)),
	)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
