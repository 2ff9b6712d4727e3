package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/plexo/internal/application/jobs"
	"github.com/aescanero/plexo/internal/application/orchestrator"
	"github.com/aescanero/plexo/internal/config"
	eventsmemory "github.com/aescanero/plexo/pkg/adapters/events/memory"
	eventsredis "github.com/aescanero/plexo/pkg/adapters/events/redis"
	"github.com/aescanero/plexo/pkg/adapters/metrics/prometheus"
	storagememory "github.com/aescanero/plexo/pkg/adapters/storage/memory"
	storageredis "github.com/aescanero/plexo/pkg/adapters/storage/redis"
	"github.com/aescanero/plexo/pkg/api/grpc"
	"github.com/aescanero/plexo/pkg/api/http"
	"github.com/aescanero/plexo/pkg/api/websocket"
	"github.com/aescanero/plexo/pkg/plugin"
	"github.com/aescanero/plexo/pkg/ports"

	// Registered plugins
	_ "github.com/aescanero/plexo/plugins/hostinfo"
	_ "github.com/aescanero/plexo/plugins/pingcheck"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting plugin orchestrator",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx := context.Background()

	// Initialize Redis client when a redis backend is selected
	var redisClient *goredis.Client
	if cfg.NeedsRedis() {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// Initialize adapters
	var store ports.ResultStore
	if cfg.ResultBackend == config.BackendRedis {
		store = storageredis.NewResultStore(redisClient, logger)
	} else {
		store = storagememory.NewResultStore()
	}

	var eventBus ports.EventBus
	if cfg.EventBackend == config.BackendRedis {
		eventBus, err = eventsredis.NewStreamsEventBus(
			redisClient,
			"plexo-events",
			fmt.Sprintf("plexo-%d", os.Getpid()),
			logger,
		)
		if err != nil {
			logger.Fatal("failed to create event bus", zap.Error(err))
		}
	} else {
		eventBus = eventsmemory.NewEventBus()
	}

	metricsCollector := prometheus.NewCollector()

	// Initialize application components
	validator := orchestrator.NewValidator(orchestrator.NewExecResolver(), metricsCollector)
	jobRegistry := jobs.NewRegistry(cfg.Scheduler.PollInterval, metricsCollector, logger)

	orchestratorMgr := orchestrator.NewManager(
		plugin.Default,
		validator,
		jobRegistry,
		store,
		eventBus,
		metricsCollector,
		logger,
		cfg.Scheduler.SettleDelay,
	)

	loaded := orchestratorMgr.LoadDefaults()

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:         cfg.HTTPPort,
		Orchestrator: orchestratorMgr,
		Logger:       logger,
	})

	// Add WebSocket handler to HTTP server
	wsHandler := websocket.NewHandler(eventBus, logger)
	httpServer.SetupWebSocket(wsHandler)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:         cfg.GRPCPort,
		Orchestrator: orchestratorMgr,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("plugin orchestrator started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Strings("plugins", loaded))

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := orchestratorMgr.Shutdown(shutdownCtx); err != nil {
		logger.Error("orchestrator shutdown error", zap.Error(err))
	}

	if err := eventBus.Close(); err != nil {
		logger.Error("event bus close error", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("plugin orchestrator shut down complete")
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
