package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/rl1809/till-simulator/internal/adapter/handler"
	"github.com/rl1809/till-simulator/internal/adapter/parser"
	"github.com/rl1809/till-simulator/internal/adapter/storage"
	"github.com/rl1809/till-simulator/internal/config"
	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/core/service"
	"github.com/rl1809/till-simulator/internal/logger"
	"github.com/rl1809/till-simulator/internal/obs"
	"github.com/rl1809/till-simulator/internal/port"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	p := parser.New(cfg.CurrencySymbol)

	seed := domain.DefaultSeed
	if cfg.SeedPath != "" {
		f, err := os.Open(cfg.SeedPath)
		if err != nil {
			zapLogger.Fatal("failed to open seed", zap.String("path", cfg.SeedPath), zap.Error(err))
		}
		seed, err = p.ParseSeed(f)
		f.Close()
		if err != nil {
			zapLogger.Fatal("failed to parse seed", zap.String("path", cfg.SeedPath), zap.Error(err))
		}
	}

	var (
		db        *sql.DB
		rdb       *redis.Client
		dbRepo    port.DatabaseRepository
		cacheRepo port.CacheRepository
	)

	// Initialize MySQL
	if cfg.MySQLDSN != "" {
		db, err = storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			zapLogger.Fatal("failed to connect mysql", zap.Error(err))
		}
		mysqlAdapter := storage.NewMySQLAdapter(db)
		if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
			zapLogger.Fatal("failed to apply schema", zap.Error(err))
		}
		dbRepo = mysqlAdapter
		zapLogger.Info("connected to mysql")
	}

	// Initialize Redis
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 20,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("failed to connect redis", zap.Error(err))
		}
		cacheRepo = storage.NewRedisAdapter(rdb)
		zapLogger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	var journal *service.JournalWorker
	if cfg.JournalEnabled() {
		journal = service.NewJournalWorker(dbRepo, cacheRepo, zapLogger)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := obs.NewMetrics(reg)

	simulator, err := service.NewSimulator(seed, p, cacheRepo, journal, zapLogger, metrics)
	if err != nil {
		zapLogger.Fatal("failed to build simulator", zap.Error(err))
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	handler.RegisterTillServiceServer(grpcServer, handler.NewGRPCHandler(simulator, p.Symbol(), zapLogger))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		zapLogger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		zapLogger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			zapLogger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(simulator, p.Symbol(), zapLogger)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/simulate", httpHandler.Simulate)
	mux.Handle("/metrics", metrics.Handler())

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zapLogger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			zapLogger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("HTTP shutdown", zap.Error(err))
	}
	zapLogger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	zapLogger.Info("gRPC server stopped")

	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	zapLogger.Info("connections closed")
}
