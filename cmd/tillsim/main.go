package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/till-simulator/internal/adapter/handler"
	"github.com/rl1809/till-simulator/internal/adapter/parser"
	"github.com/rl1809/till-simulator/internal/adapter/report"
	"github.com/rl1809/till-simulator/internal/adapter/storage"
	"github.com/rl1809/till-simulator/internal/config"
	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/core/service"
	"github.com/rl1809/till-simulator/internal/logger"
	"github.com/rl1809/till-simulator/internal/port"
)

const remoteTimeout = 30 * time.Second

var errSeedWithRemote = errors.New("a seed file only applies to local runs; the server opens tills from its own seed")

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	flag.StringVar(&cfg.InputPath, "input", cfg.InputPath, "transaction log to replay")
	flag.StringVar(&cfg.SeedPath, "seed", cfg.SeedPath, "opening drawer file (default float when empty)")
	flag.StringVar(&cfg.Format, "format", cfg.Format, "report format: text or json")
	flag.BoolVar(&cfg.Lenient, "lenient", cfg.Lenient, "report malformed lines and keep going")
	flag.StringVar(&cfg.RemoteAddr, "remote", cfg.RemoteAddr, "run on a till server at this gRPC address")
	flag.Parse()

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	if err := run(cfg, zapLogger, os.Stdout); err != nil {
		zapLogger.Error("till run failed", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, zapLogger *zap.Logger, out io.Writer) error {
	if cfg.RemoteAddr != "" && cfg.SeedPath != "" {
		return errSeedWithRemote
	}

	ctx := context.Background()
	p := parser.New(cfg.CurrencySymbol)
	writer := report.NewWriter(out, p.Symbol())

	input, err := os.ReadFile(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if cfg.RemoteAddr != "" {
		rep, err := runRemote(ctx, cfg, string(input))
		if err != nil {
			return err
		}
		return writer.Write(rep, cfg.Format)
	}

	seed, err := loadSeed(p, cfg.SeedPath)
	if err != nil {
		return err
	}
	state, err := domain.NewTillState(seed)
	if err != nil {
		return err
	}

	txs, rejected, err := parseInput(p, string(input), cfg.Lenient)
	if err != nil {
		return err
	}
	for _, le := range rejected {
		zapLogger.Warn("rejected input line", zap.Int("line", le.Line), zap.String("text", le.Text), zap.Error(le.Err))
	}

	journal, closeJournal, err := openJournal(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer closeJournal()

	queueSize := 0
	if journal != nil {
		queueSize = cfg.JournalQueueSize
	}
	till := service.NewTillService(state, zapLogger, nil, queueSize)

	var wg sync.WaitGroup
	if journal != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if failed := journal.Drain(till.Records()); failed > 0 {
				zapLogger.Warn("journal incomplete", zap.String("run_id", till.RunID()), zap.Int("failed", failed))
			}
		}()
	}

	rep, runErr := till.Run(ctx, txs)
	till.Close()
	wg.Wait()
	if runErr != nil {
		return runErr
	}
	for _, le := range rejected {
		rep.Rejected = append(rep.Rejected, le.Rejection())
	}

	if journal != nil {
		if err := journal.Finish(ctx, rep); err != nil {
			zapLogger.Error("failed to finish journal run", zap.String("run_id", rep.RunID), zap.Error(err))
		}
	}

	return writer.Write(rep, cfg.Format)
}

func loadSeed(p *parser.Parser, path string) (domain.Seed, error) {
	if path == "" {
		return domain.DefaultSeed, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed: %w", err)
	}
	defer f.Close()

	seed, err := p.ParseSeed(f)
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	return seed, nil
}

func parseInput(p *parser.Parser, input string, lenient bool) ([]domain.Transaction, []*domain.LineError, error) {
	r := strings.NewReader(input)
	if !lenient {
		txs, err := p.Parse(r)
		return txs, nil, err
	}
	return p.ParseLenient(r)
}

// openJournal connects whichever of MySQL and Redis is configured. The
// returned worker is nil when neither is.
func openJournal(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*service.JournalWorker, func(), error) {
	if !cfg.JournalEnabled() {
		return nil, func() {}, nil
	}

	var (
		db      port.DatabaseRepository
		cache   port.CacheRepository
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.MySQLDSN != "" {
		conn, err := storage.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { conn.Close() })

		mysqlAdapter := storage.NewMySQLAdapter(conn)
		if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
			closeAll()
			return nil, nil, err
		}
		db = mysqlAdapter
		zapLogger.Info("journal enabled", zap.String("store", "mysql"))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			closeAll()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		closers = append(closers, func() { rdb.Close() })
		cache = storage.NewRedisAdapter(rdb)
		zapLogger.Info("drawer mirror enabled", zap.String("addr", cfg.RedisAddr))
	}

	return service.NewJournalWorker(db, cache, zapLogger), closeAll, nil
}

func runRemote(ctx context.Context, cfg *config.Config, input string) (domain.Report, error) {
	conn, err := grpc.NewClient(cfg.RemoteAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return domain.Report{}, fmt.Errorf("dial %s: %w", cfg.RemoteAddr, err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	resp, err := handler.NewTillServiceClient(conn).Simulate(ctx, &handler.SimulateRequest{
		Input:   input,
		Lenient: cfg.Lenient,
	})
	if err != nil {
		return domain.Report{}, fmt.Errorf("remote simulate: %w", err)
	}
	return resp.Report(), nil
}
