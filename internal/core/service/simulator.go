package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/obs"
	"github.com/rl1809/till-simulator/internal/port"
)

var ErrDuplicateRequest = errors.New("duplicate request")

type SimulateRequest struct {
	RequestID string
	Input     string
	Lenient   bool
}

// Simulator runs each request on a till of its own, opened from the same seed.
type Simulator struct {
	seed    domain.Seed
	parser  port.TransactionParser
	cache   port.CacheRepository
	journal *JournalWorker
	log     *zap.Logger
	metrics *obs.Metrics
}

// NewSimulator validates seed up front. cache and journal may be nil.
func NewSimulator(seed domain.Seed, parser port.TransactionParser, cache port.CacheRepository, journal *JournalWorker, log *zap.Logger, metrics *obs.Metrics) (*Simulator, error) {
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Simulator{
		seed:    seed,
		parser:  parser,
		cache:   cache,
		journal: journal,
		log:     log,
		metrics: metrics,
	}, nil
}

func (s *Simulator) Simulate(ctx context.Context, req SimulateRequest) (domain.Report, error) {
	txs, rejected, err := s.parse(req)
	if err != nil {
		return domain.Report{}, err
	}

	if req.RequestID != "" && s.cache != nil {
		ok, err := s.cache.SetIdempotency(ctx, "simulate:"+req.RequestID)
		if err != nil {
			return domain.Report{}, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return domain.Report{}, ErrDuplicateRequest
		}
	}

	state, err := domain.NewTillState(s.seed)
	if err != nil {
		return domain.Report{}, err
	}

	queueSize := 0
	if s.journal != nil {
		// Room for the whole batch so publishing never waits on the journal.
		queueSize = len(txs) + 1
	}
	till := NewTillService(state, s.log, s.metrics, queueSize)

	rep, err := till.Run(ctx, txs)
	till.Close()
	if err != nil {
		return domain.Report{}, err
	}
	for _, le := range rejected {
		rep.Rejected = append(rep.Rejected, le.Rejection())
	}

	if s.journal != nil {
		if failed := s.journal.Drain(till.Records()); failed > 0 {
			s.log.Warn("journal incomplete", zap.String("run_id", rep.RunID), zap.Int("failed", failed))
		}
		if err := s.journal.Finish(ctx, rep); err != nil {
			s.log.Error("failed to finish journal run", zap.String("run_id", rep.RunID), zap.Error(err))
		}
	}

	s.log.Info("simulation completed",
		zap.String("request_id", req.RequestID),
		zap.String("run_id", rep.RunID),
		zap.Int("transactions", len(rep.Records)),
		zap.Int("rejected", len(rep.Rejected)))
	return rep, nil
}

func (s *Simulator) parse(req SimulateRequest) ([]domain.Transaction, []*domain.LineError, error) {
	r := strings.NewReader(req.Input)
	if !req.Lenient {
		txs, err := s.parser.Parse(r)
		return txs, nil, err
	}
	txs, rejected, err := s.parser.ParseLenient(r)
	for _, le := range rejected {
		s.log.Warn("rejected input line", zap.Int("line", le.Line), zap.Error(le.Err))
	}
	return txs, rejected, err
}
