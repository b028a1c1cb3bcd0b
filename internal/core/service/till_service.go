package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/obs"
)

// Process applies one transaction to state and returns the next state with
// the summary record. state is not modified; the returned state owns a fresh
// stock map.
func Process(tx domain.Transaction, state domain.TillState) (domain.TillState, domain.SummaryRecord) {
	next := state.Clone()

	rec := domain.SummaryRecord{
		TillStart:  state.RunningTotal,
		ItemsTotal: tx.ItemsTotal(),
		PaidTotal:  tx.PaidTotal(),
	}
	rec.ChangeDue = rec.PaidTotal - rec.ItemsTotal

	switch {
	case rec.ChangeDue < 0:
		rec.Outcome = domain.OutcomeUnderpaid
	case rec.ChangeDue == 0:
		rec.Outcome = domain.OutcomeNoChange
	default:
		change, err := MakeChange(rec.ChangeDue, next.Stock)
		if err != nil {
			rec.Outcome = domain.OutcomeUnrepresentable
		} else {
			rec.Outcome = domain.OutcomeChange
			rec.Change = change
		}
	}

	// Sold items priced at a denomination take one unit out of that bucket.
	for _, it := range tx.Items {
		if n, ok := next.Stock[it.Amount]; ok && n > 0 {
			next.Stock[it.Amount] = n - 1
		}
	}

	next.RunningTotal = state.RunningTotal + rec.ItemsTotal
	return next, rec
}

// RecordErr returns the sentinel matching a failed record outcome, or nil.
func RecordErr(rec domain.SummaryRecord) error {
	switch rec.Outcome {
	case domain.OutcomeUnrepresentable:
		return ErrUnrepresentable
	case domain.OutcomeUnderpaid:
		return ErrUnderpayment
	}
	return nil
}

// TillService runs transactions against the single till it owns.
// It is not safe for concurrent use.
type TillService struct {
	runID   string
	state   domain.TillState
	seq     int
	records []domain.SummaryRecord
	log     *zap.Logger
	metrics *obs.Metrics
	queue   chan domain.JournalEntry
}

// NewTillService takes ownership of state. With queueSize > 0 every processed
// record is also published on Records for journaling.
func NewTillService(state domain.TillState, log *zap.Logger, metrics *obs.Metrics, queueSize int) *TillService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TillService{
		runID:   uuid.NewString(),
		state:   state.Clone(),
		log:     log,
		metrics: metrics,
	}
	if queueSize > 0 {
		s.queue = make(chan domain.JournalEntry, queueSize)
	}
	metrics.SetRunningTotal(s.state.RunningTotal)
	return s
}

func (s *TillService) RunID() string {
	return s.runID
}

// State returns a copy of the current till state.
func (s *TillService) State() domain.TillState {
	return s.state.Clone()
}

func (s *TillService) ProcessTransaction(ctx context.Context, tx domain.Transaction) (domain.SummaryRecord, error) {
	next, rec := Process(tx, s.state)
	s.state = next
	s.seq++
	s.records = append(s.records, rec)

	fields := []zap.Field{
		zap.String("run_id", s.runID),
		zap.Int("seq", s.seq),
		zap.String("outcome", string(rec.Outcome)),
		zap.Int("change_due", rec.ChangeDue),
	}
	switch rec.Outcome {
	case domain.OutcomeUnderpaid:
		s.log.Warn("transaction underpaid", fields...)
	case domain.OutcomeUnrepresentable:
		s.log.Warn("change not representable", fields...)
	default:
		s.log.Debug("transaction processed", append(fields, zap.Ints("change", rec.Change))...)
	}
	s.metrics.ObserveRecord(rec)
	s.metrics.SetRunningTotal(s.state.RunningTotal)

	if s.queue == nil {
		return rec, nil
	}
	entry := domain.JournalEntry{
		RunID:     s.runID,
		Sequence:  s.seq,
		Record:    rec,
		Stock:     s.state.Stock.Clone(),
		CreatedAt: time.Now(),
	}
	select {
	case s.queue <- entry:
	case <-ctx.Done():
		return rec, fmt.Errorf("publish record %d: %w", s.seq, ctx.Err())
	}
	return rec, nil
}

// Run processes txs in order and returns the report for everything processed
// so far, including earlier calls.
func (s *TillService) Run(ctx context.Context, txs []domain.Transaction) (domain.Report, error) {
	for _, tx := range txs {
		if _, err := s.ProcessTransaction(ctx, tx); err != nil {
			return s.Report(), err
		}
	}
	s.log.Info("run finished",
		zap.String("run_id", s.runID),
		zap.Int("transactions", s.seq),
		zap.Int("final_total", s.state.RunningTotal))
	return s.Report(), nil
}

func (s *TillService) Report() domain.Report {
	records := make([]domain.SummaryRecord, len(s.records))
	copy(records, s.records)
	return domain.Report{
		RunID:      s.runID,
		Records:    records,
		FinalTotal: s.state.RunningTotal,
		FinalStock: s.state.Stock.Clone(),
	}
}

func (s *TillService) Records() <-chan domain.JournalEntry {
	return s.queue
}

func (s *TillService) Close() {
	if s.queue != nil {
		close(s.queue)
	}
}
