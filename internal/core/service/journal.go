package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/till-simulator/internal/core/domain"
	"github.com/rl1809/till-simulator/internal/port"
)

const journalWriteTimeout = 5 * time.Second

// JournalWorker persists published records and mirrors the drawer after each
// one. Either repository may be nil.
type JournalWorker struct {
	db    port.DatabaseRepository
	cache port.CacheRepository
	log   *zap.Logger
}

func NewJournalWorker(db port.DatabaseRepository, cache port.CacheRepository, log *zap.Logger) *JournalWorker {
	if log == nil {
		log = zap.NewNop()
	}
	return &JournalWorker{db: db, cache: cache, log: log}
}

// Drain consumes entries until the channel is closed and returns how many
// could not be stored. A failed write is logged and the worker moves on.
func (w *JournalWorker) Drain(entries <-chan domain.JournalEntry) int {
	failed := 0
	for entry := range entries {
		ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		if !w.write(ctx, entry) {
			failed++
		}
		cancel()
	}
	return failed
}

func (w *JournalWorker) write(ctx context.Context, entry domain.JournalEntry) bool {
	ok := true
	if w.db != nil {
		if err := w.db.SaveRecord(ctx, entry); err != nil {
			w.log.Error("failed to journal record",
				zap.String("run_id", entry.RunID), zap.Int("seq", entry.Sequence), zap.Error(err))
			ok = false
		}
	}
	if w.cache != nil {
		if err := w.cache.SaveStock(ctx, entry.RunID, entry.Stock); err != nil {
			w.log.Error("failed to mirror drawer",
				zap.String("run_id", entry.RunID), zap.Int("seq", entry.Sequence), zap.Error(err))
			ok = false
		}
	}
	return ok
}

// Finish closes the run in the journal.
func (w *JournalWorker) Finish(ctx context.Context, rep domain.Report) error {
	if w.db != nil {
		if err := w.db.FinishRun(ctx, rep.RunID, rep.FinalTotal); err != nil {
			return err
		}
	}
	if w.cache != nil {
		return w.cache.SaveStock(ctx, rep.RunID, rep.FinalStock)
	}
	return nil
}
