package port

import (
	"context"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

type DatabaseRepository interface {
	// SaveRecord appends one processed transaction to the run journal
	SaveRecord(ctx context.Context, entry domain.JournalEntry) error

	// FinishRun stores the closing running total of a run
	FinishRun(ctx context.Context, runID string, finalTotal int) error

	// ListRecords returns the journaled records of a run in sequence order
	ListRecords(ctx context.Context, runID string) ([]domain.SummaryRecord, error)
}
