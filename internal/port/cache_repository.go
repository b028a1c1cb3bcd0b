package port

import (
	"context"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

type CacheRepository interface {
	// SaveStock replaces the drawer snapshot stored for a run
	SaveStock(ctx context.Context, runID string, stock domain.Stock) error

	// GetStock returns the last snapshot for a run, nil if none was stored
	GetStock(ctx context.Context, runID string) (domain.Stock, error)

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
