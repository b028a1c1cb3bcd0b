package port

import (
	"io"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

type TransactionParser interface {
	// Parse fails on the first malformed line
	Parse(r io.Reader) ([]domain.Transaction, error)

	// ParseLenient returns malformed lines instead of failing on them
	ParseLenient(r io.Reader) ([]domain.Transaction, []*domain.LineError, error)
}
