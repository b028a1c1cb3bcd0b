package service

import (
	"errors"
	"fmt"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

var (
	ErrUnrepresentable = errors.New("change not representable with current stock")
	ErrUnderpayment    = errors.New("paid total is less than items total")
	ErrNegativeAmount  = errors.New("change amount must not be negative")
)

// MakeChange takes denominations from stock, largest first, until amount is
// covered. On success stock stays decremented by the returned units. On
// failure stock is left exactly as it was.
//
// The selection is greedy only: if the greedy pass cannot hit amount exactly,
// ErrUnrepresentable is returned even when another combination would.
func MakeChange(amount int, stock domain.Stock) ([]int, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeAmount, amount)
	}
	if amount == 0 {
		return nil, nil
	}

	work := stock.Clone()
	remaining := amount
	var used []int

	for _, d := range work.Denominations() {
		if d > remaining {
			continue
		}
		for remaining >= d && work[d] > 0 {
			used = append(used, d)
			remaining -= d
			work[d]--
		}
		if remaining == 0 {
			break
		}
	}

	if remaining != 0 {
		return nil, ErrUnrepresentable
	}

	for d, n := range work {
		stock[d] = n
	}
	return used, nil
}
