package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidDenomination = errors.New("denomination must be positive")
	ErrInvalidCount        = errors.New("count must not be negative")
	ErrDuplicateDenom      = errors.New("duplicate denomination")
)

// Stock maps a denomination value to the number of units in the drawer.
type Stock map[int]int

func (s Stock) Clone() Stock {
	out := make(Stock, len(s))
	for d, n := range s {
		out[d] = n
	}
	return out
}

// Value is the cash value held: sum of denomination * count.
func (s Stock) Value() int {
	total := 0
	for d, n := range s {
		total += d * n
	}
	return total
}

// Denominations returns the stocked denomination values, largest first.
func (s Stock) Denominations() []int {
	out := make([]int, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

func (s Stock) Has(denomination int) bool {
	_, ok := s[denomination]
	return ok
}

func (s Stock) Equal(other Stock) bool {
	if len(s) != len(other) {
		return false
	}
	for d, n := range s {
		m, ok := other[d]
		if !ok || m != n {
			return false
		}
	}
	return true
}

type SeedEntry struct {
	Denomination int
	Count        int
}

// Seed is the starting drawer configuration, loaded once per run.
type Seed []SeedEntry

// DefaultSeed is the drawer every till opens with unless configured otherwise.
var DefaultSeed = Seed{
	{Denomination: 50, Count: 5},
	{Denomination: 20, Count: 5},
	{Denomination: 10, Count: 6},
	{Denomination: 5, Count: 12},
	{Denomination: 2, Count: 10},
	{Denomination: 1, Count: 10},
}

func (s Seed) Validate() error {
	seen := make(map[int]struct{}, len(s))
	for _, e := range s {
		if e.Denomination <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidDenomination, e.Denomination)
		}
		if e.Count < 0 {
			return fmt.Errorf("%w: %d x %d", ErrInvalidCount, e.Count, e.Denomination)
		}
		if _, ok := seen[e.Denomination]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateDenom, e.Denomination)
		}
		seen[e.Denomination] = struct{}{}
	}
	return nil
}

// TillState is the drawer plus the running total tracked across transactions.
// RunningTotal accumulates gross sales and is not reduced by change paid out.
type TillState struct {
	Stock        Stock
	RunningTotal int
}

func NewTillState(seed Seed) (TillState, error) {
	if err := seed.Validate(); err != nil {
		return TillState{}, err
	}
	stock := make(Stock, len(seed))
	for _, e := range seed {
		stock[e.Denomination] = e.Count
	}
	return TillState{Stock: stock, RunningTotal: stock.Value()}, nil
}

// Clone returns a state that shares no memory with s.
func (s TillState) Clone() TillState {
	return TillState{Stock: s.Stock.Clone(), RunningTotal: s.RunningTotal}
}
