// Package parser turns the textual till log and seed files into domain values.
//
// A transaction line lists the items, then a comma, then the tendered amounts:
//
//	Bread R12; Milk R38, R20-R50
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

const (
	DefaultSymbol = "R"

	// MaxAmount bounds every amount and every line total so that running
	// totals cannot overflow.
	MaxAmount = math.MaxInt32

	// MaxLineLen is the longest line the scanner accepts. It is larger than
	// any request body the handlers let through.
	MaxLineLen = 4 << 20
)

// ErrMalformedInput is returned, wrapped, for every unparsable line.
var ErrMalformedInput = domain.ErrMalformedInput

type Parser struct {
	symbol string
}

func New(symbol string) *Parser {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	return &Parser{symbol: symbol}
}

func (p *Parser) Symbol() string {
	return p.symbol
}

// Parse reads every transaction and stops at the first malformed line.
func (p *Parser) Parse(r io.Reader) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := scanLines(r, func(n int, line string) error {
		tx, err := p.ParseLine(line)
		if err != nil {
			return &domain.LineError{Line: n, Text: line, Err: err}
		}
		txs = append(txs, tx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txs, nil
}

// ParseLenient keeps going past malformed lines and returns them alongside the
// transactions that did parse. The error is only set for read failures.
func (p *Parser) ParseLenient(r io.Reader) ([]domain.Transaction, []*domain.LineError, error) {
	var (
		txs    []domain.Transaction
		failed []*domain.LineError
	)
	err := scanLines(r, func(n int, line string) error {
		tx, err := p.ParseLine(line)
		if err != nil {
			failed = append(failed, &domain.LineError{Line: n, Text: line, Err: err})
			return nil
		}
		txs = append(txs, tx)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return txs, failed, nil
}

func (p *Parser) ParseLine(line string) (domain.Transaction, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 2 {
		return domain.Transaction{}, fmt.Errorf("%w: want \"<items>, <paid>\", got %d fields", ErrMalformedInput, len(parts))
	}

	var tx domain.Transaction
	for _, raw := range strings.Split(parts[0], ";") {
		item, err := p.parseItem(strings.TrimSpace(raw))
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.Items = append(tx.Items, item)
	}
	for _, raw := range strings.Split(parts[1], "-") {
		amount, err := p.parseAmount(strings.TrimSpace(raw))
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.Paid = append(tx.Paid, amount)
	}
	if tx.ItemsTotal() > MaxAmount || tx.PaidTotal() > MaxAmount {
		return domain.Transaction{}, fmt.Errorf("%w: line total exceeds %d", ErrMalformedInput, MaxAmount)
	}
	return tx, nil
}

func (p *Parser) parseItem(s string) (domain.Item, error) {
	i := strings.LastIndex(s, " "+p.symbol)
	if i <= 0 {
		return domain.Item{}, fmt.Errorf("%w: item %q has no description and price", ErrMalformedInput, s)
	}
	desc := strings.TrimSpace(s[:i])
	if desc == "" {
		return domain.Item{}, fmt.Errorf("%w: item %q has no description", ErrMalformedInput, s)
	}
	amount, err := p.parseAmount(s[i+1:])
	if err != nil {
		return domain.Item{}, err
	}
	return domain.Item{Description: desc, Amount: amount}, nil
}

// parseAmount reads "<symbol><positive int>".
func (p *Parser) parseAmount(s string) (int, error) {
	if !strings.HasPrefix(s, p.symbol) {
		return 0, fmt.Errorf("%w: amount %q must start with %q", ErrMalformedInput, s, p.symbol)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s[len(p.symbol):]))
	if err != nil {
		return 0, fmt.Errorf("%w: amount %q: %v", ErrMalformedInput, s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: amount %q must be positive", ErrMalformedInput, s)
	}
	if n > MaxAmount {
		return 0, fmt.Errorf("%w: amount %q exceeds %d", ErrMalformedInput, s, MaxAmount)
	}
	return n, nil
}

// scanLines calls fn for every non-blank line with its 1-based number.
func scanLines(r io.Reader, fn func(n int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineLen)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return &domain.LineError{
				Line: n + 1,
				Err:  fmt.Errorf("%w: line longer than %d bytes", ErrMalformedInput, MaxLineLen),
			}
		}
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}
