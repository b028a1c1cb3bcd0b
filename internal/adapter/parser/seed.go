package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

// ParseSeed reads "<count> x <symbol><denomination>" lines, e.g. "5 x R50".
// Lines starting with # are comments.
func (p *Parser) ParseSeed(r io.Reader) (domain.Seed, error) {
	var seed domain.Seed
	err := scanLines(r, func(n int, line string) error {
		if strings.HasPrefix(line, "#") {
			return nil
		}
		entry, err := p.parseSeedLine(line)
		if err != nil {
			return &domain.LineError{Line: n, Text: line, Err: err}
		}
		seed = append(seed, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := seed.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return seed, nil
}

func (p *Parser) parseSeedLine(line string) (domain.SeedEntry, error) {
	parts := strings.Split(line, " x ")
	if len(parts) != 2 {
		return domain.SeedEntry{}, fmt.Errorf("%w: want \"<count> x %s<denomination>\"", ErrMalformedInput, p.symbol)
	}
	count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return domain.SeedEntry{}, fmt.Errorf("%w: count %q: %v", ErrMalformedInput, parts[0], err)
	}
	denom, err := p.parseAmount(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.SeedEntry{}, err
	}
	if count > MaxAmount/denom {
		return domain.SeedEntry{}, fmt.Errorf("%w: %d x %s%d exceeds %d", ErrMalformedInput, count, p.symbol, denom, MaxAmount)
	}
	return domain.SeedEntry{Denomination: denom, Count: count}, nil
}
