// Package report renders a till run for people (text) or tools (json).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

const (
	NoChange  = "No Change"
	Underpaid = "Underpaid"

	FormatText = "text"
	FormatJSON = "json"
)

type Writer struct {
	w      io.Writer
	symbol string
}

func NewWriter(w io.Writer, symbol string) *Writer {
	return &Writer{w: w, symbol: symbol}
}

// Breakdown renders the change column, e.g. "R20-R10".
func Breakdown(rec domain.SummaryRecord, symbol string) string {
	switch rec.Outcome {
	case domain.OutcomeUnderpaid:
		return Underpaid
	case domain.OutcomeChange:
		parts := make([]string, len(rec.Change))
		for i, d := range rec.Change {
			parts[i] = symbol + strconv.Itoa(d)
		}
		return strings.Join(parts, "-")
	}
	return NoChange
}

func (r *Writer) Header() error {
	_, err := fmt.Fprint(r.w, "Transaction Summary:\nTill Start, Transaction Total, Paid, Change Total, Change Breakdown\n")
	return err
}

func (r *Writer) Row(rec domain.SummaryRecord) error {
	_, err := fmt.Fprintf(r.w, "%s, %s, %s, %s, %s\n",
		r.money(rec.TillStart), r.money(rec.ItemsTotal), r.money(rec.PaidTotal), r.money(rec.ChangeDue), Breakdown(rec, r.symbol))
	return err
}

func (r *Writer) Footer(finalTotal int) error {
	_, err := fmt.Fprintf(r.w, "Remaining Till Balance: %s\n", r.money(finalTotal))
	return err
}

// Write renders the whole report in the given format.
func (r *Writer) Write(rep domain.Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatText, "":
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	if err := r.Header(); err != nil {
		return err
	}
	for _, rec := range rep.Records {
		if err := r.Row(rec); err != nil {
			return err
		}
	}
	return r.Footer(rep.FinalTotal)
}

func (r *Writer) money(v int) string {
	return r.symbol + strconv.Itoa(v)
}
