package domain

import "time"

type Item struct {
	Description string `json:"description"`
	Amount      int    `json:"amount"`
}

type Transaction struct {
	Items []Item `json:"items"`
	Paid  []int  `json:"paid"`
}

func (t Transaction) ItemsTotal() int {
	total := 0
	for _, it := range t.Items {
		total += it.Amount
	}
	return total
}

func (t Transaction) PaidTotal() int {
	total := 0
	for _, p := range t.Paid {
		total += p
	}
	return total
}

// ChangeDue is negative when the customer underpaid.
func (t Transaction) ChangeDue() int {
	return t.PaidTotal() - t.ItemsTotal()
}

type Outcome string

const (
	OutcomeChange          Outcome = "change"
	OutcomeNoChange        Outcome = "no_change"
	OutcomeUnrepresentable Outcome = "unrepresentable"
	OutcomeUnderpaid       Outcome = "underpaid"
)

type SummaryRecord struct {
	TillStart  int     `json:"till_start"`
	ItemsTotal int     `json:"items_total"`
	PaidTotal  int     `json:"paid_total"`
	ChangeDue  int     `json:"change_due"`
	Change     []int   `json:"change,omitempty"`
	Outcome    Outcome `json:"outcome"`
}

// JournalEntry is a processed record together with the drawer right after it.
type JournalEntry struct {
	RunID     string
	Sequence  int
	Record    SummaryRecord
	Stock     Stock
	CreatedAt time.Time
}

type Report struct {
	RunID      string          `json:"run_id"`
	Records    []SummaryRecord `json:"records"`
	FinalTotal int             `json:"final_total"`
	FinalStock Stock           `json:"final_stock"`
	Rejected   []Rejection     `json:"rejected,omitempty"`
}
