package handler

import (
	"github.com/rl1809/till-simulator/internal/adapter/report"
	"github.com/rl1809/till-simulator/internal/core/domain"
)

type SimulateRequest struct {
	RequestID string `json:"request_id"`
	Input     string `json:"input"`
	Lenient   bool   `json:"lenient"`
}

type RecordResponse struct {
	TillStart  int    `json:"till_start"`
	ItemsTotal int    `json:"items_total"`
	PaidTotal  int    `json:"paid_total"`
	ChangeDue  int    `json:"change_due"`
	Change     []int  `json:"change,omitempty"`
	Outcome    string `json:"outcome"`
	Breakdown  string `json:"breakdown"`
}

type SimulateResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	RunID      string             `json:"run_id,omitempty"`
	Records    []RecordResponse   `json:"records,omitempty"`
	FinalTotal int                `json:"final_total"`
	FinalStock domain.Stock       `json:"final_stock,omitempty"`
	Rejected   []domain.Rejection `json:"rejected,omitempty"`
}

func newSimulateResponse(rep domain.Report, symbol string) *SimulateResponse {
	resp := &SimulateResponse{
		Success:    true,
		Message:    "simulation completed",
		RunID:      rep.RunID,
		FinalTotal: rep.FinalTotal,
		FinalStock: rep.FinalStock,
		Rejected:   rep.Rejected,
	}
	for _, rec := range rep.Records {
		resp.Records = append(resp.Records, RecordResponse{
			TillStart:  rec.TillStart,
			ItemsTotal: rec.ItemsTotal,
			PaidTotal:  rec.PaidTotal,
			ChangeDue:  rec.ChangeDue,
			Change:     rec.Change,
			Outcome:    string(rec.Outcome),
			Breakdown:  report.Breakdown(rec, symbol),
		})
	}
	return resp
}

// Report rebuilds the domain report from a response.
func (r *SimulateResponse) Report() domain.Report {
	rep := domain.Report{
		RunID:      r.RunID,
		FinalTotal: r.FinalTotal,
		FinalStock: r.FinalStock,
		Rejected:   r.Rejected,
	}
	for _, rec := range r.Records {
		rep.Records = append(rep.Records, domain.SummaryRecord{
			TillStart:  rec.TillStart,
			ItemsTotal: rec.ItemsTotal,
			PaidTotal:  rec.PaidTotal,
			ChangeDue:  rec.ChangeDue,
			Change:     rec.Change,
			Outcome:    domain.Outcome(rec.Outcome),
		})
	}
	return rep
}
