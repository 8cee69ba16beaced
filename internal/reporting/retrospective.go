// Package reporting aggregates payment activity into a retrospective report.
// The orchestrator feeds a Recorder one entry per attempt outcome; the report
// endpoint summarizes whatever has accumulated.
package reporting

import (
	"sync"
	"time"
)

// Entry statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
	StatusRetry   = "RETRY"
	StatusSkipped = "SKIPPED" // idempotent short-circuit, no gateway call
)

// Entry is a single payment event.
type Entry struct {
	Timestamp    time.Time `json:"timestamp"`
	OrderID      string    `json:"orderId"`
	CustomerID   string    `json:"customerId"`
	Status       string    `json:"status"`
	Amount       float64   `json:"amount"`
	Currency     string    `json:"currency"`
	ErrorCode    string    `json:"errorCode,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// Recorder accumulates entries. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends one entry.
func (r *Recorder) Record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Snapshot returns a copy of the accumulated entries.
func (r *Recorder) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Report summarizes payment activity over a set of entries.
type Report struct {
	TotalEvents          int                `json:"totalEvents"`
	SuccessfulPayments   int                `json:"successfulPayments"`
	FailedPayments       int                `json:"failedPayments"`
	RetriedAttempts      int                `json:"retriedAttempts"`
	SkippedAlreadyPaid   int                `json:"skippedAlreadyPaid"`
	TotalAmountProcessed float64            `json:"totalAmountProcessed"`
	AmountByCurrency     map[string]float64 `json:"amountByCurrency"`
	ErrorBreakdown       map[string]int     `json:"errorBreakdown"`
	From                 time.Time          `json:"from"`
	To                   time.Time          `json:"to"`
}

// BuildReport aggregates entries into a Report. Amount totals count
// successful payments only; the error breakdown counts failures by error code.
func BuildReport(entries []Entry) Report {
	report := Report{
		AmountByCurrency: make(map[string]float64),
		ErrorBreakdown:   make(map[string]int),
	}
	for _, e := range entries {
		report.TotalEvents++

		if report.From.IsZero() || e.Timestamp.Before(report.From) {
			report.From = e.Timestamp
		}
		if e.Timestamp.After(report.To) {
			report.To = e.Timestamp
		}

		switch e.Status {
		case StatusSuccess:
			report.SuccessfulPayments++
			report.TotalAmountProcessed += e.Amount
			report.AmountByCurrency[e.Currency] += e.Amount
		case StatusFailure:
			report.FailedPayments++
			if e.ErrorCode != "" {
				report.ErrorBreakdown[e.ErrorCode]++
			}
		case StatusRetry:
			report.RetriedAttempts++
		case StatusSkipped:
			report.SkippedAlreadyPaid++
		}
	}
	return report
}
