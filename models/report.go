package models

import "time"

// ItemStatus classifies the outcome of a single item within a batch run.
type ItemStatus string

const (
	ItemSucceeded ItemStatus = "succeeded"
	ItemSkipped   ItemStatus = "skipped"
	ItemFailed    ItemStatus = "failed"
)

// ItemReport is the per-item outcome of a batch operation: one symbol or one
// index, its status, and the reason when it was skipped or failed.
type ItemReport struct {
	Item   string     `json:"item"`
	Status ItemStatus `json:"status"`
	Detail string     `json:"detail,omitempty"`
}

// RunReport is the result of one batch operation. Batch operations never
// collapse to a bare success/failure boolean: callers get the full per-item
// breakdown.
type RunReport struct {
	Operation  string       `json:"operation"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMs int64        `json:"duration_ms"`
	Succeeded  int          `json:"succeeded"`
	Skipped    int          `json:"skipped"`
	Failed     int          `json:"failed"`
	Items      []ItemReport `json:"items"`
}

// NewRunReport starts a report for the named operation.
func NewRunReport(operation string) *RunReport {
	return &RunReport{
		Operation: operation,
		StartedAt: time.Now(),
		Items:     []ItemReport{},
	}
}

// AddSuccess records a successfully processed item.
func (r *RunReport) AddSuccess(item, detail string) {
	r.Succeeded++
	r.Items = append(r.Items, ItemReport{Item: item, Status: ItemSucceeded, Detail: detail})
}

// AddSkip records an item that was deliberately not processed.
func (r *RunReport) AddSkip(item, reason string) {
	r.Skipped++
	r.Items = append(r.Items, ItemReport{Item: item, Status: ItemSkipped, Detail: reason})
}

// AddFailure records an item that errored.
func (r *RunReport) AddFailure(item string, err error) {
	r.Failed++
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	r.Items = append(r.Items, ItemReport{Item: item, Status: ItemFailed, Detail: detail})
}

// Finish stamps the total duration on the report.
func (r *RunReport) Finish() *RunReport {
	r.DurationMs = time.Since(r.StartedAt).Milliseconds()
	return r
}

// Total returns the number of items the run touched.
func (r *RunReport) Total() int {
	return r.Succeeded + r.Skipped + r.Failed
}
