package models

import "time"

// ValuationReference is the slow-changing per-symbol baseline: the trailing
// 5-year average P/E plus the discount threshold used to classify snapshots.
// At most one row exists per symbol; it is updated in place, never appended.
type ValuationReference struct {
	Symbol               string    `json:"symbol"`
	Avg5yPE              float64   `json:"avg_5y_pe"`
	DiscountThresholdPct float64   `json:"discount_threshold_pct"`
	LastUpdated          time.Time `json:"last_updated"`
	CreatedAt            time.Time `json:"created_at"`
}

// ReferenceRow is the joined view the snapshot generator works from: the
// reference baseline plus the industry of the symbol from the stock master.
type ReferenceRow struct {
	Symbol               string  `json:"symbol"`
	Avg5yPE              float64 `json:"avg_5y_pe"`
	DiscountThresholdPct float64 `json:"discount_threshold_pct"`
	Industry             string  `json:"industry,omitempty"`
}
