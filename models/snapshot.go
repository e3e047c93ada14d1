package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationSnapshot is one immutable, dated valuation record for a symbol.
// A new run date produces new rows; existing rows are never updated.
type ValuationSnapshot struct {
	ID                 uuid.UUID       `json:"id"`
	Symbol             string          `json:"symbol"`
	SnapshotDate       time.Time       `json:"snapshot_date"`
	CurrentPrice       decimal.Decimal `json:"current_price"`
	CurrentPE          float64         `json:"current_pe"`
	DiscountVs5yAvg    float64         `json:"discount_vs_5y_avg"`
	DiscountVsIndustry *float64        `json:"discount_vs_industry,omitempty"`
	IsDiscounted       bool            `json:"is_discounted"`
	CreatedAt          time.Time       `json:"created_at"`
}

// NewValuationSnapshot creates a snapshot row with a fresh surrogate id for
// the given run date.
func NewValuationSnapshot(symbol string, snapshotDate time.Time, price decimal.Decimal, pe float64) *ValuationSnapshot {
	return &ValuationSnapshot{
		ID:           uuid.New(),
		Symbol:       symbol,
		SnapshotDate: snapshotDate,
		CurrentPrice: price,
		CurrentPE:    pe,
		CreatedAt:    time.Now(),
	}
}
