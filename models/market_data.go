package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one close price observation from the market data source.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Quote is the current market snapshot for a symbol. TrailingPE is zero when
// the source has no P/E for the symbol (loss-making or unreported earnings).
type Quote struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	TrailingPE float64         `json:"trailing_pe"`
}

// HasPE reports whether the quote carries a usable trailing P/E.
func (q Quote) HasPE() bool {
	return q.TrailingPE > 0
}
