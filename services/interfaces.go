package services

import (
	"context"

	"discount-screener/models"
)

// IndexSourceInterface lists the constituents of a stock index.
type IndexSourceInterface interface {
	GetConstituents(ctx context.Context, indexPath string) ([]models.IndexConstituent, error)
}

// MarketDataInterface provides current quotes and historical prices.
type MarketDataInterface interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetPriceHistory(ctx context.Context, symbol string) ([]models.PricePoint, error)
}
