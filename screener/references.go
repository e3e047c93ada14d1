package screener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discount-screener/models"
	"discount-screener/observability"
	"discount-screener/services"
)

// ReferenceStore is the slice of the repository the reference builder uses.
type ReferenceStore interface {
	GetAllSymbols(ctx context.Context) ([]string, error)
	UpsertReference(ctx context.Context, ref *models.ValuationReference) error
}

// ReferenceBuilder computes the trailing 5-year average P/E baseline for
// every known symbol and upserts one ValuationReference row per symbol.
type ReferenceBuilder struct {
	market       services.MarketDataInterface
	store        ReferenceStore
	thresholdPct float64
	minPeriods   int
}

// NewReferenceBuilder creates a new ReferenceBuilder. thresholdPct is stored
// on each reference row and later drives snapshot classification; minPeriods
// is the fewest monthly closes accepted before a symbol is skipped for lack
// of history.
func NewReferenceBuilder(market services.MarketDataInterface, store ReferenceStore, thresholdPct float64, minPeriods int) *ReferenceBuilder {
	return &ReferenceBuilder{
		market:       market,
		store:        store,
		thresholdPct: thresholdPct,
		minPeriods:   minPeriods,
	}
}

// Run rebuilds the valuation baseline for every symbol in the stock master.
// Symbols without a trailing P/E or with too little history are skipped with
// a reason; fetch and write failures are reported per symbol.
func (b *ReferenceBuilder) Run(ctx context.Context) (*models.RunReport, error) {
	report := models.NewRunReport("build_references")
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	log := observability.WithStage("references")

	symbols, err := b.store.GetAllSymbols(ctx)
	if err != nil {
		metrics.RecordPipelineRun("references", "error", timer.Duration())
		return nil, fmt.Errorf("failed to list symbols: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	for _, symbol := range symbols {
		if err := b.buildOne(ctx, symbol, today); err != nil {
			var gap *DataGapError
			if errors.As(err, &gap) {
				log.Warn("skipping symbol with insufficient history",
					"symbol", symbol,
					"valid_periods", gap.ValidPeriods,
					"min_periods", gap.MinPeriods)
				metrics.RecordPipelineItem("references", "skipped")
				report.AddSkip(symbol, err.Error())
				continue
			}
			if errors.Is(err, errNoTrailingPE) {
				log.Warn("skipping symbol without trailing P/E", "symbol", symbol)
				metrics.RecordPipelineItem("references", "skipped")
				report.AddSkip(symbol, "no trailing P/E available")
				continue
			}
			log.Error("failed to build reference", "symbol", symbol, "error", err)
			metrics.RecordPipelineItem("references", "failed")
			report.AddFailure(symbol, err)
			continue
		}
		metrics.RecordPipelineItem("references", "succeeded")
		report.AddSuccess(symbol, "")
	}

	status := "success"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.RecordPipelineRun("references", status, timer.Duration())
	log.Info("reference build finished",
		"symbols", len(symbols),
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report.Finish(), nil
}

var errNoTrailingPE = errors.New("no trailing P/E")

// buildOne computes and stores the baseline for a single symbol
func (b *ReferenceBuilder) buildOne(ctx context.Context, symbol string, today time.Time) error {
	quote, err := b.market.GetQuote(ctx, symbol)
	if err != nil {
		return err
	}
	if !quote.HasPE() {
		return errNoTrailingPE
	}

	history, err := b.market.GetPriceHistory(ctx, symbol)
	if err != nil {
		return err
	}

	// EPS implied by the current quote, held constant across the window
	price, _ := quote.Price.Float64()
	eps := price / quote.TrailingPE

	avgPE, err := Avg5yPE(symbol, history, eps, b.minPeriods)
	if err != nil {
		return err
	}

	return b.store.UpsertReference(ctx, &models.ValuationReference{
		Symbol:               symbol,
		Avg5yPE:              avgPE,
		DiscountThresholdPct: b.thresholdPct,
		LastUpdated:          today,
	})
}
