package screener

import (
	"context"
	"fmt"
	"time"

	"discount-screener/models"
	"discount-screener/observability"
	"discount-screener/services"
)

// SnapshotStore is the slice of the repository the snapshot generator uses.
type SnapshotStore interface {
	GetReferenceRows(ctx context.Context) ([]models.ReferenceRow, error)
	InsertSnapshot(ctx context.Context, snap *models.ValuationSnapshot) error
	RefreshDiscountedView(ctx context.Context) error
}

// SnapshotGenerator writes one dated, immutable valuation snapshot per
// symbol that carries a baseline. Quotes are gathered for the whole run
// before any row is written so every symbol in an industry sees the same
// industry average.
type SnapshotGenerator struct {
	market services.MarketDataInterface
	store  SnapshotStore
}

// NewSnapshotGenerator creates a new SnapshotGenerator
func NewSnapshotGenerator(market services.MarketDataInterface, store SnapshotStore) *SnapshotGenerator {
	return &SnapshotGenerator{market: market, store: store}
}

// Run generates snapshots dated snapshotDate for every symbol with a usable
// baseline, then refreshes the discounted view. Symbols with no current
// price or P/E are skipped; a refresh failure aborts with an error since the
// view would otherwise serve rows from the previous run as latest.
func (g *SnapshotGenerator) Run(ctx context.Context, snapshotDate time.Time) (*models.RunReport, error) {
	report := models.NewRunReport("generate_snapshots")
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()
	log := observability.WithStage("snapshots")

	refs, err := g.store.GetReferenceRows(ctx)
	if err != nil {
		metrics.RecordPipelineRun("snapshots", "error", timer.Duration())
		return nil, fmt.Errorf("failed to load reference rows: %w", err)
	}

	snapshotDate = snapshotDate.UTC().Truncate(24 * time.Hour)

	// First pass: gather quotes so industry averages cover the full run
	quotes := make(map[string]*models.Quote, len(refs))
	currentPEs := make(map[string]float64, len(refs))
	industryOf := make(map[string]string, len(refs))

	for _, ref := range refs {
		quote, err := g.market.GetQuote(ctx, ref.Symbol)
		if err != nil {
			log.Error("failed to fetch quote", "symbol", ref.Symbol, "error", err)
			metrics.RecordPipelineItem("snapshots", "failed")
			report.AddFailure(ref.Symbol, err)
			continue
		}
		if !quote.HasPE() {
			log.Warn("skipping symbol without current P/E", "symbol", ref.Symbol)
			metrics.RecordPipelineItem("snapshots", "skipped")
			report.AddSkip(ref.Symbol, "no current P/E available")
			continue
		}
		quotes[ref.Symbol] = quote
		currentPEs[ref.Symbol] = quote.TrailingPE
		industryOf[ref.Symbol] = ref.Industry
	}

	industryAvg := IndustryAveragePE(currentPEs, industryOf)

	// Second pass: build and write the rows
	for _, ref := range refs {
		quote, ok := quotes[ref.Symbol]
		if !ok {
			continue
		}

		snap := models.NewValuationSnapshot(ref.Symbol, snapshotDate, quote.Price, quote.TrailingPE)
		snap.DiscountVs5yAvg = DiscountPct(ref.Avg5yPE, quote.TrailingPE)
		snap.IsDiscounted = IsDiscounted(snap.DiscountVs5yAvg, ref.DiscountThresholdPct)

		if avg, ok := industryAvg[ref.Industry]; ok && ref.Industry != "" {
			d := DiscountPct(avg, quote.TrailingPE)
			snap.DiscountVsIndustry = &d
		}

		if err := g.store.InsertSnapshot(ctx, snap); err != nil {
			log.Error("failed to insert snapshot", "symbol", ref.Symbol, "error", err)
			metrics.RecordPipelineItem("snapshots", "failed")
			report.AddFailure(ref.Symbol, err)
			continue
		}

		metrics.RecordPipelineItem("snapshots", "succeeded")
		report.AddSuccess(ref.Symbol, "")
	}

	if err := g.store.RefreshDiscountedView(ctx); err != nil {
		metrics.RecordPipelineRun("snapshots", "error", timer.Duration())
		return report.Finish(), fmt.Errorf("failed to refresh discounted view: %w", err)
	}

	status := "success"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.RecordPipelineRun("snapshots", status, timer.Duration())
	log.Info("snapshot generation finished",
		"date", snapshotDate.Format("2006-01-02"),
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report.Finish(), nil
}
