package screener

import (
	"context"
	"fmt"
	"strings"

	"discount-screener/models"
	"discount-screener/observability"
	"discount-screener/services"
)

// StockStore is the slice of the repository the symbol collector writes to.
type StockStore interface {
	UpsertStock(ctx context.Context, stock *models.Stock) error
}

// SymbolCollector populates the stock master from index constituent lists.
// Each index is processed independently: one unreachable index page does not
// abort the rest of the run.
type SymbolCollector struct {
	source services.IndexSourceInterface
	store  StockStore
}

// NewSymbolCollector creates a new SymbolCollector
func NewSymbolCollector(source services.IndexSourceInterface, store StockStore) *SymbolCollector {
	return &SymbolCollector{source: source, store: store}
}

// Run fetches the constituents of every index and upserts them into the
// stock master. The report carries one item per index plus one per symbol
// whose write failed.
func (c *SymbolCollector) Run(ctx context.Context, indexes []string) *models.RunReport {
	report := models.NewRunReport("collect_symbols")
	metrics := observability.GetMetrics()
	timer := metrics.NewTimer()

	seen := make(map[string]bool)

	for _, indexPath := range indexes {
		constituents, err := c.source.GetConstituents(ctx, indexPath)
		if err != nil {
			observability.Error("failed to fetch index constituents",
				"index", indexPath, "error", err)
			metrics.RecordPipelineItem("collect", "failed")
			report.AddFailure(indexPath, err)
			continue
		}

		stored := 0
		for _, constituent := range constituents {
			symbol := NormalizeSymbol(constituent.Symbol)
			if symbol == "" || seen[symbol] {
				continue
			}
			seen[symbol] = true

			stock := constituent.Stock()
			stock.Symbol = symbol
			if err := c.store.UpsertStock(ctx, &stock); err != nil {
				observability.WithSymbol(symbol).Error("failed to upsert stock", "error", err)
				metrics.RecordPipelineItem("collect", "failed")
				report.AddFailure(symbol, err)
				continue
			}
			stored++
		}

		metrics.RecordPipelineItem("collect", "succeeded")
		report.AddSuccess(indexPath, fmt.Sprintf("%d constituents stored", stored))
	}

	status := "success"
	if report.Failed > 0 {
		status = "partial"
	}
	metrics.RecordPipelineRun("collect", status, timer.Duration())
	observability.Info("symbol collection finished",
		"indexes", len(indexes),
		"symbols", len(seen),
		"failed", report.Failed)

	return report.Finish()
}

// NormalizeSymbol canonicalizes an exchange symbol: uppercase, trimmed, and
// without a trailing market suffix.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, ".NS")
	s = strings.TrimSuffix(s, ".BO")
	return s
}
