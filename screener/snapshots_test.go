package screener

import (
	"context"
	"testing"
	"time"

	"discount-screener/models"
	"discount-screener/services"
)

type fakeSnapshotStore struct {
	refs       []models.ReferenceRow
	inserted   []models.ValuationSnapshot
	refreshed  int
	insertErrs map[string]error
	refreshErr error
}

func newFakeSnapshotStore(refs ...models.ReferenceRow) *fakeSnapshotStore {
	return &fakeSnapshotStore{refs: refs, insertErrs: make(map[string]error)}
}

func (f *fakeSnapshotStore) GetReferenceRows(ctx context.Context) ([]models.ReferenceRow, error) {
	return f.refs, nil
}

func (f *fakeSnapshotStore) InsertSnapshot(ctx context.Context, snap *models.ValuationSnapshot) error {
	if err := f.insertErrs[snap.Symbol]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, *snap)
	return nil
}

func (f *fakeSnapshotStore) RefreshDiscountedView(ctx context.Context) error {
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.refreshed++
	return nil
}

func (f *fakeSnapshotStore) find(symbol string) *models.ValuationSnapshot {
	for i := range f.inserted {
		if f.inserted[i].Symbol == symbol {
			return &f.inserted[i]
		}
	}
	return nil
}

func TestSnapshotGenerator_Run(t *testing.T) {
	market := newFakeMarketData()
	market.quotes["CHEAP"] = quoteFor("CHEAP", 120, 12)
	market.quotes["FAIR"] = quoteFor("FAIR", 300, 15)

	store := newFakeSnapshotStore(
		models.ReferenceRow{Symbol: "CHEAP", Avg5yPE: 20, DiscountThresholdPct: 30, Industry: "Banking"},
		models.ReferenceRow{Symbol: "FAIR", Avg5yPE: 20, DiscountThresholdPct: 30, Industry: "Banking"},
	)
	generator := NewSnapshotGenerator(market, store)

	report, err := generator.Run(context.Background(), time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("expected 2 successes, got %d: %+v", report.Succeeded, report.Items)
	}
	if store.refreshed != 1 {
		t.Errorf("expected the view to be refreshed once, got %d", store.refreshed)
	}

	cheap := store.find("CHEAP")
	if cheap == nil {
		t.Fatal("expected a snapshot for CHEAP")
	}
	if cheap.DiscountVs5yAvg != 40.00 {
		t.Errorf("DiscountVs5yAvg = %v, want 40.00", cheap.DiscountVs5yAvg)
	}
	if !cheap.IsDiscounted {
		t.Error("expected CHEAP to be classified discounted")
	}
	// Banking average P/E is (12+15)/2 = 13.5, so CHEAP trades at a discount
	// of (13.5-12)/13.5*100 = 11.11
	if cheap.DiscountVsIndustry == nil {
		t.Fatal("expected an industry discount for CHEAP")
	}
	if *cheap.DiscountVsIndustry != 11.11 {
		t.Errorf("DiscountVsIndustry = %v, want 11.11", *cheap.DiscountVsIndustry)
	}
	if !cheap.SnapshotDate.Equal(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected snapshot date truncated to midnight UTC, got %v", cheap.SnapshotDate)
	}

	fair := store.find("FAIR")
	if fair == nil {
		t.Fatal("expected a snapshot for FAIR")
	}
	if fair.DiscountVs5yAvg != 25.00 {
		t.Errorf("DiscountVs5yAvg = %v, want 25.00", fair.DiscountVs5yAvg)
	}
	if fair.IsDiscounted {
		t.Error("expected FAIR below the threshold to not be discounted")
	}
}

func TestSnapshotGenerator_Run_BoundaryIsDiscounted(t *testing.T) {
	market := newFakeMarketData()
	// Avg 20, current 14 gives exactly the 30 percent threshold
	market.quotes["EDGE"] = quoteFor("EDGE", 140, 14)

	store := newFakeSnapshotStore(
		models.ReferenceRow{Symbol: "EDGE", Avg5yPE: 20, DiscountThresholdPct: 30, Industry: "IT"},
	)
	generator := NewSnapshotGenerator(market, store)

	if _, err := generator.Run(context.Background(), time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	edge := store.find("EDGE")
	if edge == nil {
		t.Fatal("expected a snapshot for EDGE")
	}
	if edge.DiscountVs5yAvg != 30.00 {
		t.Errorf("DiscountVs5yAvg = %v, want 30.00", edge.DiscountVs5yAvg)
	}
	if !edge.IsDiscounted {
		t.Error("expected the boundary case to be classified discounted")
	}
}

func TestSnapshotGenerator_Run_SkipsMissingQuote(t *testing.T) {
	market := newFakeMarketData()
	market.quotes["OK"] = quoteFor("OK", 100, 10)
	market.quotes["NOPE"] = quoteFor("NOPE", 50, 0)
	market.quoteErrs["GONE"] = &services.FetchError{Source: "market-data", Item: "GONE"}

	store := newFakeSnapshotStore(
		models.ReferenceRow{Symbol: "OK", Avg5yPE: 20, DiscountThresholdPct: 30},
		models.ReferenceRow{Symbol: "NOPE", Avg5yPE: 20, DiscountThresholdPct: 30},
		models.ReferenceRow{Symbol: "GONE", Avg5yPE: 20, DiscountThresholdPct: 30},
	)
	generator := NewSnapshotGenerator(market, store)

	report, err := generator.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded != 1 || report.Skipped != 1 || report.Failed != 1 {
		t.Errorf("expected 1/1/1, got %d/%d/%d", report.Succeeded, report.Skipped, report.Failed)
	}
	if len(store.inserted) != 1 {
		t.Errorf("expected exactly 1 snapshot, got %d", len(store.inserted))
	}
	// OK has no recorded industry, so the industry discount stays null
	ok := store.find("OK")
	if ok == nil {
		t.Fatal("expected a snapshot for OK")
	}
	if ok.DiscountVsIndustry != nil {
		t.Error("expected no industry discount without an industry")
	}
}

func TestSnapshotGenerator_Run_SameDateProducesNewRows(t *testing.T) {
	market := newFakeMarketData()
	market.quotes["DUP"] = quoteFor("DUP", 100, 10)

	store := newFakeSnapshotStore(
		models.ReferenceRow{Symbol: "DUP", Avg5yPE: 20, DiscountThresholdPct: 30},
	)
	generator := NewSnapshotGenerator(market, store)

	date := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	if _, err := generator.Run(context.Background(), date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := generator.Run(context.Background(), date); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.inserted) != 2 {
		t.Fatalf("expected 2 rows after two runs, got %d", len(store.inserted))
	}
	if store.inserted[0].ID == store.inserted[1].ID {
		t.Error("expected each run to mint a fresh row id")
	}
}

func TestSnapshotGenerator_Run_RefreshFailureIsFatal(t *testing.T) {
	market := newFakeMarketData()
	market.quotes["ANY"] = quoteFor("ANY", 100, 10)

	store := newFakeSnapshotStore(
		models.ReferenceRow{Symbol: "ANY", Avg5yPE: 20, DiscountThresholdPct: 30},
	)
	store.refreshErr = context.DeadlineExceeded
	generator := NewSnapshotGenerator(market, store)

	if _, err := generator.Run(context.Background(), time.Now()); err == nil {
		t.Error("expected an error when the view refresh fails")
	}
}
