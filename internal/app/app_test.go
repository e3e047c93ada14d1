package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"discount-screener/config"
	"discount-screener/models"
)

type fakeRepo struct {
	healthErr  error
	stocks     []models.Stock
	snapshots  []models.ValuationSnapshot
	discounted []models.ValuationSnapshot
	closed     bool
}

func (f *fakeRepo) Close() { f.closed = true }

func (f *fakeRepo) Health(ctx context.Context) error { return f.healthErr }
func (f *fakeRepo) GetStocks(ctx context.Context) ([]models.Stock, error) {
	return f.stocks, nil
}
func (f *fakeRepo) GetSnapshots(ctx context.Context, symbol string, limit int) ([]models.ValuationSnapshot, error) {
	return f.snapshots, nil
}
func (f *fakeRepo) GetDiscountedLatest(ctx context.Context) ([]models.ValuationSnapshot, error) {
	return f.discounted, nil
}

type fakeCollector struct {
	gotIndexes []string
	report     *models.RunReport
}

func (f *fakeCollector) Run(ctx context.Context, indexes []string) *models.RunReport {
	f.gotIndexes = indexes
	return f.report
}

type fakeBuilder struct {
	report *models.RunReport
	err    error
}

func (f *fakeBuilder) Run(ctx context.Context) (*models.RunReport, error) {
	return f.report, f.err
}

type fakeGenerator struct {
	report *models.RunReport
	err    error
}

func (f *fakeGenerator) Run(ctx context.Context, snapshotDate time.Time) (*models.RunReport, error) {
	return f.report, f.err
}

func reportWithItems(operation string, n int) *models.RunReport {
	report := models.NewRunReport(operation)
	for i := 0; i < n; i++ {
		report.AddSuccess("item", "")
	}
	return report.Finish()
}

func TestApp_CollectSymbols_DefaultsToConfiguredIndexes(t *testing.T) {
	cfg := config.NewTestConfig()
	collector := &fakeCollector{report: reportWithItems("collect_symbols", 1)}
	a := New(cfg, &fakeRepo{}, collector, nil, nil)

	a.CollectSymbols(context.Background(), nil)

	if len(collector.gotIndexes) != len(cfg.IndexSource.Indexes) {
		t.Errorf("expected configured indexes to be used, got %v", collector.gotIndexes)
	}

	a.CollectSymbols(context.Background(), []string{"/indices/nifty-50"})
	if len(collector.gotIndexes) != 1 {
		t.Errorf("expected explicit indexes to win, got %v", collector.gotIndexes)
	}
}

func TestApp_BuildReferences_EmptyMasterIsErrNoStocks(t *testing.T) {
	a := New(config.NewTestConfig(), &fakeRepo{}, nil,
		&fakeBuilder{report: reportWithItems("build_references", 0)}, nil)

	_, err := a.BuildReferences(context.Background())
	if !errors.Is(err, ErrNoStocks) {
		t.Errorf("expected ErrNoStocks, got %v", err)
	}
}

func TestApp_BuildReferences(t *testing.T) {
	a := New(config.NewTestConfig(), &fakeRepo{}, nil,
		&fakeBuilder{report: reportWithItems("build_references", 3)}, nil)

	report, err := a.BuildReferences(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded != 3 {
		t.Errorf("expected 3 successes, got %d", report.Succeeded)
	}
}

func TestApp_GenerateSnapshots_NoReferences(t *testing.T) {
	a := New(config.NewTestConfig(), &fakeRepo{}, nil, nil,
		&fakeGenerator{report: reportWithItems("generate_snapshots", 0)})

	_, err := a.GenerateSnapshots(context.Background())
	if !errors.Is(err, ErrNoReferences) {
		t.Errorf("expected ErrNoReferences, got %v", err)
	}
}

func TestApp_GenerateSnapshots_GeneratorErrorPassesThrough(t *testing.T) {
	sentinel := errors.New("refresh failed")
	a := New(config.NewTestConfig(), &fakeRepo{}, nil, nil,
		&fakeGenerator{report: reportWithItems("generate_snapshots", 1), err: sentinel})

	_, err := a.GenerateSnapshots(context.Background())
	if !errors.Is(err, sentinel) {
		t.Errorf("expected generator error, got %v", err)
	}
}

func TestApp_Shutdown_ClosesRepo(t *testing.T) {
	repo := &fakeRepo{}
	a := New(config.NewTestConfig(), repo, nil, nil, nil)

	a.Shutdown(context.Background())
	if !repo.closed {
		t.Error("expected repository to be closed on shutdown")
	}
}
