package app

import (
	"context"
	"errors"
	"time"

	"discount-screener/config"
	"discount-screener/models"
)

// ErrNoStocks is returned when a pipeline stage runs before any symbols
// have been collected.
var ErrNoStocks = errors.New("no stocks collected yet")

// ErrNoReferences is returned when snapshot generation runs before any
// valuation references have been built.
var ErrNoReferences = errors.New("no valuation references built yet")

// RepositoryInterface defines the repository operations needed by App
type RepositoryInterface interface {
	Close()
	Health(ctx context.Context) error
	GetStocks(ctx context.Context) ([]models.Stock, error)
	GetSnapshots(ctx context.Context, symbol string, limit int) ([]models.ValuationSnapshot, error)
	GetDiscountedLatest(ctx context.Context) ([]models.ValuationSnapshot, error)
}

// SymbolCollectorInterface runs the index constituent collection stage
type SymbolCollectorInterface interface {
	Run(ctx context.Context, indexes []string) *models.RunReport
}

// ReferenceBuilderInterface runs the valuation baseline stage
type ReferenceBuilderInterface interface {
	Run(ctx context.Context) (*models.RunReport, error)
}

// SnapshotGeneratorInterface runs the dated snapshot stage
type SnapshotGeneratorInterface interface {
	Run(ctx context.Context, snapshotDate time.Time) (*models.RunReport, error)
}

// App struct holds application dependencies using interfaces for testability
type App struct {
	cfg       *config.Config
	repo      RepositoryInterface
	collector SymbolCollectorInterface
	builder   ReferenceBuilderInterface
	generator SnapshotGeneratorInterface
}

// New creates a new App application struct
func New(cfg *config.Config, repo RepositoryInterface, collector SymbolCollectorInterface, builder ReferenceBuilderInterface, generator SnapshotGeneratorInterface) *App {
	return &App{
		cfg:       cfg,
		repo:      repo,
		collector: collector,
		builder:   builder,
		generator: generator,
	}
}

// Shutdown releases application resources
func (a *App) Shutdown(ctx context.Context) {
	if a.repo != nil {
		a.repo.Close()
	}
}

// Repo returns the repository interface for API handlers
func (a *App) Repo() RepositoryInterface {
	return a.repo
}

// CollectSymbols refreshes the stock master from index constituent lists.
// When indexes is empty the configured index set is used.
func (a *App) CollectSymbols(ctx context.Context, indexes []string) *models.RunReport {
	if len(indexes) == 0 {
		indexes = a.cfg.IndexSource.Indexes
	}
	return a.collector.Run(ctx, indexes)
}

// BuildReferences recomputes the 5-year average P/E baseline for every
// collected symbol. Returns ErrNoStocks when the stock master is empty.
func (a *App) BuildReferences(ctx context.Context) (*models.RunReport, error) {
	report, err := a.builder.Run(ctx)
	if err != nil {
		return nil, err
	}
	if report.Total() == 0 {
		return report, ErrNoStocks
	}
	return report, nil
}

// GenerateSnapshots writes today's valuation snapshots and refreshes the
// discounted view. Returns ErrNoReferences when no baselines exist yet.
func (a *App) GenerateSnapshots(ctx context.Context) (*models.RunReport, error) {
	report, err := a.generator.Run(ctx, time.Now().UTC())
	if err != nil {
		return report, err
	}
	if report.Total() == 0 {
		return report, ErrNoReferences
	}
	return report, nil
}

// GetDiscounted returns the discounted rows of the latest snapshot run
func (a *App) GetDiscounted(ctx context.Context) ([]models.ValuationSnapshot, error) {
	return a.repo.GetDiscountedLatest(ctx)
}

// GetStocks returns the current stock master
func (a *App) GetStocks(ctx context.Context) ([]models.Stock, error) {
	return a.repo.GetStocks(ctx)
}

// GetSnapshots returns the snapshot history for one symbol
func (a *App) GetSnapshots(ctx context.Context, symbol string, limit int) ([]models.ValuationSnapshot, error) {
	return a.repo.GetSnapshots(ctx, symbol, limit)
}
