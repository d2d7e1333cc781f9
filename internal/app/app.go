package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/laboro/internal/agency"
	"github.com/ternarybob/laboro/internal/classifier"
	"github.com/ternarybob/laboro/internal/common"
	"github.com/ternarybob/laboro/internal/fetchers"
	"github.com/ternarybob/laboro/internal/pipeline"
	"github.com/ternarybob/laboro/internal/storage"
	"github.com/ternarybob/laboro/internal/taxonomy"
)

// App wires config, stores, lookup tables and the pipeline into one unit.
// Both binaries build the same App; they differ only in how they invoke Run.
type App struct {
	Config       *common.Config
	Logger       arbor.ILogger
	Store        *storage.Manager
	Orchestrator *pipeline.Orchestrator
}

// New builds the application from loaded configuration
func New(ctx context.Context, config *common.Config, logger arbor.ILogger) (*App, error) {
	store, err := storage.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	tablesDir := config.Tables.Dir

	agencyTables, err := agency.LoadTables(tablesDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	detector := agency.NewDetector(agencyTables, logger)

	taxTables, duplicates, err := taxonomy.LoadTables(tablesDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	for _, d := range duplicates {
		logger.Warn().
			Str("skill", d.Name).
			Str("kept_family", d.KeptFamily).
			Str("dropped_family", d.DroppedFamily).
			Msg("Duplicate skill mapping, last entry wins")
	}

	suppression, err := taxonomy.LoadSuppression(tablesDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	mapper := taxonomy.NewMapper(taxTables, suppression, logger)

	gateway, err := classifier.BuildGateway(ctx, config, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	employers, err := fetchers.LoadEmployers(tablesDir)
	if err != nil {
		store.Close()
		return nil, err
	}
	if meta := employers.Metadata(); len(meta) > 0 {
		if err := store.EmployerStorage().Seed(meta); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed employer metadata: %w", err)
		}
		logger.Debug().Int("employers", len(meta)).Msg("Employer metadata seeded")
	}

	// filters are optional; sources run unfiltered when the file is absent
	var filters *fetchers.FilterTable
	if _, statErr := os.Stat(filepath.Join(tablesDir, "filters.toml")); statErr == nil {
		filters, err = fetchers.LoadFilters(tablesDir, logger)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	fetcherSet := fetchers.NewFetchers(config, logger)
	if len(fetcherSet) == 0 {
		store.Close()
		return nil, fmt.Errorf("no sources enabled")
	}

	orch := pipeline.NewOrchestrator(
		config, fetcherSet, filters, employers, store,
		detector, gateway, mapper, logger,
	)

	return &App{
		Config:       config,
		Logger:       logger,
		Store:        store,
		Orchestrator: orch,
	}, nil
}

// Close releases the stores
func (a *App) Close() error {
	return a.Store.Close()
}
