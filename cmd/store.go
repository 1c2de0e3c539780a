package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tapline/visitplanner/internal/dedup"
	"github.com/tapline/visitplanner/internal/store"
)

// openStore opens and migrates the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite", "":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store: database URL is required for postgres (VISITPLAN_STORE_DATABASE_URL)")
		}
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// dedupConfig maps the loaded configuration onto the engine thresholds,
// falling back to the engine defaults for unset values.
func dedupConfig() dedup.Config {
	dc := dedup.DefaultConfig()
	if cfg == nil {
		return dc
	}
	if cfg.Dedup.NameGate > 0 {
		dc.NameGate = cfg.Dedup.NameGate
	}
	if cfg.Dedup.AutoMergeScore > 0 {
		dc.AutoMergeScore = cfg.Dedup.AutoMergeScore
	}
	if cfg.Dedup.AutoMergeNameSim > 0 {
		dc.AutoMergeNameSim = cfg.Dedup.AutoMergeNameSim
	}
	if cfg.Dedup.ReviewScore > 0 {
		dc.ReviewScore = cfg.Dedup.ReviewScore
	}
	if cfg.Dedup.ReviewNameSimFloor > 0 {
		dc.ReviewNameSimFloor = cfg.Dedup.ReviewNameSimFloor
	}
	return dc
}
