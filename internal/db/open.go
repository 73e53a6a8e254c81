package db

import (
	"context"
	"fmt"

	"ranked-tracker/internal/config"
	"ranked-tracker/internal/sheet"
)

// OpenStore opens the row store selected by cfg.StoreBackend
func OpenStore(ctx context.Context, cfg *config.Config) (sheet.Store, error) {
	var (
		store sheet.Store
		err   error
	)

	switch cfg.StoreBackend {
	case config.BackendXLSX, "":
		store, err = sheet.OpenWorkbook(cfg.WorkbookPath)
	case config.BackendPostgres:
		store, err = New(ctx, cfg.DatabaseURL)
	case config.BackendTurso:
		if cfg.TursoURL == "" {
			return nil, fmt.Errorf("TURSO_DATABASE_URL is required for the turso backend")
		}
		store, err = OpenTurso(ctx, cfg.TursoURL, cfg.TursoToken)
	case config.BackendSQLite:
		store, err = OpenSQLite(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	return store, nil
}
