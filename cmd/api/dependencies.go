package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mbertrand/budget-tracker/internal/domain/category"
	"github.com/mbertrand/budget-tracker/internal/domain/importer"
	"github.com/mbertrand/budget-tracker/pkg/config"
	"github.com/mbertrand/budget-tracker/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// Repositories
	CategoryRepo category.Repository
	LedgerRepo   importer.LedgerRepository

	// Services
	ImportService *importer.Service
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}
	deps.DB = database

	deps.CategoryRepo = category.NewPostgresRepository(database.Pool)
	deps.LedgerRepo = importer.NewPostgresLedgerRepository(database.Pool)

	deps.ImportService = importer.NewService(deps.LedgerRepo, deps.CategoryRepo, logger).
		WithWorkers(cfg.Import.Workers)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Close releases all held resources
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
