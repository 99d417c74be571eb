// Command importctl runs a CSV import from a local file and prints the
// resulting report as JSON. Useful for loading bank exports without
// going through the web frontend.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mbertrand/budget-tracker/internal/domain/category"
	"github.com/mbertrand/budget-tracker/internal/domain/importer"
	"github.com/mbertrand/budget-tracker/pkg/config"
	"github.com/mbertrand/budget-tracker/pkg/db"
)

func main() {
	var (
		file    = flag.String("file", "", "CSV file to import")
		kind    = flag.String("kind", "expense", "record kind: expense or revenue")
		dialect = flag.String("dialect", "generic", "csv dialect: bank (;) or generic (,)")
		owner   = flag.String("owner", "", "owner user id (uuid)")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall import timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(logger, *file, *kind, *dialect, *owner, *timeout); err != nil {
		logger.Error("import failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger, file, kind, dialect, owner string, timeout time.Duration) error {
	if file == "" {
		return fmt.Errorf("-file is required")
	}

	ownerID, err := uuid.Parse(owner)
	if err != nil {
		return fmt.Errorf("invalid -owner: %w", err)
	}

	recordKind := importer.RecordKind(kind)
	if recordKind != importer.KindExpense && recordKind != importer.KindRevenue {
		return fmt.Errorf("invalid -kind %q", kind)
	}

	csvDialect := importer.Dialect(dialect)
	if csvDialect != importer.DialectBank && csvDialect != importer.DialectGeneric {
		return fmt.Errorf("invalid -dialect %q", dialect)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	service := importer.NewService(
		importer.NewPostgresLedgerRepository(database.Pool),
		category.NewPostgresRepository(database.Pool),
		logger,
	).WithWorkers(cfg.Import.Workers)

	report, err := service.Import(ctx, importer.ImportRequest{
		OwnerID: ownerID,
		Kind:    recordKind,
		Dialect: csvDialect,
		Data:    data,
	})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
