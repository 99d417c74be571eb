package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// BulkItemError reports one record rejected inside an otherwise
// successful bulk write.
type BulkItemError struct {
	Index int
	Err   error
}

// LedgerRepository persists decoded records.
type LedgerRepository interface {
	// BulkInsert writes the records and returns the number written plus
	// per-item errors for records the store rejected individually. A
	// non-nil error means the write phase broke off; records before the
	// failure point may already be persisted.
	BulkInsert(ctx context.Context, ownerID uuid.UUID, kind RecordKind, records []*DecodedRow) (int, []BulkItemError, error)
}

// ExecDB is the subset of pgxpool.Pool the ledger repository needs.
type ExecDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresLedgerRepository implements LedgerRepository using PostgreSQL
type PostgresLedgerRepository struct {
	db ExecDB
}

// NewPostgresLedgerRepository creates a new ledger repository
func NewPostgresLedgerRepository(db ExecDB) *PostgresLedgerRepository {
	return &PostgresLedgerRepository{db: db}
}

const insertExpenseQuery = `
	INSERT INTO expenses (owner_id, category_id, amount_cents, spent_at, description, account_type, fixed_charge)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

const insertRevenueQuery = `
	INSERT INTO revenues (owner_id, category_id, amount_cents, received_at, description, account_type, recurring)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// BulkInsert writes one INSERT per record. Each statement runs in its
// own implicit transaction, so a record the server rejects leaves the
// others untouched. A pgx.Batch would not give that: SendBatch pipelines
// every statement inside a single implicit transaction, and the first
// rejected INSERT aborts it, rolling back the whole batch at Sync.
func (r *PostgresLedgerRepository) BulkInsert(ctx context.Context, ownerID uuid.UUID, kind RecordKind, records []*DecodedRow) (int, []BulkItemError, error) {
	inserted := 0
	var itemErrors []BulkItemError

	for i, record := range records {
		var err error
		switch kind {
		case KindRevenue:
			_, err = r.db.Exec(ctx, insertRevenueQuery,
				ownerID,
				record.CategoryID,
				record.AmountCents,
				record.Date,
				record.Description,
				string(record.AccountType),
				record.Recurring,
			)
		default:
			_, err = r.db.Exec(ctx, insertExpenseQuery,
				ownerID,
				record.CategoryID,
				record.AmountCents,
				record.Date,
				record.Description,
				string(record.AccountType),
				record.FixedCharge,
			)
		}
		if err == nil {
			inserted++
			continue
		}
		// A PgError means the server processed and rejected this one
		// statement; anything else means we lost the store mid-write.
		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) {
			return inserted, itemErrors, fmt.Errorf("bulk insert failed at record %d: %w", i, err)
		}
		itemErrors = append(itemErrors, BulkItemError{Index: i, Err: err})
	}

	return inserted, itemErrors, nil
}
