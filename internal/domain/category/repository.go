package category

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository needs. It is satisfied
// by *pgxpool.Pool and by pgxmock pools in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new category repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListByScope fetches all categories in a scope
func (r *PostgresRepository) ListByScope(ctx context.Context, ownerID *uuid.UUID) ([]Category, error) {
	query := `
		SELECT id, name, description, owner_id, created_at
		FROM categories
		WHERE owner_id IS NOT DISTINCT FROM $1
		ORDER BY lower(name)
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// FindByName looks up a category by name, case-insensitively
func (r *PostgresRepository) FindByName(ctx context.Context, name string, ownerID *uuid.UUID) (*Category, error) {
	query := `
		SELECT id, name, description, owner_id, created_at
		FROM categories
		WHERE lower(name) = lower($1) AND owner_id IS NOT DISTINCT FROM $2
	`

	var c Category
	err := r.db.QueryRow(ctx, query, name, ownerID).Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.OwnerID,
		&c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return &c, nil
}

// Create inserts a new category
func (r *PostgresRepository) Create(ctx context.Context, category *Category) error {
	query := `
		INSERT INTO categories (id, name, description, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}

	err := r.db.QueryRow(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.OwnerID,
	).Scan(&category.CreatedAt)
	if err != nil {
		return err
	}
	return nil
}

// IsDuplicateName reports whether err is a unique-constraint violation on
// the category name.
func IsDuplicateName(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
