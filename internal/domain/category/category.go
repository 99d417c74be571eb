// Package category provides budget category persistence and the
// get-or-create resolution used by CSV imports.
package category

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category represents a budget category. Expense categories are shared by
// both partners (OwnerID is nil); revenue categories belong to one user.
type Category struct {
	ID          uuid.UUID
	Name        string
	Description *string
	OwnerID     *uuid.UUID
	CreatedAt   time.Time
}

// Repository defines persistence operations for categories
type Repository interface {
	// ListByScope fetches every category visible in a scope. A nil ownerID
	// selects the global (expense) scope.
	ListByScope(ctx context.Context, ownerID *uuid.UUID) ([]Category, error)
	// FindByName looks a category up case-insensitively. Returns nil when
	// no category matches.
	FindByName(ctx context.Context, name string, ownerID *uuid.UUID) (*Category, error)
	// Create inserts a new category and fills in its ID. Unique-constraint
	// violations are returned unchanged for the caller to classify.
	Create(ctx context.Context, category *Category) error
}

// Normalize produces the cache key for a category name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
