package category

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Description marker for categories created implicitly during an import.
const importedDescription = "Créée automatiquement lors de l'import"

// How long to wait before re-reading after losing a create race to a
// concurrent import. Covers replica lag on the follow-up read.
const conflictBackoff = 50 * time.Millisecond

// Resolver maps free-text category names to persistent ids, creating
// missing categories on first use. One Resolver serves exactly one import
// run; its cache is discarded with it.
//
// Resolve is safe for concurrent use. The cache mutex covers the whole
// check-then-create sequence, so two rows of the same import can never
// both decide to create the same category. Races with other imports are
// caught by the store's unique constraint and recovered via re-query.
type Resolver struct {
	repo    Repository
	ownerID *uuid.UUID
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]uuid.UUID
}

// NewResolver creates a resolver scoped to one import run. A nil ownerID
// resolves against the global expense categories; a non-nil ownerID
// resolves against that user's revenue categories.
func NewResolver(repo Repository, ownerID *uuid.UUID, logger *slog.Logger) *Resolver {
	return &Resolver{
		repo:    repo,
		ownerID: ownerID,
		logger:  logger,
		cache:   make(map[string]uuid.UUID),
	}
}

// Prime bulk-loads the existing categories for the resolver's scope so
// the common case never touches the database per row.
func (r *Resolver) Prime(ctx context.Context) error {
	categories, err := r.repo.ListByScope(ctx, r.ownerID)
	if err != nil {
		return fmt.Errorf("failed to prime category cache: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range categories {
		r.cache[Normalize(c.Name)] = c.ID
	}
	return nil
}

// Resolve returns the id for a category name, creating the category when
// it does not exist yet.
func (r *Resolver) Resolve(ctx context.Context, name string) (uuid.UUID, error) {
	key := Normalize(name)
	if key == "" {
		return uuid.Nil, fmt.Errorf("empty category name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	existing, err := r.repo.FindByName(ctx, key, r.ownerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to look up category %q: %w", name, err)
	}
	if existing != nil {
		r.cache[key] = existing.ID
		return existing.ID, nil
	}

	description := importedDescription
	created := &Category{
		Name:        strings.TrimSpace(name),
		Description: &description,
		OwnerID:     r.ownerID,
	}

	err = r.repo.Create(ctx, created)
	if err == nil {
		r.cache[key] = created.ID
		return created.ID, nil
	}
	if !IsDuplicateName(err) {
		return uuid.Nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	// A concurrent import created it between our lookup and insert. The
	// row already exists, so re-read and use that id.
	r.logger.Warn("category created concurrently, re-reading",
		slog.String("category", name))

	select {
	case <-time.After(conflictBackoff):
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}

	existing, err = r.repo.FindByName(ctx, key, r.ownerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to re-read category %q after conflict: %w", name, err)
	}
	if existing == nil {
		return uuid.Nil, fmt.Errorf("category %q missing after duplicate-name conflict", name)
	}

	r.cache[key] = existing.ID
	return existing.ID, nil
}
