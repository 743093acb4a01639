package service

import (
	"context"

	"pfms/internal/models"

	"github.com/google/uuid"
)

// TransactionStore is the transaction persistence the services depend on.
// Implemented by repository.TransactionRepository and memory.Store.
type TransactionStore interface {
	// ListActive returns non-deleted transactions for the user, newest first.
	ListActive(ctx context.Context, userID string, limit int) ([]*models.Transaction, error)

	Create(ctx context.Context, tx *models.Transaction) error
	CreateBatch(ctx context.Context, txs []*models.Transaction) error

	// UpdateCategories recategorises by id, skipping ids the user does not own.
	UpdateCategories(ctx context.Context, userID string, updates []models.CategoryUpdate) ([]*models.Transaction, error)

	// SoftDelete flags every non-deleted transaction matching filter.
	SoftDelete(ctx context.Context, filter models.TransactionFilter) (int64, error)

	// KnownSourceRefs returns the subset of refs already imported from
	// source, deleted rows included.
	KnownSourceRefs(ctx context.Context, userID string, source models.TransactionSource, refs []string) (map[string]bool, error)
}

type GoalStore interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.Goal, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Goal, error)
	GetByName(ctx context.Context, userID, name string) (*models.Goal, error)
	Create(ctx context.Context, g *models.Goal) error
	Update(ctx context.Context, userID string, id uuid.UUID, patch models.GoalPatch) (*models.Goal, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type OverrideStore interface {
	// Upsert keys on (user, vendor) exactly as given.
	Upsert(ctx context.Context, o *models.CategoryOverride) error
	// ListByUser orders by last update, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*models.CategoryOverride, error)
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
	SaveGoogleToken(ctx context.Context, userID string, token []byte) error
}
