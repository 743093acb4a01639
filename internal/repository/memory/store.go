// Package memory holds in-process stores with the same semantics as the
// Postgres repositories. Data is lost on restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"

	"github.com/google/uuid"
)

// Store keeps every entity behind one lock. It is safe for concurrent use
// and hands out copies, never its own records.
type Store struct {
	mu           sync.RWMutex
	transactions map[uuid.UUID]*models.Transaction
	goals        map[uuid.UUID]*models.Goal
	overrides    map[overrideKey]*models.CategoryOverride
	users        map[string]*models.User
	now          func() time.Time
}

type overrideKey struct {
	userID string
	vendor string
}

func NewStore() *Store {
	return &Store{
		transactions: make(map[uuid.UUID]*models.Transaction),
		goals:        make(map[uuid.UUID]*models.Goal),
		overrides:    make(map[overrideKey]*models.CategoryOverride),
		users:        make(map[string]*models.User),
		now:          time.Now,
	}
}

func (s *Store) Transactions() *TransactionStore { return &TransactionStore{s} }
func (s *Store) Goals() *GoalStore               { return &GoalStore{s} }
func (s *Store) Overrides() *OverrideStore       { return &OverrideStore{s} }
func (s *Store) Users() *UserStore               { return &UserStore{s} }

type TransactionStore struct{ s *Store }

func (t *TransactionStore) ListActive(ctx context.Context, userID string, limit int) ([]*models.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var result []*models.Transaction
	for _, tx := range t.s.transactions {
		if tx.UserID != userID || tx.SoftDeleted {
			continue
		}
		txCopy := *tx
		result = append(result, &txCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (t *TransactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	return t.CreateBatch(ctx, []*models.Transaction{tx})
}

func (t *TransactionStore) CreateBatch(ctx context.Context, txs []*models.Transaction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	refs := make(map[sourceRefKey]bool)
	for _, tx := range t.s.transactions {
		if tx.SourceRef != "" {
			refs[refKey(tx)] = true
		}
	}
	for _, tx := range txs {
		if _, exists := t.s.transactions[tx.ID]; exists {
			return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
		}
		if tx.SourceRef == "" {
			continue
		}
		if refs[refKey(tx)] {
			return fmt.Errorf("%w: %s reference %s", repository.ErrDuplicate, tx.Source, tx.SourceRef)
		}
		refs[refKey(tx)] = true
	}
	for _, tx := range txs {
		txCopy := *tx
		t.s.transactions[tx.ID] = &txCopy
	}
	return nil
}

type sourceRefKey struct {
	userID string
	source models.TransactionSource
	ref    string
}

func refKey(tx *models.Transaction) sourceRefKey {
	return sourceRefKey{userID: tx.UserID, source: tx.Source, ref: tx.SourceRef}
}

func (t *TransactionStore) KnownSourceRefs(ctx context.Context, userID string, source models.TransactionSource, refs []string) (map[string]bool, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	wanted := make(map[string]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}
	known := make(map[string]bool)
	for _, tx := range t.s.transactions {
		if tx.UserID == userID && tx.Source == source && tx.SourceRef != "" && wanted[tx.SourceRef] {
			known[tx.SourceRef] = true
		}
	}
	return known, nil
}

func (t *TransactionStore) UpdateCategories(ctx context.Context, userID string, updates []models.CategoryUpdate) ([]*models.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	now := t.s.now().UTC()
	var updated []*models.Transaction
	for _, u := range updates {
		tx, ok := t.s.transactions[u.ID]
		if !ok || tx.UserID != userID || tx.SoftDeleted {
			continue
		}
		tx.Category = u.Category
		tx.UpdatedAt = now
		txCopy := *tx
		updated = append(updated, &txCopy)
	}
	return updated, nil
}

func matches(tx *models.Transaction, filter models.TransactionFilter, ids map[uuid.UUID]struct{}) bool {
	if tx.UserID != filter.UserID || tx.SoftDeleted {
		return false
	}
	if filter.Vendor != nil && tx.Vendor != *filter.Vendor {
		return false
	}
	if filter.Category != nil && tx.Category != *filter.Category {
		return false
	}
	if filter.Since != nil && tx.Date.Before(*filter.Since) {
		return false
	}
	if len(ids) > 0 {
		if _, ok := ids[tx.ID]; !ok {
			return false
		}
	}
	return true
}

func (t *TransactionStore) SoftDelete(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	if filter.UserID == "" {
		return 0, fmt.Errorf("soft delete requires a user id")
	}

	ids := make(map[uuid.UUID]struct{}, len(filter.IDs))
	for _, id := range filter.IDs {
		ids[id] = struct{}{}
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	now := t.s.now().UTC()
	var affected int64
	for _, tx := range t.s.transactions {
		if !matches(tx, filter, ids) {
			continue
		}
		tx.SoftDeleted = true
		tx.UpdatedAt = now
		affected++
	}
	return affected, nil
}

type GoalStore struct{ s *Store }

func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (g *GoalStore) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Goal, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	var result []*models.Goal
	for _, goal := range g.s.goals {
		if goal.UserID != userID {
			continue
		}
		goalCopy := *goal
		result = append(result, &goalCopy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

func (g *GoalStore) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Goal, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	goal, ok := g.s.goals[id]
	if !ok || goal.UserID != userID {
		return nil, repository.ErrNotFound
	}
	goalCopy := *goal
	return &goalCopy, nil
}

func (g *GoalStore) GetByName(ctx context.Context, userID, name string) (*models.Goal, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	if goal := g.findByName(userID, name, uuid.Nil); goal != nil {
		goalCopy := *goal
		return &goalCopy, nil
	}
	return nil, repository.ErrNotFound
}

// findByName must be called with the lock held.
func (g *GoalStore) findByName(userID, name string, except uuid.UUID) *models.Goal {
	for _, goal := range g.s.goals {
		if goal.UserID == userID && goal.ID != except && sameName(goal.Name, name) {
			return goal
		}
	}
	return nil
}

func (g *GoalStore) Create(ctx context.Context, goal *models.Goal) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	if _, exists := g.s.goals[goal.ID]; exists {
		return fmt.Errorf("%w: goal %s", repository.ErrDuplicate, goal.ID)
	}
	if g.findByName(goal.UserID, goal.Name, uuid.Nil) != nil {
		return fmt.Errorf("%w: goals_user_name_key", repository.ErrDuplicate)
	}
	goalCopy := *goal
	g.s.goals[goal.ID] = &goalCopy
	return nil
}

func (g *GoalStore) Update(ctx context.Context, userID string, id uuid.UUID, patch models.GoalPatch) (*models.Goal, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	goal, ok := g.s.goals[id]
	if !ok || goal.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if patch.Name != nil && g.findByName(userID, *patch.Name, id) != nil {
		return nil, fmt.Errorf("%w: goals_user_name_key", repository.ErrDuplicate)
	}

	patch.Apply(goal)
	goal.UpdatedAt = g.s.now().UTC()
	goalCopy := *goal
	return &goalCopy, nil
}

func (g *GoalStore) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	goal, ok := g.s.goals[id]
	if !ok || goal.UserID != userID {
		return repository.ErrNotFound
	}
	delete(g.s.goals, id)
	return nil
}

type OverrideStore struct{ s *Store }

func (o *OverrideStore) Upsert(ctx context.Context, override *models.CategoryOverride) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()

	key := overrideKey{userID: override.UserID, vendor: override.Vendor}
	now := o.s.now().UTC()
	if existing, ok := o.s.overrides[key]; ok {
		existing.Category = override.Category
		existing.UpdatedAt = now
		return nil
	}

	overrideCopy := *override
	if overrideCopy.ID == uuid.Nil {
		overrideCopy.ID = uuid.New()
	}
	if overrideCopy.CreatedAt.IsZero() {
		overrideCopy.CreatedAt = now
	}
	overrideCopy.UpdatedAt = now
	o.s.overrides[key] = &overrideCopy
	return nil
}

func (o *OverrideStore) ListByUser(ctx context.Context, userID string) ([]*models.CategoryOverride, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	var result []*models.CategoryOverride
	for key, override := range o.s.overrides {
		if key.userID != userID {
			continue
		}
		overrideCopy := *override
		result = append(result, &overrideCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.Before(result[j].UpdatedAt)
		}
		return result[i].Vendor < result[j].Vendor
	})
	return result, nil
}

type UserStore struct{ s *Store }

func (u *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()

	user, ok := u.s.users[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	userCopy := *user
	userCopy.GoogleToken = append([]byte(nil), user.GoogleToken...)
	return &userCopy, nil
}

func (u *UserStore) SaveGoogleToken(ctx context.Context, userID string, token []byte) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	now := u.s.now().UTC()
	user, ok := u.s.users[userID]
	if !ok {
		user = &models.User{UserID: userID, Tier: models.TierBronze, CreatedAt: now}
		u.s.users[userID] = user
	}
	user.GoogleToken = append([]byte(nil), token...)
	user.UpdatedAt = now
	return nil
}

// PutUser seeds or replaces a user record.
func (u *UserStore) PutUser(user *models.User) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	userCopy := *user
	u.s.users[user.UserID] = &userCopy
}
