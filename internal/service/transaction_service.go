package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pfms/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewTransaction carries a manually entered transaction.
type NewTransaction struct {
	Vendor        string
	Category      string
	Amount        decimal.Decimal
	Currency      string
	Date          time.Time
	Kind          models.TransactionKind
	PaymentMethod string
	IsRecurring   bool
	IsUnused      bool
}

type TransactionService struct {
	transactions TransactionStore
	overrides    OverrideStore
	limit        int
	now          func() time.Time
	logger       *zap.Logger
}

func NewTransactionService(transactions TransactionStore, overrides OverrideStore, limit int, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		overrides:    overrides,
		limit:        limit,
		now:          time.Now,
		logger:       logger.Named("transactions"),
	}
}

func (s *TransactionService) List(ctx context.Context, userID string) ([]*models.Transaction, error) {
	txs, err := s.transactions.ListActive(ctx, userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

func (s *TransactionService) Create(ctx context.Context, userID string, in NewTransaction) (*models.Transaction, error) {
	vendor := strings.TrimSpace(in.Vendor)
	switch {
	case vendor == "":
		return nil, fmt.Errorf("%w: vendor is required", ErrValidation)
	case in.Amount.IsNegative():
		return nil, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	case in.Date.IsZero():
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}

	kind := in.Kind
	if kind == "" {
		kind = models.KindExpense
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: type must be income or expense", ErrValidation)
	}

	tx := s.newTransaction(userID, models.SourceManual)
	tx.Vendor = cleanText(vendor)
	tx.Amount = in.Amount.Round(2)
	tx.Date = models.Day(in.Date)
	tx.Kind = kind
	tx.PaymentMethod = in.PaymentMethod
	tx.IsRecurring = in.IsRecurring
	tx.IsUnused = in.IsUnused
	if in.Currency != "" {
		tx.Currency = strings.ToUpper(in.Currency)
	}

	// An explicit category wins over the vendor's override.
	if category := strings.TrimSpace(in.Category); category != "" {
		tx.Category = category
	} else if err := s.ApplyOverrides(ctx, userID, []*models.Transaction{tx}); err != nil {
		return nil, err
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

func (s *TransactionService) newTransaction(userID string, source models.TransactionSource) *models.Transaction {
	now := s.now().UTC()
	return &models.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Category:  models.CategoryMisc,
		Currency:  models.DefaultCurrency,
		Kind:      models.KindExpense,
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Categorize recategorises the user's transactions by id and pins each
// touched vendor to its new category. Unknown or deleted ids are skipped.
func (s *TransactionService) Categorize(ctx context.Context, userID string, updates []models.CategoryUpdate) ([]*models.Transaction, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: updates are required", ErrValidation)
	}
	for i, u := range updates {
		if u.ID == uuid.Nil {
			return nil, fmt.Errorf("%w: update %d has no id", ErrValidation, i)
		}
		updates[i].Category = strings.TrimSpace(u.Category)
		if updates[i].Category == "" {
			return nil, fmt.Errorf("%w: update %d has no category", ErrValidation, i)
		}
	}

	updated, err := s.transactions.UpdateCategories(ctx, userID, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update categories: %w", err)
	}

	now := s.now().UTC()
	for _, tx := range updated {
		override := &models.CategoryOverride{
			ID:        uuid.New(),
			UserID:    userID,
			Vendor:    tx.Vendor,
			Category:  tx.Category,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.overrides.Upsert(ctx, override); err != nil {
			return nil, fmt.Errorf("failed to save category override: %w", err)
		}
	}

	s.logger.Info("Transactions recategorised",
		zap.String("user_id", userID),
		zap.Int("requested", len(updates)),
		zap.Int("updated", len(updated)),
	)
	return updated, nil
}

// ApplyOverrides replaces the category of every transaction whose vendor,
// compared case-insensitively, has an override.
func (s *TransactionService) ApplyOverrides(ctx context.Context, userID string, txs []*models.Transaction) error {
	overrides, err := s.overrides.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load category overrides: %w", err)
	}
	if len(overrides) == 0 {
		return nil
	}

	byVendor := make(map[string]string, len(overrides))
	for _, o := range overrides {
		byVendor[strings.ToLower(strings.TrimSpace(o.Vendor))] = o.Category
	}
	for _, tx := range txs {
		if category, ok := byVendor[strings.ToLower(strings.TrimSpace(tx.Vendor))]; ok {
			tx.Category = category
		}
	}
	return nil
}
