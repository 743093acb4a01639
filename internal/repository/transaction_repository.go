package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"pfms/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var transactionColumns = []string{
	"id", "user_id", "vendor", "category", "amount", "currency", "date", "kind",
	"payment_method", "source", "source_ref", "is_recurring", "is_unused", "raw_text", "soft_deleted",
	"created_at", "updated_at",
}

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger.Named("transactions"),
	}
}

func transactionValues(tx *models.Transaction) []interface{} {
	return []interface{}{
		tx.ID, tx.UserID, tx.Vendor, tx.Category, tx.Amount, tx.Currency, tx.Date, string(tx.Kind),
		tx.PaymentMethod, string(tx.Source), tx.SourceRef, tx.IsRecurring, tx.IsUnused, tx.RawText, tx.SoftDeleted,
		tx.CreatedAt, tx.UpdatedAt,
	}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	var kind, source string
	if err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Vendor, &tx.Category, &tx.Amount, &tx.Currency, &tx.Date, &kind,
		&tx.PaymentMethod, &source, &tx.SourceRef, &tx.IsRecurring, &tx.IsUnused, &tx.RawText, &tx.SoftDeleted,
		&tx.CreatedAt, &tx.UpdatedAt,
	); err != nil {
		return nil, err
	}
	tx.Kind = models.TransactionKind(kind)
	tx.Source = models.TransactionSource(source)
	return &tx, nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.CreateBatch(ctx, []*models.Transaction{tx})
}

func (r *TransactionRepository) CreateBatch(ctx context.Context, transactions []*models.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}

	builder := squirrel.Insert("transactions").
		Columns(transactionColumns...).
		PlaceholderFormat(squirrel.Dollar)

	for _, tx := range transactions {
		builder = builder.Values(transactionValues(tx)...)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return mapError(err)
}

func activeTransactionsQuery(userID string, limit int) squirrel.SelectBuilder {
	query := squirrel.Select(transactionColumns...).
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "soft_deleted": false}).
		OrderBy("date DESC", "created_at DESC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return query
}

// ListActive returns the user's non-deleted transactions, newest first.
// A non-positive limit means no limit.
func (r *TransactionRepository) ListActive(ctx context.Context, userID string, limit int) ([]*models.Transaction, error) {
	sql, args, err := activeTransactionsQuery(userID, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}

	return transactions, rows.Err()
}

func sourceRefsQuery(userID string, source models.TransactionSource, refs []string) squirrel.SelectBuilder {
	return squirrel.Select("source_ref").
		From("transactions").
		Where(squirrel.Eq{"user_id": userID, "source": string(source), "source_ref": refs}).
		PlaceholderFormat(squirrel.Dollar)
}

// KnownSourceRefs reports which of refs are already stored for the user and
// source. Deleted rows count, so a removed import stays removed.
func (r *TransactionRepository) KnownSourceRefs(ctx context.Context, userID string, source models.TransactionSource, refs []string) (map[string]bool, error) {
	known := make(map[string]bool)
	if len(refs) == 0 {
		return known, nil
	}

	sql, args, err := sourceRefsQuery(userID, source, refs).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, err
		}
		known[ref] = true
	}
	return known, rows.Err()
}

func softDeleteQuery(filter models.TransactionFilter, now time.Time) squirrel.UpdateBuilder {
	query := squirrel.Update("transactions").
		Set("soft_deleted", true).
		Set("updated_at", now).
		Where(squirrel.Eq{"user_id": filter.UserID, "soft_deleted": false}).
		PlaceholderFormat(squirrel.Dollar)

	if filter.Vendor != nil {
		query = query.Where(squirrel.Eq{"vendor": *filter.Vendor})
	}
	if filter.Category != nil {
		query = query.Where(squirrel.Eq{"category": *filter.Category})
	}
	if len(filter.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"date": *filter.Since})
	}
	return query
}

// SoftDelete flags every matching transaction as deleted in one statement
// and reports how many rows changed.
func (r *TransactionRepository) SoftDelete(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	if filter.UserID == "" {
		return 0, errors.New("soft delete requires a user id")
	}

	sql, args, err := softDeleteQuery(filter, time.Now().UTC()).ToSql()
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}

	r.logger.Info("Transactions soft-deleted",
		zap.String("user_id", filter.UserID),
		zap.Int64("rows", tag.RowsAffected()),
	)
	return tag.RowsAffected(), nil
}

func updateCategoryQuery(userID string, update models.CategoryUpdate, now time.Time) squirrel.UpdateBuilder {
	return squirrel.Update("transactions").
		Set("category", update.Category).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": update.ID, "user_id": userID, "soft_deleted": false}).
		Suffix("RETURNING " + strings.Join(transactionColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)
}

// UpdateCategories applies a bulk recategorisation in a single round trip.
// Ids that do not belong to the user (or are deleted) are skipped; the
// updated rows are returned.
func (r *TransactionRepository) UpdateCategories(ctx context.Context, userID string, updates []models.CategoryUpdate) ([]*models.Transaction, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for _, update := range updates {
		sql, args, err := updateCategoryQuery(userID, update, now).ToSql()
		if err != nil {
			return nil, err
		}
		batch.Queue(sql, args...)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	var updated []*models.Transaction
	for range updates {
		tx, err := scanTransaction(results.QueryRow())
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return updated, err
		}
		updated = append(updated, tx)
	}

	return updated, nil
}
