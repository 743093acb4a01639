package repository

import (
	"context"

	"pfms/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type CategoryOverrideRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryOverrideRepository(db *pgxpool.Pool, logger *zap.Logger) *CategoryOverrideRepository {
	return &CategoryOverrideRepository{
		db:     db,
		logger: logger.Named("overrides"),
	}
}

func upsertOverrideQuery(o *models.CategoryOverride) squirrel.InsertBuilder {
	return squirrel.Insert("category_overrides").
		Columns("id", "user_id", "vendor", "category", "created_at", "updated_at").
		Values(o.ID, o.UserID, o.Vendor, o.Category, o.CreatedAt, o.UpdatedAt).
		Suffix("ON CONFLICT (user_id, vendor) DO UPDATE SET category = EXCLUDED.category, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)
}

// Upsert keeps at most one override per (user, vendor).
func (r *CategoryOverrideRepository) Upsert(ctx context.Context, o *models.CategoryOverride) error {
	sql, args, err := upsertOverrideQuery(o).ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *CategoryOverrideRepository) ListByUser(ctx context.Context, userID string) ([]*models.CategoryOverride, error) {
	query := squirrel.Select("id", "user_id", "vendor", "category", "created_at", "updated_at").
		From("category_overrides").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("updated_at", "vendor").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []*models.CategoryOverride
	for rows.Next() {
		var o models.CategoryOverride
		if err := rows.Scan(&o.ID, &o.UserID, &o.Vendor, &o.Category, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, &o)
	}

	return overrides, rows.Err()
}
