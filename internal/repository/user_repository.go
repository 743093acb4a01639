package repository

import (
	"context"
	"time"

	"pfms/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("users"),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query := squirrel.Select("user_id", "email", "name", "total_points", "tier", "google_token", "created_at", "updated_at").
		From("users").
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var user models.User
	var tier string
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&user.UserID, &user.Email, &user.Name, &user.TotalPoints, &tier, &user.GoogleToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	user.Tier = models.Tier(tier)

	return &user, nil
}

// SaveGoogleToken stores the token JSON, creating the user row when absent.
func (r *UserRepository) SaveGoogleToken(ctx context.Context, userID string, token []byte) error {
	now := time.Now().UTC()
	query := squirrel.Insert("users").
		Columns("user_id", "google_token", "created_at", "updated_at").
		Values(userID, string(token), now, now).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET google_token = EXCLUDED.google_token, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}
