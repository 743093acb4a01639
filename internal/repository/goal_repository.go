package repository

import (
	"context"
	"strings"
	"time"

	"pfms/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var goalColumns = []string{
	"id", "user_id", "name", "type", "target", "current", "deadline", "status", "created_at", "updated_at",
}

type GoalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGoalRepository(db *pgxpool.Pool, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{
		db:     db,
		logger: logger.Named("goals"),
	}
}

func scanGoal(row pgx.Row) (*models.Goal, error) {
	var g models.Goal
	var goalType, status string
	if err := row.Scan(
		&g.ID, &g.UserID, &g.Name, &goalType, &g.Target, &g.Current, &g.Deadline, &status, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.Type = models.GoalType(goalType)
	g.Status = models.GoalStatus(status)
	return &g, nil
}

func (r *GoalRepository) Create(ctx context.Context, g *models.Goal) error {
	query := squirrel.Insert("goals").
		Columns(goalColumns...).
		Values(g.ID, g.UserID, g.Name, string(g.Type), g.Target, g.Current, g.Deadline, string(g.Status), g.CreatedAt, g.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return mapError(err)
}

func (r *GoalRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.Goal, error) {
	query := squirrel.Select(goalColumns...).
		From("goals").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)
	if limit > 0 {
		query = query.Limit(uint64(limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []*models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}

func (r *GoalRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*models.Goal, error) {
	return r.getOne(ctx, squirrel.Eq{"user_id": userID, "id": id})
}

// GetByName matches the name case-insensitively; names are unique per user.
func (r *GoalRepository) GetByName(ctx context.Context, userID, name string) (*models.Goal, error) {
	return r.getOne(ctx, squirrel.And{
		squirrel.Eq{"user_id": userID},
		squirrel.Expr("lower(name) = ?", strings.ToLower(strings.TrimSpace(name))),
	})
}

func (r *GoalRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.Goal, error) {
	query := squirrel.Select(goalColumns...).
		From("goals").
		Where(where).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	g, err := scanGoal(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

func goalPatchQuery(userID string, id uuid.UUID, patch models.GoalPatch, now time.Time) squirrel.UpdateBuilder {
	query := squirrel.Update("goals").
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		Suffix("RETURNING " + strings.Join(goalColumns, ", ")).
		PlaceholderFormat(squirrel.Dollar)

	if patch.Name != nil {
		query = query.Set("name", *patch.Name)
	}
	if patch.Type != nil {
		query = query.Set("type", string(*patch.Type))
	}
	if patch.Target != nil {
		query = query.Set("target", *patch.Target)
	}
	if patch.Current != nil {
		query = query.Set("current", *patch.Current)
	}
	if patch.Status != nil {
		query = query.Set("status", string(*patch.Status))
	}
	if patch.Deadline != nil {
		query = query.Set("deadline", models.Day(*patch.Deadline))
	}
	return query
}

// Update applies patch to one goal and returns the stored result.
func (r *GoalRepository) Update(ctx context.Context, userID string, id uuid.UUID, patch models.GoalPatch) (*models.Goal, error) {
	sql, args, err := goalPatchQuery(userID, id, patch, time.Now().UTC()).ToSql()
	if err != nil {
		return nil, err
	}

	g, err := scanGoal(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return g, nil
}

func (r *GoalRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	query := squirrel.Delete("goals").
		Where(squirrel.Eq{"id": id, "user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
