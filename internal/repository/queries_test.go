package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"pfms/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2024, time.March, 31, 12, 0, 0, 0, time.UTC)

func TestActiveTransactionsQuery(t *testing.T) {
	sql, args, err := activeTransactionsQuery("user-1", 25).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM transactions WHERE soft_deleted = $1 AND user_id = $2")
	assert.Contains(t, sql, "ORDER BY date DESC, created_at DESC LIMIT 25")
	assert.Equal(t, []interface{}{false, "user-1"}, args)

	sql, _, err = activeTransactionsQuery("user-1", 0).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "LIMIT")
}

func TestSourceRefsQuery(t *testing.T) {
	sql, args, err := sourceRefsQuery("user-1", models.SourceGmail, []string{"m-1", "m-2"}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT source_ref FROM transactions WHERE source = $1 AND source_ref IN ($2,$3) AND user_id = $4", sql)
	assert.Equal(t, []interface{}{"gmail", "m-1", "m-2", "user-1"}, args)
}

func TestSoftDeleteQuery(t *testing.T) {
	vendor := "Netflix"
	since := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	sql, args, err := softDeleteQuery(models.TransactionFilter{
		UserID: "user-1",
		Vendor: &vendor,
		IDs:    ids,
		Since:  &since,
	}, queryNow).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE transactions SET soft_deleted = $1, updated_at = $2 WHERE ")
	for _, clause := range []string{"soft_deleted = $3", "user_id = $4", "vendor = $5", "id IN ($6,$7)", "date >= $8"} {
		assert.Contains(t, sql, clause)
	}
	assert.Equal(t, []interface{}{true, queryNow, false, "user-1", "Netflix", ids[0], ids[1], since}, args)
}

func TestSoftDeleteQueryUserOnly(t *testing.T) {
	sql, args, err := softDeleteQuery(models.TransactionFilter{UserID: "user-1"}, queryNow).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "user_id = $4")
	assert.NotContains(t, sql, "vendor")
	assert.NotContains(t, sql, "date >=")
	assert.Len(t, args, 4)
}

func TestUpdateCategoryQuery(t *testing.T) {
	id := uuid.New()
	sql, args, err := updateCategoryQuery("user-1", models.CategoryUpdate{ID: id, Category: "Food"}, queryNow).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE transactions SET category = $1, updated_at = $2 WHERE id = $3 AND soft_deleted = $4 AND user_id = $5")
	assert.Contains(t, sql, "RETURNING id, user_id, vendor")
	require.Len(t, args, 5)
	assert.Equal(t, "Food", args[0])
	assert.Equal(t, id.String(), fmt.Sprint(args[2]))
	assert.Equal(t, []interface{}{false, "user-1"}, args[3:])
}

func TestGoalPatchQuery(t *testing.T) {
	id := uuid.New()
	name := "Car"
	status := models.GoalCompleted

	sql, args, err := goalPatchQuery("user-1", id, models.GoalPatch{Name: &name, Status: &status}, queryNow).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "UPDATE goals SET updated_at = $1, name = $2, status = $3 WHERE id = $4 AND user_id = $5")
	require.Len(t, args, 5)
	assert.Equal(t, []interface{}{queryNow, "Car", string(models.GoalCompleted)}, args[:3])
	assert.Equal(t, id.String(), fmt.Sprint(args[3]))
	assert.Equal(t, "user-1", args[4])
}

func TestUpsertOverrideQuery(t *testing.T) {
	sql, args, err := upsertOverrideQuery(&models.CategoryOverride{
		ID:        uuid.New(),
		UserID:    "user-1",
		Vendor:    "Uber",
		Category:  "Transport",
		CreatedAt: queryNow,
		UpdatedAt: queryNow,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO category_overrides")
	assert.Contains(t, sql, "ON CONFLICT (user_id, vendor) DO UPDATE SET category = EXCLUDED.category")
	assert.Len(t, args, 6)
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)

	dup := mapError(&pgconn.PgError{Code: "23505", ConstraintName: "goals_user_name_key"})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.Contains(t, dup.Error(), "goals_user_name_key")

	other := errors.New("connection reset")
	assert.Equal(t, other, mapError(other))
}
