package service

import (
	"context"
	"testing"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   NewGoal
	}{
		{"blank name", NewGoal{Name: "  ", Type: models.GoalSavings, Target: 10}},
		{"bad type", NewGoal{Name: "Car", Type: "dream", Target: 10}},
		{"zero target", NewGoal{Name: "Car", Type: models.GoalSavings}},
		{"negative current", NewGoal{Name: "Car", Type: models.GoalSavings, Target: 10, Current: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.goals.Create(context.Background(), testUser, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestGoalCreateNormalises(t *testing.T) {
	f := newFixture(t)
	deadline := time.Date(2025, time.June, 1, 18, 30, 0, 0, time.UTC)

	goal, err := f.goals.Create(context.Background(), testUser, NewGoal{
		Name:     "  Vacation ",
		Type:     models.GoalBudget,
		Target:   20000,
		Deadline: &deadline,
	})
	require.NoError(t, err)

	assert.Equal(t, "Vacation", goal.Name)
	assert.Equal(t, models.GoalInProgress, goal.Status)
	assert.Equal(t, testNow, goal.CreatedAt)
	require.NotNil(t, goal.Deadline)
	assert.Equal(t, models.Day(deadline), *goal.Deadline)

	_, err = f.goals.Create(context.Background(), testUser, NewGoal{Name: "VACATION", Type: models.GoalSavings, Target: 1})
	assert.ErrorIs(t, err, ErrDuplicateGoal)

	// Another user may reuse the name.
	_, err = f.goals.Create(context.Background(), "user-2", NewGoal{Name: "Vacation", Type: models.GoalSavings, Target: 1})
	assert.NoError(t, err)
}

func TestGoalUpdate(t *testing.T) {
	f := newFixture(t)
	car, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Car", Type: models.GoalSavings, Target: 100})
	require.NoError(t, err)
	_, err = f.goals.Create(context.Background(), testUser, NewGoal{Name: "House", Type: models.GoalSavings, Target: 1000})
	require.NoError(t, err)

	_, err = f.goals.Update(context.Background(), testUser, car.ID, models.GoalPatch{})
	assert.ErrorIs(t, err, ErrValidation)

	bad := models.GoalStatus("paused")
	_, err = f.goals.Update(context.Background(), testUser, car.ID, models.GoalPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	taken := "house"
	_, err = f.goals.Update(context.Background(), testUser, car.ID, models.GoalPatch{Name: &taken})
	assert.ErrorIs(t, err, ErrDuplicateGoal)

	// Renaming to its own name in another case is allowed.
	same := "CAR"
	current := 40.0
	updated, err := f.goals.Update(context.Background(), testUser, car.ID, models.GoalPatch{Name: &same, Current: &current})
	require.NoError(t, err)
	assert.Equal(t, "CAR", updated.Name)
	assert.Equal(t, 40.0, updated.Current)
}

func TestGoalDeleteAndResolve(t *testing.T) {
	f := newFixture(t)
	goal, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Car", Type: models.GoalSavings, Target: 100})
	require.NoError(t, err)

	found, err := f.goals.Resolve(context.Background(), testUser, goal.ID, "ignored")
	require.NoError(t, err)
	assert.Equal(t, goal.ID, found.ID)

	found, err = f.goals.Resolve(context.Background(), testUser, uuid.Nil, "car")
	require.NoError(t, err)
	assert.Equal(t, goal.ID, found.ID)

	require.NoError(t, f.goals.Delete(context.Background(), testUser, goal.ID))
	assert.ErrorIs(t, f.goals.Delete(context.Background(), testUser, goal.ID), repository.ErrNotFound)
	assert.Empty(t, f.goalList(t))
}
