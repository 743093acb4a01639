package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewGoal carries the fields of a goal to create.
type NewGoal struct {
	Name     string
	Type     models.GoalType
	Target   float64
	Current  float64
	Deadline *time.Time
}

type GoalService struct {
	goals  GoalStore
	limit  int
	now    func() time.Time
	logger *zap.Logger
}

func NewGoalService(goals GoalStore, limit int, logger *zap.Logger) *GoalService {
	return &GoalService{
		goals:  goals,
		limit:  limit,
		now:    time.Now,
		logger: logger.Named("goals"),
	}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]*models.Goal, error) {
	goals, err := s.goals.ListByUser(ctx, userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

// Create stores a new in-progress goal. Names are unique per user,
// compared case-insensitively.
func (s *GoalService) Create(ctx context.Context, userID string, in NewGoal) (*models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: goal name is required", ErrValidation)
	case !in.Type.Valid():
		return nil, fmt.Errorf("%w: goal type must be savings or budget", ErrValidation)
	case in.Target <= 0:
		return nil, fmt.Errorf("%w: goal target must be positive", ErrValidation)
	case in.Current < 0:
		return nil, fmt.Errorf("%w: goal current must not be negative", ErrValidation)
	}

	if err := s.ensureNameFree(ctx, userID, name, uuid.Nil); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	goal := &models.Goal{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Type:      in.Type,
		Target:    in.Target,
		Current:   in.Current,
		Status:    models.GoalInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Deadline != nil {
		d := models.Day(*in.Deadline)
		goal.Deadline = &d
	}

	if err := s.goals.Create(ctx, goal); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateGoal
		}
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	s.logger.Info("Goal created",
		zap.String("user_id", userID),
		zap.String("goal_id", goal.ID.String()),
		zap.String("name", goal.Name),
	)
	return goal, nil
}

// Update applies a partial patch to one of the user's goals.
func (s *GoalService) Update(ctx context.Context, userID string, id uuid.UUID, patch models.GoalPatch) (*models.Goal, error) {
	if patch.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
		if err := s.ensureNameFree(ctx, userID, name, id); err != nil {
			return nil, err
		}
	}

	goal, err := s.goals.Update(ctx, userID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateGoal
		}
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}
	return goal, nil
}

func (s *GoalService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.goals.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	s.logger.Info("Goal deleted", zap.String("user_id", userID), zap.String("goal_id", id.String()))
	return nil
}

// Resolve finds one goal by id, or by name when id is nil. The id wins
// when both are given.
func (s *GoalService) Resolve(ctx context.Context, userID string, id uuid.UUID, name string) (*models.Goal, error) {
	if id != uuid.Nil {
		return s.goals.GetByID(ctx, userID, id)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: goal id or name is required", ErrValidation)
	}
	return s.goals.GetByName(ctx, userID, name)
}

func (s *GoalService) ensureNameFree(ctx context.Context, userID, name string, self uuid.UUID) error {
	if name == "" {
		return fmt.Errorf("%w: goal name is required", ErrValidation)
	}
	existing, err := s.goals.GetByName(ctx, userID, name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to look up goal: %w", err)
	case existing.ID != self:
		return ErrDuplicateGoal
	}
	return nil
}

func validatePatch(p models.GoalPatch) error {
	if p.Type != nil && !p.Type.Valid() {
		return fmt.Errorf("%w: goal type must be savings or budget", ErrValidation)
	}
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: unknown goal status %q", ErrValidation, *p.Status)
	}
	if p.Target != nil && *p.Target <= 0 {
		return fmt.Errorf("%w: goal target must be positive", ErrValidation)
	}
	if p.Current != nil && *p.Current < 0 {
		return fmt.Errorf("%w: goal current must not be negative", ErrValidation)
	}
	return nil
}
