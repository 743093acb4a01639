package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reasonInsufficientDetail = "insufficient detail"

// ActionDispatcher applies a parsed ChatAction against the stores. Only
// (remove, transactions), (add_goal, goal) and (update_goal, goal) are
// supported; any other pair is a no-op.
type ActionDispatcher struct {
	transactions TransactionStore
	goals        *GoalService
	now          func() time.Time
	logger       *zap.Logger
}

func NewActionDispatcher(transactions TransactionStore, goals *GoalService, logger *zap.Logger) *ActionDispatcher {
	return &ActionDispatcher{
		transactions: transactions,
		goals:        goals,
		now:          time.Now,
		logger:       logger.Named("dispatcher"),
	}
}

// Apply never returns an error: store failures come back as StatusFailed
// with a reason, and finding nothing to change is StatusNoop.
func (d *ActionDispatcher) Apply(ctx context.Context, userID string, action *ChatAction) ActionResult {
	if action == nil {
		return noop("no action")
	}

	var result ActionResult
	switch {
	case action.Kind == ActionRemove && action.Remove == nil,
		action.Kind == ActionAddGoal && action.AddGoal == nil,
		action.Kind == ActionUpdateGoal && action.UpdateGoal == nil:
		result = noop(reasonInsufficientDetail)
	case action.Kind == ActionRemove && action.Target == TargetTransactions:
		result = d.remove(ctx, userID, action.Remove)
	case action.Kind == ActionAddGoal && action.Target == TargetGoal:
		result = d.addGoal(ctx, userID, action.AddGoal)
	case action.Kind == ActionUpdateGoal && action.Target == TargetGoal:
		result = d.updateGoal(ctx, userID, action.UpdateGoal)
	default:
		result = noop(fmt.Sprintf("unsupported action %q on %q", action.Kind, action.Target))
	}

	d.logger.Info("Action dispatched",
		zap.String("user_id", userID),
		zap.String("action", string(action.Kind)),
		zap.String("status", string(result.Status)),
		zap.Int64("affected", result.Affected),
	)
	return result
}

func failed(err error) ActionResult {
	return ActionResult{
		Status: StatusFailed,
		Reason: fmt.Errorf("%w: %v", ErrActionApply, err).Error(),
	}
}

// removeFilter narrows a soft delete. An empty payload never reaches the
// store; RangeAll is the only way to ask for every transaction.
func (d *ActionDispatcher) removeFilter(userID string, details *RemoveDetails) models.TransactionFilter {
	filter := models.TransactionFilter{
		UserID: userID,
		IDs:    details.ids,
	}
	if details.Vendor != "" {
		vendor := details.Vendor
		filter.Vendor = &vendor
	}
	if details.Category != "" {
		category := details.Category
		filter.Category = &category
	}
	if days := details.DateRange.Days(); days > 0 {
		since := models.Day(d.now().UTC()).AddDate(0, 0, -days)
		filter.Since = &since
	}
	return filter
}

func (d *ActionDispatcher) remove(ctx context.Context, userID string, details *RemoveDetails) ActionResult {
	if details.Empty() {
		return noop(reasonInsufficientDetail)
	}

	affected, err := d.transactions.SoftDelete(ctx, d.removeFilter(userID, details))
	if err != nil {
		d.logger.Error("Failed to remove transactions", zap.String("user_id", userID), zap.Error(err))
		return failed(err)
	}
	if affected == 0 {
		return noop("no matching transactions")
	}
	return ActionResult{Status: StatusApplied, Affected: affected}
}

func (d *ActionDispatcher) addGoal(ctx context.Context, userID string, details *AddGoalDetails) ActionResult {
	if details.Name == "" || details.Type == "" || details.Target == 0 {
		return noop("goal name, type and target are required")
	}

	deadline, _ := parseDeadline(details.Deadline)
	_, err := d.goals.Create(ctx, userID, NewGoal{
		Name:     details.Name,
		Type:     details.Type,
		Target:   details.Target,
		Deadline: deadline,
	})
	switch {
	case errors.Is(err, ErrDuplicateGoal):
		return noop(ErrDuplicateGoal.Error())
	case errors.Is(err, ErrValidation):
		return ActionResult{Status: StatusInvalid, Reason: err.Error()}
	case err != nil:
		return failed(err)
	}
	return ActionResult{Status: StatusApplied, Affected: 1}
}

func (d *ActionDispatcher) updateGoal(ctx context.Context, userID string, details *UpdateGoalDetails) ActionResult {
	patch := details.Fields.Patch()
	if patch.Empty() {
		return noop("no goal fields to update")
	}
	if details.goalID == uuid.Nil && details.Name == "" {
		return noop(reasonInsufficientDetail)
	}

	goal, err := d.goals.Resolve(ctx, userID, details.goalID, details.Name)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return noop("goal not found")
	case err != nil:
		return failed(err)
	}

	_, err = d.goals.Update(ctx, userID, goal.ID, patch)
	switch {
	case errors.Is(err, ErrValidation):
		return ActionResult{Status: StatusInvalid, Reason: err.Error()}
	case errors.Is(err, repository.ErrNotFound):
		return noop("goal not found")
	case err != nil:
		return failed(err)
	}
	return ActionResult{Status: StatusApplied, Affected: 1}
}
