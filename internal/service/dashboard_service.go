package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const TrendDays = 7

// Dashboard aggregates a user's non-deleted transactions.
type Dashboard struct {
	Income            decimal.Decimal
	Expenses          decimal.Decimal
	Balance           decimal.Decimal
	GmailCount        int
	TotalTransactions int
	Points            int
	Tier              models.Tier
	ByCategory        map[string]decimal.Decimal
	Trend             map[string]decimal.Decimal // YYYY-MM-DD -> expenses that day
	Goals             []*models.Goal
	Transactions      []*models.Transaction
}

type DashboardService struct {
	transactions TransactionStore
	goals        GoalStore
	users        UserStore
	now          func() time.Time
	logger       *zap.Logger
}

func NewDashboardService(transactions TransactionStore, goals GoalStore, users UserStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		transactions: transactions,
		goals:        goals,
		users:        users,
		now:          time.Now,
		logger:       logger.Named("dashboard"),
	}
}

// Get aggregates every active transaction and goal. The chat context
// limits do not apply here.


func (s *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	txs, err := s.transactions.ListActive(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	goals, err := s.goals.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	d := &Dashboard{
		Tier:         models.TierBronze,
		ByCategory:   make(map[string]decimal.Decimal),
		Trend:        make(map[string]decimal.Decimal, TrendDays),
		Goals:        goals,
		Transactions: txs,
	}

	user, err := s.users.GetByID(ctx, userID)
	switch {
	case err == nil:
		d.Points = user.TotalPoints
		if user.Tier != "" {
			d.Tier = user.Tier
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	today := models.Day(s.now())
	for i := TrendDays - 1; i >= 0; i-- {
		d.Trend[today.AddDate(0, 0, -i).Format(models.DateLayout)] = decimal.Zero
	}

	for _, tx := range txs {
		if tx.SoftDeleted {
			continue
		}
		d.TotalTransactions++
		if tx.Source == models.SourceGmail {
			d.GmailCount++
		}

		switch tx.Kind {
		case models.KindIncome:
			d.Income = d.Income.Add(tx.Amount)
		case models.KindExpense:
			d.Expenses = d.Expenses.Add(tx.Amount)
			d.ByCategory[tx.Category] = d.ByCategory[tx.Category].Add(tx.Amount)
			day := models.Day(tx.Date).Format(models.DateLayout)
			if total, ok := d.Trend[day]; ok {
				d.Trend[day] = total.Add(tx.Amount)
			}
		}
	}
	d.Balance = d.Income.Sub(d.Expenses)

	if d.Goals == nil {
		d.Goals = []*models.Goal{}
	}
	if d.Transactions == nil {
		d.Transactions = []*models.Transaction{}
	}
	return d, nil
}
