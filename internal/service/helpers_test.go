package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testUser = "user-1"

var testNow = time.Date(2024, time.March, 31, 15, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func daysAgo(n int) time.Time {
	return models.Day(testNow).AddDate(0, 0, -n)
}

func newTx(vendor, category string, amount float64, kind models.TransactionKind, date time.Time) *models.Transaction {
	return &models.Transaction{
		ID:        uuid.New(),
		UserID:    testUser,
		Vendor:    vendor,
		Category:  category,
		Amount:    decimal.NewFromFloat(amount),
		Currency:  models.DefaultCurrency,
		Date:      date,
		Kind:      kind,
		Source:    models.SourceManual,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func expense(vendor, category string, amount float64) *models.Transaction {
	return newTx(vendor, category, amount, models.KindExpense, daysAgo(1))
}

type fixture struct {
	store        *memory.Store
	goals        *GoalService
	dispatcher   *ActionDispatcher
	transactions *TransactionService
	ingest       *IngestService
}

func newFixture(t *testing.T, txs ...*models.Transaction) *fixture {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.Transactions().CreateBatch(context.Background(), txs))

	goals := NewGoalService(store.Goals(), 100, zap.NewNop())
	goals.now = fixedClock
	dispatcher := NewActionDispatcher(store.Transactions(), goals, zap.NewNop())
	dispatcher.now = fixedClock
	transactions := NewTransactionService(store.Transactions(), store.Overrides(), 1000, zap.NewNop())
	transactions.now = fixedClock

	return &fixture{
		store:        store,
		goals:        goals,
		dispatcher:   dispatcher,
		transactions: transactions,
		ingest:       NewIngestService(transactions, store.Transactions(), zap.NewNop()),
	}
}

func (f *fixture) active(t *testing.T) []*models.Transaction {
	t.Helper()
	txs, err := f.store.Transactions().ListActive(context.Background(), testUser, 0)
	require.NoError(t, err)
	return txs
}

func (f *fixture) goalList(t *testing.T) []*models.Goal {
	t.Helper()
	goals, err := f.goals.List(context.Background(), testUser)
	require.NoError(t, err)
	return goals
}

// scriptedGateway replays canned replies and records every prompt.
type scriptedGateway struct {
	mu       sync.Mutex
	replies  []string
	errs     []error
	calls    int
	requests [][]ChatMessage
}

func (g *scriptedGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.calls
	g.calls++
	g.requests = append(g.requests, messages)

	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", nil
}

func mustParse(t *testing.T, reply string) *ChatAction {
	t.Helper()
	action, err := ParseReply(reply, "")
	require.NoError(t, err)
	require.NotNil(t, action)
	return action
}
