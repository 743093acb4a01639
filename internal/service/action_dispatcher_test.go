package service

import (
	"context"
	"errors"
	"testing"

	"pfms/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRemoveByVendor(t *testing.T) {
	netflix := expense("Netflix", "Subscriptions", 599)
	spotify := expense("Spotify", "Subscriptions", 119)
	f := newFixture(t, netflix, spotify)

	action := mustParse(t, `Done. {"action":"remove","target":"transactions","details":{"vendor":"Netflix"}}`)
	result := f.dispatcher.Apply(context.Background(), testUser, action)

	assert.Equal(t, ActionResult{Status: StatusApplied, Affected: 1}, result)

	active := f.active(t)
	require.Len(t, active, 1)
	assert.Equal(t, spotify.ID, active[0].ID)
	assert.False(t, active[0].SoftDeleted)

	summary := NewContextBuilder(fixedClock).Build(active, nil, "netflix")
	require.Len(t, summary.Transactions, 1)
	assert.Equal(t, "Spotify", summary.Transactions[0].Vendor)
	assert.InDelta(t, 119, summary.Summary.ByCategory["Subscriptions"], 1e-9)
}

func TestDispatchRemoveFilters(t *testing.T) {
	recent := newTx("Uber", "Transport", 250, models.KindExpense, daysAgo(2))
	older := newTx("Uber", "Transport", 300, models.KindExpense, daysAgo(20))
	oldest := newTx("Uber", "Transport", 90, models.KindExpense, daysAgo(60))
	food := newTx("Swiggy", "Food", 400, models.KindExpense, daysAgo(1))

	tests := []struct {
		name      string
		details   string
		remaining []uuid.UUID
		status    ActionStatus
	}{
		{"category", `{"category":"Transport"}`, []uuid.UUID{food.ID}, StatusApplied},
		{"vendor and last week", `{"vendor":"Uber","dateRange":"last_week"}`, []uuid.UUID{food.ID, older.ID, oldest.ID}, StatusApplied},
		{"last month", `{"dateRange":"last_month"}`, []uuid.UUID{oldest.ID}, StatusApplied},
		{"ids", `{"transactionIds":["` + older.ID.String() + `","` + food.ID.String() + `"]}`, []uuid.UUID{recent.ID, oldest.ID}, StatusApplied},
		{"all", `{"dateRange":"all"}`, nil, StatusApplied},
		{"vendor without match", `{"vendor":"Ola"}`, []uuid.UUID{food.ID, recent.ID, older.ID, oldest.ID}, StatusNoop},
		{"empty filter", `{}`, []uuid.UUID{food.ID, recent.ID, older.ID, oldest.ID}, StatusNoop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			copies := make([]*models.Transaction, 0, 4)
			for _, tx := range []*models.Transaction{recent, older, oldest, food} {
				c := *tx
				copies = append(copies, &c)
			}
			f := newFixture(t, copies...)

			action := mustParse(t, `{"action":"remove","target":"transactions","details":`+tt.details+`}`)
			result := f.dispatcher.Apply(context.Background(), testUser, action)
			assert.Equal(t, tt.status, result.Status, result.Reason)

			var remaining []uuid.UUID
			for _, tx := range f.active(t) {
				remaining = append(remaining, tx.ID)
			}
			assert.ElementsMatch(t, tt.remaining, remaining)
		})
	}
}

func TestDispatchRemoveIsScopedToUser(t *testing.T) {
	mine := expense("Netflix", "Subscriptions", 599)
	theirs := expense("Netflix", "Subscriptions", 599)
	theirs.UserID = "user-2"
	f := newFixture(t, mine, theirs)

	action := mustParse(t, `{"action":"remove","target":"transactions","details":{"vendor":"Netflix"}}`)
	result := f.dispatcher.Apply(context.Background(), testUser, action)
	assert.Equal(t, int64(1), result.Affected)

	others, err := f.store.Transactions().ListActive(context.Background(), "user-2", 0)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestDispatchKeywordOnlyIsNoop(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599), expense("Spotify", "Subscriptions", 119))

	action, err := ParseReply("I can help with that.", "delete my transactions")
	require.NoError(t, err)
	require.NotNil(t, action)
	require.Equal(t, ActionRemove, action.Kind)

	result := f.dispatcher.Apply(context.Background(), testUser, action)
	assert.Equal(t, StatusNoop, result.Status)
	assert.Equal(t, reasonInsufficientDetail, result.Reason)
	assert.Len(t, f.active(t), 2)
}

func TestDispatchAddGoal(t *testing.T) {
	f := newFixture(t)

	action := mustParse(t, `{"action":"add_goal","target":"goal","details":{"name":"Emergency Fund","type":"savings","target":50000}}`)
	result := f.dispatcher.Apply(context.Background(), testUser, action)
	assert.Equal(t, ActionResult{Status: StatusApplied, Affected: 1}, result)

	goals := f.goalList(t)
	require.Len(t, goals, 1)
	assert.Equal(t, "Emergency Fund", goals[0].Name)
	assert.Equal(t, models.GoalSavings, goals[0].Type)
	assert.Equal(t, 50000.0, goals[0].Target)
	assert.Equal(t, 0.0, goals[0].Current)
	assert.Equal(t, models.GoalInProgress, goals[0].Status)
	assert.Nil(t, goals[0].Deadline)

	// Same name again, any case, changes nothing.
	action = mustParse(t, `{"action":"add_goal","target":"goal","details":{"name":"emergency fund","type":"savings","target":1}}`)
	result = f.dispatcher.Apply(context.Background(), testUser, action)
	assert.Equal(t, StatusNoop, result.Status)
	assert.Len(t, f.goalList(t), 1)
}

func TestDispatchAddGoalMissingFields(t *testing.T) {
	for _, details := range []string{
		`{"name":"Emergency Fund","type":"savings"}`,
		`{"name":"Emergency Fund","type":"savings","target":0}`,
		`{"type":"savings","target":50000}`,
		`{"name":"Emergency Fund","target":50000}`,
	} {
		f := newFixture(t)
		action := mustParse(t, `{"action":"add_goal","target":"goal","details":`+details+`}`)

		result := f.dispatcher.Apply(context.Background(), testUser, action)
		assert.Equal(t, StatusNoop, result.Status, details)
		assert.Empty(t, f.goalList(t), details)
	}
}

func TestDispatchAddGoalWithDeadline(t *testing.T) {
	f := newFixture(t)
	action := mustParse(t, `{"action":"add_goal","target":"goal","details":{"name":"Trip","type":"budget","target":20000,"deadline":"2024-12-31"}}`)

	result := f.dispatcher.Apply(context.Background(), testUser, action)
	require.Equal(t, StatusApplied, result.Status)

	goals := f.goalList(t)
	require.Len(t, goals, 1)
	require.NotNil(t, goals[0].Deadline)
	assert.Equal(t, "2024-12-31", goals[0].Deadline.Format(models.DateLayout))
}

func TestDispatchUpdateGoal(t *testing.T) {
	f := newFixture(t)
	goal, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Emergency Fund", Type: models.GoalSavings, Target: 50000})
	require.NoError(t, err)
	other, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Car", Type: models.GoalSavings, Target: 300000})
	require.NoError(t, err)

	action := mustParse(t, `{"action":"update_goal","target":"goal","details":{"name":"Emergency Fund","fields":{"current":10000}}}`)
	result := f.dispatcher.Apply(context.Background(), testUser, action)
	assert.Equal(t, ActionResult{Status: StatusApplied, Affected: 1}, result)

	updated, err := f.store.Goals().GetByID(context.Background(), testUser, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, updated.Current)
	assert.Equal(t, 50000.0, updated.Target)

	// The id wins over the name.
	action = mustParse(t, `{"action":"update_goal","target":"goal","details":{"id":"`+other.ID.String()+`","name":"Emergency Fund","fields":{"status":"completed"}}}`)
	result = f.dispatcher.Apply(context.Background(), testUser, action)
	require.Equal(t, StatusApplied, result.Status)

	car, err := f.store.Goals().GetByID(context.Background(), testUser, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, car.Status)
	updated, err = f.store.Goals().GetByID(context.Background(), testUser, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GoalInProgress, updated.Status)
}

func TestDispatchUpdateGoalNoops(t *testing.T) {
	f := newFixture(t)
	_, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Emergency Fund", Type: models.GoalSavings, Target: 50000})
	require.NoError(t, err)

	tests := []struct {
		name    string
		details string
	}{
		{"empty fields", `{"name":"Emergency Fund","fields":{}}`},
		{"no fields", `{"name":"Emergency Fund"}`},
		{"no selector", `{"fields":{"current":5}}`},
		{"unknown name", `{"name":"Yacht","fields":{"current":5}}`},
		{"unknown id", `{"id":"` + uuid.NewString() + `","fields":{"current":5}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := mustParse(t, `{"action":"update_goal","target":"goal","details":`+tt.details+`}`)
			result := f.dispatcher.Apply(context.Background(), testUser, action)
			assert.Equal(t, StatusNoop, result.Status)
		})
	}

	goals := f.goalList(t)
	require.Len(t, goals, 1)
	assert.Equal(t, 0.0, goals[0].Current)
}

func TestDispatchUnsupportedPairs(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))

	for _, reply := range []string{
		`{"action":"remove","target":"goal","details":{"vendor":"Netflix"}}`,
		`{"action":"add_goal","target":"transactions","details":{"name":"X","type":"savings","target":1}}`,
		`{"action":"transfer","target":"account","details":{"amount":5}}`,
		`{"action":"remove","details":{"vendor":"Netflix"}}`,
	} {
		result := f.dispatcher.Apply(context.Background(), testUser, mustParse(t, reply))
		assert.Equal(t, StatusNoop, result.Status, reply)
	}

	assert.Len(t, f.active(t), 1)
	assert.Empty(t, f.goalList(t))
	assert.Equal(t, StatusNoop, f.dispatcher.Apply(context.Background(), testUser, nil).Status)
}

type failingTransactions struct {
	TransactionStore
}

func (failingTransactions) SoftDelete(context.Context, models.TransactionFilter) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestDispatchStoreFailureIsReported(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))
	dispatcher := NewActionDispatcher(failingTransactions{f.store.Transactions()}, f.goals, f.dispatcher.logger)

	action := mustParse(t, `{"action":"remove","target":"transactions","details":{"vendor":"Netflix"}}`)
	result := dispatcher.Apply(context.Background(), testUser, action)

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Reason, ErrActionApply.Error())
	assert.Contains(t, result.Reason, "connection refused")
}
