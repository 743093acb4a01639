package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"pfms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newChatService(f *fixture, gateway ModelGateway) *ChatService {
	return NewChatService(
		f.store.Transactions(),
		f.store.Goals(),
		gateway,
		NewContextBuilder(fixedClock),
		f.dispatcher,
		1000, 100,
		zap.NewNop(),
	)
}

func TestChatAppliesActionBeforeReturning(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599), expense("Spotify", "Subscriptions", 119))
	gateway := &scriptedGateway{replies: []string{
		"I've removed your Netflix charges.\n" + `{"action":"remove","target":"transactions","details":{"vendor":"Netflix"}}`,
	}}

	turn, err := newChatService(f, gateway).Chat(context.Background(), testUser, "remove netflix")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(turn.Reply, "I've removed"))
	require.NotNil(t, turn.Action)
	assert.Equal(t, ActionRemove, turn.Action.Kind)
	assert.Equal(t, ActionResult{Status: StatusApplied, Affected: 1}, turn.Result)

	active := f.active(t)
	require.Len(t, active, 1)
	assert.Equal(t, "Spotify", active[0].Vendor)
}

func TestChatPromptShape(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))
	_, err := f.goals.Create(context.Background(), testUser, NewGoal{Name: "Emergency Fund", Type: models.GoalSavings, Target: 50000})
	require.NoError(t, err)

	gateway := &scriptedGateway{replies: []string{"You spent 599 on Netflix."}}
	_, err = newChatService(f, gateway).Chat(context.Background(), testUser, "how much on netflix?")
	require.NoError(t, err)

	require.Len(t, gateway.requests, 1)
	messages := gateway.requests[0]
	require.Len(t, messages, 2)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "You are Fin")
	assert.Equal(t, RoleUser, messages[1].Role)

	content := messages[1].Content
	require.True(t, strings.HasPrefix(content, "Context JSON:\n"))
	require.True(t, strings.HasSuffix(content, "\n\nUser Query: how much on netflix?"))

	raw := strings.TrimSuffix(strings.TrimPrefix(content, "Context JSON:\n"), "\n\nUser Query: how much on netflix?")
	var summary ContextSummary
	require.NoError(t, json.Unmarshal([]byte(raw), &summary))
	assert.InDelta(t, 599, summary.Summary.ByCategory["Subscriptions"], 1e-9)
	require.Len(t, summary.Goals, 1)
	assert.Equal(t, "Emergency Fund", summary.Goals[0].Name)
}

func TestChatNoAction(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))
	gateway := &scriptedGateway{replies: []string{"You spent 599 this month."}}

	turn, err := newChatService(f, gateway).Chat(context.Background(), testUser, "what did I spend?")
	require.NoError(t, err)

	assert.Nil(t, turn.Action)
	assert.Equal(t, StatusNoop, turn.Result.Status)
}

func TestChatBadPayloadStillReplies(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))
	gateway := &scriptedGateway{replies: []string{
		"Done.\n" + `{"action":"remove","target":"transactions","details":{"vendor":["Netflix"]}}`,
	}}

	turn, err := newChatService(f, gateway).Chat(context.Background(), testUser, "remove netflix")
	require.NoError(t, err)

	assert.Equal(t, "Done.\n"+`{"action":"remove","target":"transactions","details":{"vendor":["Netflix"]}}`, turn.Reply)
	require.NotNil(t, turn.Action)
	assert.Equal(t, StatusInvalid, turn.Result.Status)
	assert.Contains(t, turn.Result.Reason, ErrActionParse.Error())
	assert.Len(t, f.active(t), 1)
}

func TestChatFailures(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		err     error
		wantErr error
	}{
		{"blank query", "   ", nil, ErrValidation},
		{"missing credential", "hi", ErrConfiguration, ErrConfiguration},
		{"upstream down", "hi", &UpstreamError{StatusCode: 503, Transient: true, Err: errors.New("unavailable")}, ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			gateway := &scriptedGateway{errs: []error{tt.err}}

			turn, err := newChatService(f, gateway).Chat(context.Background(), testUser, tt.query)
			assert.Nil(t, turn)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type failingGoals struct {
	GoalStore
}

func (failingGoals) ListByUser(context.Context, string, int) ([]*models.Goal, error) {
	return nil, errors.New("goals table locked")
}

func TestChatFetchFailureFailsTurn(t *testing.T) {
	f := newFixture(t)
	gateway := &scriptedGateway{replies: []string{"unused"}}
	svc := NewChatService(f.store.Transactions(), failingGoals{f.store.Goals()}, gateway,
		NewContextBuilder(fixedClock), f.dispatcher, 1000, 100, zap.NewNop())

	_, err := svc.Chat(context.Background(), testUser, "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goals table locked")
	assert.Zero(t, gateway.calls)
}

type slowDeleteStore struct {
	TransactionStore
	delay time.Duration
}

func (s slowDeleteStore) SoftDelete(ctx context.Context, filter models.TransactionFilter) (int64, error) {
	time.Sleep(s.delay)
	return s.TransactionStore.SoftDelete(ctx, filter)
}

type sleepyGateway struct {
	scriptedGateway
	delay time.Duration
}

func (g *sleepyGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	time.Sleep(g.delay)
	return g.scriptedGateway.Complete(ctx, messages)
}

func TestChatLatencyCoversOnlyCompletion(t *testing.T) {
	f := newFixture(t, expense("Netflix", "Subscriptions", 599))
	core, logs := observer.New(zapcore.InfoLevel)

	store := slowDeleteStore{TransactionStore: f.store.Transactions(), delay: 300 * time.Millisecond}
	gateway := &sleepyGateway{delay: 20 * time.Millisecond}
	gateway.replies = []string{`Done. {"action":"remove","target":"transactions","details":{"vendor":"Netflix"}}`}

	svc := NewChatService(
		f.store.Transactions(),
		f.store.Goals(),
		gateway,
		NewContextBuilder(fixedClock),
		NewActionDispatcher(store, f.goals, zap.NewNop()),
		1000, 100,
		zap.New(core),
	)
	turn, err := svc.Chat(context.Background(), testUser, "remove netflix")
	require.NoError(t, err)
	require.Equal(t, StatusApplied, turn.Result.Status)

	entries := logs.FilterMessage("Chat turn completed").All()
	require.Len(t, entries, 1)
	latency, ok := entries[0].ContextMap()["latency"].(time.Duration)
	require.True(t, ok)
	assert.GreaterOrEqual(t, latency, 20*time.Millisecond)
	assert.Less(t, latency, 300*time.Millisecond)
}
