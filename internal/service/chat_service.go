package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const systemPrompt = `You are Fin, a helpful finance assistant.
Use the user's transactions and goals provided in context to answer concisely.
If the user asks to remove, add, or update data, you MUST include a single JSON object on a separate line containing an action plan with this exact shape:
{
  "action": "remove" | "add_goal" | "update_goal",
  "target": "transactions" | "goal",
  "details": {
    // for remove: one or more of vendor, category, transactionIds[], dateRange: "last_week"|"last_month"|"all"
    // for add_goal: name, type: "savings"|"budget", target: number, deadline?: "YYYY-MM-DD"
    // for update_goal: id? or name, fields: { target?, current?, status?, deadline? }
  }
}
Write your normal answer first, then the JSON on a new line. If no action is needed, omit the JSON.`

// ChatTurn is the outcome of one chat request. Action is nil when the turn
// asked for nothing; Result says what dispatching it did.
type ChatTurn struct {
	Reply  string
	Action *ChatAction
	Result ActionResult
}

type ChatService struct {
	transactions     TransactionStore
	goals            GoalStore
	gateway          ModelGateway
	builder          *ContextBuilder
	dispatcher       *ActionDispatcher
	transactionLimit int
	goalLimit        int
	logger           *zap.Logger
}

func NewChatService(
	transactions TransactionStore,
	goals GoalStore,
	gateway ModelGateway,
	builder *ContextBuilder,
	dispatcher *ActionDispatcher,
	transactionLimit, goalLimit int,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		transactions:     transactions,
		goals:            goals,
		gateway:          gateway,
		builder:          builder,
		dispatcher:       dispatcher,
		transactionLimit: transactionLimit,
		goalLimit:        goalLimit,
		logger:           logger.Named("chat"),
	}
}

// Chat runs one turn: fetch records, build the context, call the model,
// parse the reply and apply any action before returning. Only fetch and
// model failures fail the turn.
func (s *ChatService) Chat(ctx context.Context, userID, query string) (*ChatTurn, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", ErrValidation)
	}

	transactions, err := s.transactions.ListActive(ctx, userID, s.transactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	goals, err := s.goals.ListByUser(ctx, userID, s.goalLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	summary := s.builder.Build(transactions, goals, query)
	messages, err := buildMessages(summary, query)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	reply, err := s.gateway.Complete(ctx, messages)
	latency := time.Since(started)
	if err != nil {
		s.logger.Error("Completion failed",
			zap.String("user_id", userID),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return nil, err
	}

	turn := &ChatTurn{Reply: reply}
	action, parseErr := ParseReply(reply, query)
	turn.Action = action
	switch {
	case parseErr != nil:
		turn.Result = ActionResult{Status: StatusInvalid, Reason: parseErr.Error()}
	case action == nil:
		turn.Result = noop("no action")
	default:
		turn.Result = s.dispatcher.Apply(ctx, userID, action)
	}

	kind := ""
	if action != nil {
		kind = string(action.Kind)
	}
	s.logger.Info("Chat turn completed",
		zap.String("user_id", userID),
		zap.String("action", kind),
		zap.String("status", string(turn.Result.Status)),
		zap.Duration("latency", latency),
	)
	if errors.Is(parseErr, ErrActionParse) {
		s.logger.Warn("Model emitted an unusable action", zap.String("user_id", userID), zap.Error(parseErr))
	}

	return turn, nil
}

func buildMessages(summary *ContextSummary, query string) ([]ChatMessage, error) {
	contextJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}
	return []ChatMessage{
		{Role: RoleSystem, Content: systemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf("Context JSON:\n%s\n\nUser Query: %s", contextJSON, query)},
	}, nil
}
