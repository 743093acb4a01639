package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"pfms/internal/models"

	"github.com/google/uuid"
)

type ActionKind string

const (
	ActionRemove     ActionKind = "remove"
	ActionAddGoal    ActionKind = "add_goal"
	ActionUpdateGoal ActionKind = "update_goal"
)

const (
	TargetTransactions = "transactions"
	TargetGoal         = "goal"
)

// ChatAction is the mutation a chat turn may request. Kind, Target and
// Details mirror the JSON the model emits; at most one typed payload is set
// once Details has been decoded for a known kind.
type ChatAction struct {
	Kind    ActionKind      `json:"action"`
	Target  string          `json:"target,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`

	Remove     *RemoveDetails     `json:"-"`
	AddGoal    *AddGoalDetails    `json:"-"`
	UpdateGoal *UpdateGoalDetails `json:"-"`
}

type DateRange string

const (
	RangeLastWeek  DateRange = "last_week"
	RangeLastMonth DateRange = "last_month"
	RangeAll       DateRange = "all"
)

func (r DateRange) Valid() bool {
	switch r {
	case "", RangeLastWeek, RangeLastMonth, RangeAll:
		return true
	}
	return false
}

// Days is the look-back of the range; zero means unbounded.
func (r DateRange) Days() int {
	switch r {
	case RangeLastWeek:
		return 7
	case RangeLastMonth:
		return ContextWindowDays
	}
	return 0
}

type RemoveDetails struct {
	Vendor         string    `json:"vendor,omitempty"`
	Category       string    `json:"category,omitempty"`
	TransactionIDs []string  `json:"transactionIds,omitempty"`
	DateRange      DateRange `json:"dateRange,omitempty"`

	ids []uuid.UUID
}

// Empty reports whether no narrowing term was given.
func (d *RemoveDetails) Empty() bool {
	return d.Vendor == "" && d.Category == "" && len(d.TransactionIDs) == 0 && d.DateRange == ""
}

type AddGoalDetails struct {
	Name     string          `json:"name"`
	Type     models.GoalType `json:"type"`
	Target   float64         `json:"target"`
	Deadline string          `json:"deadline,omitempty"`
}

type UpdateGoalDetails struct {
	ID     string     `json:"id,omitempty"`
	Name   string     `json:"name,omitempty"`
	Fields GoalFields `json:"fields"`

	goalID uuid.UUID
}

type GoalFields struct {
	Target   *float64           `json:"target,omitempty"`
	Current  *float64           `json:"current,omitempty"`
	Status   *models.GoalStatus `json:"status,omitempty"`
	Deadline *string            `json:"deadline,omitempty"`
}

// Patch converts the fields into a store patch. Validity was checked at
// decode time.
func (f GoalFields) Patch() models.GoalPatch {
	patch := models.GoalPatch{
		Target:  f.Target,
		Current: f.Current,
		Status:  f.Status,
	}
	if f.Deadline != nil {
		if d, err := parseDeadline(*f.Deadline); err == nil {
			patch.Deadline = d
		}
	}
	return patch
}

type ActionStatus string

const (
	StatusApplied ActionStatus = "applied"
	StatusNoop    ActionStatus = "noop"
	StatusInvalid ActionStatus = "invalid"
	StatusFailed  ActionStatus = "failed"
)

// ActionResult tells a caller whether the turn's action changed anything,
// was skipped, could not be decoded, or failed against the store.
type ActionResult struct {
	Status   ActionStatus `json:"status"`
	Affected int64        `json:"affected"`
	Reason   string       `json:"reason,omitempty"`
}

func noop(reason string) ActionResult {
	return ActionResult{Status: StatusNoop, Reason: reason}
}

func parseDeadline(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("deadline %q is not YYYY-MM-DD", s)
	}
	return &d, nil
}

func hasDetails(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeDetails fills the typed payload for a known kind. Unknown kinds and
// absent details are left alone. A known kind whose details are wrong-typed
// or carry out-of-range values yields ErrActionParse.
func (a *ChatAction) decodeDetails() error {
	if !hasDetails(a.Details) {
		return nil
	}

	switch a.Kind {
	case ActionRemove:
		var d RemoveDetails
		if err := json.Unmarshal(a.Details, &d); err != nil {
			return fmt.Errorf("%w: remove details: %v", ErrActionParse, err)
		}
		if !d.DateRange.Valid() {
			return fmt.Errorf("%w: unknown dateRange %q", ErrActionParse, d.DateRange)
		}
		for _, raw := range d.TransactionIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				return fmt.Errorf("%w: transaction id %q: %v", ErrActionParse, raw, err)
			}
			d.ids = append(d.ids, id)
		}
		a.Remove = &d

	case ActionAddGoal:
		var d AddGoalDetails
		if err := json.Unmarshal(a.Details, &d); err != nil {
			return fmt.Errorf("%w: add_goal details: %v", ErrActionParse, err)
		}
		if d.Type != "" && !d.Type.Valid() {
			return fmt.Errorf("%w: unknown goal type %q", ErrActionParse, d.Type)
		}
		if d.Target < 0 {
			return fmt.Errorf("%w: negative goal target", ErrActionParse)
		}
		if _, err := parseDeadline(d.Deadline); err != nil {
			return fmt.Errorf("%w: %v", ErrActionParse, err)
		}
		a.AddGoal = &d

	case ActionUpdateGoal:
		var d UpdateGoalDetails
		if err := json.Unmarshal(a.Details, &d); err != nil {
			return fmt.Errorf("%w: update_goal details: %v", ErrActionParse, err)
		}
		if d.ID != "" {
			id, err := uuid.Parse(d.ID)
			if err != nil {
				return fmt.Errorf("%w: goal id %q: %v", ErrActionParse, d.ID, err)
			}
			d.goalID = id
		}
		if d.Fields.Status != nil && !d.Fields.Status.Valid() {
			return fmt.Errorf("%w: unknown goal status %q", ErrActionParse, *d.Fields.Status)
		}
		if d.Fields.Deadline != nil {
			if _, err := parseDeadline(*d.Fields.Deadline); err != nil {
				return fmt.Errorf("%w: %v", ErrActionParse, err)
			}
		}
		a.UpdateGoal = &d
	}

	return nil
}
