package models

import (
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	GoalSavings GoalType = "savings"
	GoalBudget  GoalType = "budget"
)

func (t GoalType) Valid() bool {
	return t == GoalSavings || t == GoalBudget
}

type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
	GoalCancelled  GoalStatus = "cancelled"
)

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalInProgress, GoalCompleted, GoalCancelled:
		return true
	}
	return false
}

type Goal struct {
	ID        uuid.UUID  `db:"id"`
	UserID    string     `db:"user_id"`
	Name      string     `db:"name"`
	Type      GoalType   `db:"type"`
	Target    float64    `db:"target"`
	Current   float64    `db:"current"`
	Deadline  *time.Time `db:"deadline"`
	Status    GoalStatus `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// GoalPatch is a partial goal update; nil fields are left untouched.
type GoalPatch struct {
	Name     *string
	Type     *GoalType
	Target   *float64
	Current  *float64
	Status   *GoalStatus
	Deadline *time.Time
}

func (p GoalPatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Target == nil &&
		p.Current == nil && p.Status == nil && p.Deadline == nil
}

// Apply copies the set fields of p onto g.
func (p GoalPatch) Apply(g *Goal) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Type != nil {
		g.Type = *p.Type
	}
	if p.Target != nil {
		g.Target = *p.Target
	}
	if p.Current != nil {
		g.Current = *p.Current
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.Deadline != nil {
		d := Day(*p.Deadline)
		g.Deadline = &d
	}
}
