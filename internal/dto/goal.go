package dto

import (
	"time"

	"pfms/internal/models"
)

type GoalResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Target    float64 `json:"target"`
	Current   float64 `json:"current"`
	Deadline  *string `json:"deadline"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type CreateGoalRequest struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Target   float64 `json:"target"`
	Current  float64 `json:"current"`
	Deadline string  `json:"deadline"`
}

// UpdateGoalRequest is a partial update; omitted fields are kept.
type UpdateGoalRequest struct {
	UserID   string   `json:"userId"`
	Name     *string  `json:"name"`
	Type     *string  `json:"type"`
	Target   *float64 `json:"target"`
	Current  *float64 `json:"current"`
	Status   *string  `json:"status"`
	Deadline *string  `json:"deadline"`
}

func NewGoalResponse(g *models.Goal) GoalResponse {
	resp := GoalResponse{
		ID:        g.ID.String(),
		UserID:    g.UserID,
		Name:      g.Name,
		Type:      string(g.Type),
		Target:    g.Target,
		Current:   g.Current,
		Status:    string(g.Status),
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
		UpdatedAt: g.UpdatedAt.Format(time.RFC3339),
	}
	if g.Deadline != nil {
		d := g.Deadline.Format(models.DateLayout)
		resp.Deadline = &d
	}
	return resp
}

func NewGoalResponses(goals []*models.Goal) []GoalResponse {
	out := make([]GoalResponse, 0, len(goals))
	for _, g := range goals {
		out = append(out, NewGoalResponse(g))
	}
	return out
}
