package handlers

import (
	"time"

	"pfms/internal/dto"
	"pfms/internal/models"
	"pfms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GoalHandler struct {
	goalService *service.GoalService
	logger      *zap.Logger
}

func NewGoalHandler(goalService *service.GoalService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		logger:      logger,
	}
}

// ListGoals godoc
// @Summary List goals
// @Tags goals
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {array} dto.GoalResponse
// @Router /api/goals [get]
func (h *GoalHandler) ListGoals(c *fiber.Ctx) error {
	goals, err := h.goalService.List(c.UserContext(), resolveUserID(c, ""))
	if err != nil {
		return writeError(c, h.logger, err, "Failed to list goals")
	}
	return c.JSON(dto.NewGoalResponses(goals))
}

// CreateGoal godoc
// @Summary Create a goal
// @Tags goals
// @Accept json
// @Produce json
// @Param request body dto.CreateGoalRequest true "Goal"
// @Success 201 {object} dto.GoalResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/goals [post]
func (h *GoalHandler) CreateGoal(c *fiber.Ctx) error {
	var req dto.CreateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	in := service.NewGoal{
		Name:    req.Name,
		Type:    models.GoalType(req.Type),
		Target:  req.Target,
		Current: req.Current,
	}
	if req.Deadline != "" {
		deadline, err := service.ParseDate(req.Deadline)
		if err != nil {
			return badRequest(c, "Invalid deadline")
		}
		in.Deadline = &deadline
	}

	goal, err := h.goalService.Create(c.UserContext(), resolveUserID(c, req.UserID), in)
	if err != nil {
		return writeError(c, h.logger, err, "Failed to create goal")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewGoalResponse(goal))
}

// UpdateGoal godoc
// @Summary Update a goal
// @Description Partial update; omitted fields are kept
// @Tags goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param request body dto.UpdateGoalRequest true "Fields to change"
// @Success 200 {object} dto.GoalResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/goals/{id} [put]
func (h *GoalHandler) UpdateGoal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid goal ID")
	}

	var req dto.UpdateGoalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	patch := models.GoalPatch{
		Name:    req.Name,
		Target:  req.Target,
		Current: req.Current,
	}
	if req.Type != nil {
		t := models.GoalType(*req.Type)
		patch.Type = &t
	}
	if req.Status != nil {
		s := models.GoalStatus(*req.Status)
		patch.Status = &s
	}
	if req.Deadline != nil {
		var deadline time.Time
		if deadline, err = service.ParseDate(*req.Deadline); err != nil {
			return badRequest(c, "Invalid deadline")
		}
		patch.Deadline = &deadline
	}

	goal, err := h.goalService.Update(c.UserContext(), resolveUserID(c, req.UserID), id, patch)
	if err != nil {
		return writeError(c, h.logger, err, "Failed to update goal")
	}
	return c.JSON(dto.NewGoalResponse(goal))
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Param userId query string false "User ID"
// @Success 200 {object} dto.OKResponse
// @Failure 404 {object} map[string]string
// @Router /api/goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "Invalid goal ID")
	}

	if err := h.goalService.Delete(c.UserContext(), resolveUserID(c, ""), id); err != nil {
		return writeError(c, h.logger, err, "Failed to delete goal")
	}
	return c.JSON(dto.OKResponse{OK: true})
}
