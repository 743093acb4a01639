package handlers

import (
	"pfms/internal/dto"
	"pfms/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Ask the assistant
// @Description Answers from the user's recent transactions and goals and applies at most one requested change
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat request"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	turn, err := h.chatService.Chat(c.UserContext(), resolveUserID(c, req.UserID), req.Query)
	if err != nil {
		return writeError(c, h.logger, err, "Chat failed")
	}

	resp := dto.ChatResponse{
		OK:    true,
		Reply: turn.Reply,
		ActionResult: dto.ActionResult{
			Status:   string(turn.Result.Status),
			Affected: turn.Result.Affected,
			Reason:   turn.Result.Reason,
		},
	}
	if turn.Action != nil {
		resp.Action = &dto.ChatAction{
			Action:  string(turn.Action.Kind),
			Target:  turn.Action.Target,
			Details: turn.Action.Details,
		}
	}
	return c.JSON(resp)
}
