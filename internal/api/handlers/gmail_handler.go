package handlers

import (
	"pfms/internal/dto"
	"pfms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GmailHandler struct {
	gmailService *service.GmailService
	logger       *zap.Logger
}

func NewGmailHandler(gmailService *service.GmailService, logger *zap.Logger) *GmailHandler {
	return &GmailHandler{
		gmailService: gmailService,
		logger:       logger,
	}
}

// AuthURL godoc
// @Summary Gmail consent URL
// @Tags gmail
// @Produce json
// @Success 200 {object} dto.AuthURLResponse
// @Failure 500 {object} map[string]string
// @Router /api/gmail-auth-url [get]
func (h *GmailHandler) AuthURL(c *fiber.Ctx) error {
	url, err := h.gmailService.AuthURL(uuid.NewString())
	if err != nil {
		return writeError(c, h.logger, err, "Failed to create auth URL")
	}
	return c.JSON(dto.AuthURLResponse{URL: url})
}

// Callback godoc
// @Summary Gmail OAuth callback
// @Tags gmail
// @Produce json
// @Param code query string true "Authorization code"
// @Param userId query string false "User ID"
// @Success 200 {object} dto.OKResponse
// @Failure 500 {object} map[string]string
// @Router /api/gmail/callback [get]
func (h *GmailHandler) Callback(c *fiber.Ctx) error {
	if err := h.gmailService.Exchange(c.UserContext(), resolveUserID(c, ""), c.Query("code")); err != nil {
		return writeError(c, h.logger, err, "Failed to exchange code")
	}
	return c.JSON(dto.OKResponse{OK: true})
}

// Sync godoc
// @Summary Import receipts from Gmail
// @Tags gmail
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/gmail-sync [get]
func (h *GmailHandler) Sync(c *fiber.Ctx) error {
	result, err := h.gmailService.Sync(c.UserContext(), resolveUserID(c, ""))
	if err != nil {
		return writeError(c, h.logger, err, "Gmail sync failed")
	}
	return c.JSON(dto.ImportResponse{
		OK:           true,
		Inserted:     result.Inserted,
		Skipped:      result.Scanned - result.Inserted,
		Transactions: dto.NewTransactionResponses(result.Transactions),
	})
}
