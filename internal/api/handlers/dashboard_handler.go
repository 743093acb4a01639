package handlers

import (
	"pfms/internal/dto"
	"pfms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// Dashboard godoc
// @Summary Spending overview
// @Tags dashboard
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {object} dto.DashboardResponse
// @Router /api/dashboard [get]
func (h *DashboardHandler) Dashboard(c *fiber.Ctx) error {
	d, err := h.dashboardService.Get(c.UserContext(), resolveUserID(c, ""))
	if err != nil {
		return writeError(c, h.logger, err, "Failed to load dashboard")
	}

	return c.JSON(dto.DashboardResponse{
		OK:                true,
		Income:            d.Income.InexactFloat64(),
		Expenses:          d.Expenses.InexactFloat64(),
		Balance:           d.Balance.InexactFloat64(),
		GmailCount:        d.GmailCount,
		TotalTransactions: d.TotalTransactions,
		Points:            d.Points,
		Tier:              string(d.Tier),
		ByCategory:        floats(d.ByCategory),
		Trend:             floats(d.Trend),
		Goals:             dto.NewGoalResponses(d.Goals),
		Transactions:      dto.NewTransactionResponses(d.Transactions),
	})
}

func floats(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.InexactFloat64()
	}
	return out
}
