package handlers

import (
	"strings"
	"time"

	"pfms/internal/dto"
	"pfms/internal/models"
	"pfms/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
	ingestService      *service.IngestService
	logger             *zap.Logger
}

func NewTransactionHandler(transactionService *service.TransactionService, ingestService *service.IngestService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		ingestService:      ingestService,
		logger:             logger,
	}
}

// ListTransactions godoc
// @Summary List transactions
// @Description Non-deleted transactions, newest first
// @Tags transactions
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {array} dto.TransactionResponse
// @Router /api/transactions [get]
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	txs, err := h.transactionService.List(c.UserContext(), resolveUserID(c, ""))
	if err != nil {
		return writeError(c, h.logger, err, "Failed to list transactions")
	}
	return c.JSON(dto.NewTransactionResponses(txs))
}

// CreateTransaction godoc
// @Summary Add a manual transaction
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.CreateTransactionRequest true "Transaction"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string
// @Router /api/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *fiber.Ctx) error {
	var req dto.CreateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	in := service.NewTransaction{
		Vendor:        req.Vendor,
		Category:      req.Category,
		Amount:        decimal.NewFromFloat(req.Amount),
		Currency:      req.Currency,
		Kind:          models.TransactionKind(strings.ToLower(req.Type)),
		PaymentMethod: req.PaymentMethod,
		IsRecurring:   req.IsRecurring,
		IsUnused:      req.IsUnused,
	}
	if req.Date == "" {
		in.Date = models.Day(time.Now())
	} else {
		date, err := service.ParseDate(req.Date)
		if err != nil {
			return badRequest(c, "Invalid date")
		}
		in.Date = date
	}

	tx, err := h.transactionService.Create(c.UserContext(), resolveUserID(c, req.UserID), in)
	if err != nil {
		return writeError(c, h.logger, err, "Failed to create transaction")
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTransactionResponse(tx))
}

// Categorize godoc
// @Summary Recategorise transactions
// @Description Updates categories by id and remembers each vendor's new category for future imports
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body dto.CategorizeRequest true "Updates"
// @Success 200 {object} dto.TransactionsResponse
// @Failure 400 {object} map[string]string
// @Router /api/categorize [post]
func (h *TransactionHandler) Categorize(c *fiber.Ctx) error {
	var req dto.CategorizeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	updates := make([]models.CategoryUpdate, 0, len(req.Updates))
	for _, u := range req.Updates {
		id, err := uuid.Parse(u.ID)
		if err != nil {
			return badRequest(c, "Invalid transaction ID: "+u.ID)
		}
		updates = append(updates, models.CategoryUpdate{ID: id, Category: u.Category})
	}

	updated, err := h.transactionService.Categorize(c.UserContext(), resolveUserID(c, req.UserID), updates)
	if err != nil {
		return writeError(c, h.logger, err, "Categorization failed")
	}
	return c.JSON(dto.TransactionsResponse{
		OK:           true,
		Updated:      len(updated),
		Transactions: dto.NewTransactionResponses(updated),
	})
}

// UploadCSV godoc
// @Summary Import a bank statement
// @Tags transactions
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV statement with a header row"
// @Param userId formData string false "User ID"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} map[string]string
// @Router /api/upload-csv [post]
func (h *TransactionHandler) UploadCSV(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "File is required")
	}

	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Failed to open file")
	}
	defer src.Close()

	result, err := h.ingestService.ImportCSV(c.UserContext(), resolveUserID(c, c.FormValue("userId")), src)
	if err != nil {
		return writeError(c, h.logger, err, "CSV import failed")
	}
	return c.JSON(dto.ImportResponse{
		OK:           true,
		Inserted:     result.Inserted,
		Skipped:      result.Skipped,
		Transactions: dto.NewTransactionResponses(result.Transactions),
	})
}
