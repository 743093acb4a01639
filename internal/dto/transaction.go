package dto

import (
	"time"

	"pfms/internal/models"
)

type TransactionResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"userId"`
	Vendor        string  `json:"vendor"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date"`
	Type          string  `json:"type"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Source        string  `json:"source"`
	IsRecurring   bool    `json:"isRecurring"`
	IsUnused      bool    `json:"isUnused"`
	RawText       string  `json:"rawText,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

type CreateTransactionRequest struct {
	UserID        string  `json:"userId"`
	Vendor        string  `json:"vendor"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Date          string  `json:"date"` // YYYY-MM-DD, defaults to today
	Type          string  `json:"type"`
	PaymentMethod string  `json:"paymentMethod"`
	IsRecurring   bool    `json:"isRecurring"`
	IsUnused      bool    `json:"isUnused"`
}

type CategoryUpdate struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

type CategorizeRequest struct {
	UserID  string           `json:"userId"`
	Updates []CategoryUpdate `json:"updates"`
}

type TransactionsResponse struct {
	OK           bool                  `json:"ok"`
	Updated      int                   `json:"updated,omitempty"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ImportResponse reports a CSV upload or a Gmail sync.
type ImportResponse struct {
	OK           bool                  `json:"ok"`
	Inserted     int                   `json:"inserted"`
	Skipped      int                   `json:"skipped"`
	Transactions []TransactionResponse `json:"transactions"`
}

func NewTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID.String(),
		UserID:        tx.UserID,
		Vendor:        tx.Vendor,
		Category:      tx.Category,
		Amount:        tx.Amount.InexactFloat64(),
		Currency:      tx.Currency,
		Date:          tx.Date.Format(models.DateLayout),
		Type:          string(tx.Kind),
		PaymentMethod: tx.PaymentMethod,
		Source:        string(tx.Source),
		IsRecurring:   tx.IsRecurring,
		IsUnused:      tx.IsUnused,
		RawText:       tx.RawText,
		CreatedAt:     tx.CreatedAt.Format(time.RFC3339),
	}
}

func NewTransactionResponses(txs []*models.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}
