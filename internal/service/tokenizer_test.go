package service

import (
	"testing"

	"pfms/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"punctuation only", "?!... -- //", nil},
		{"mixed case and separators", "Netflix: Subscription (MONTHLY)", []string{"netflix", "subscription", "monthly"}},
		{"digits kept", "Order #4421 paid via UPI-123", []string{"order", "4421", "paid", "via", "upi", "123"}},
		{"unicode letters", "Café ₹250", []string{"café", "250"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore(t *testing.T) {
	tx := expense("Netflix", "Subscriptions", 599)
	tx.RawText = "netflix netflix monthly plan"
	tx.PaymentMethod = "Card"

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"empty query", "", 0},
		{"punctuation query", "???", 0},
		{"vendor match", "how much on netflix", 1},
		{"repeated field token counts once", "netflix", 1},
		{"several fields", "netflix subscriptions card", 3},
		{"no overlap", "groceries", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tx, Tokenize(tt.query)))
		})
	}
}

func TestScoreCountsRepeatedQueryTokens(t *testing.T) {
	tx := &models.Transaction{Vendor: "Uber"}
	assert.Equal(t, 2, Score(tx, []string{"uber", "uber"}))
}
