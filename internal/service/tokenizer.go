package service

import (
	"strings"
	"unicode"

	"pfms/internal/models"
)

// Tokenize lowercases text and splits it on every run of characters that
// are neither letters nor digits. Empty tokens are dropped.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tokenSet collects the distinct tokens of a transaction's searchable text.
func tokenSet(tx *models.Transaction) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range []string{tx.Vendor, tx.Category, tx.RawText, tx.PaymentMethod} {
		for _, tok := range Tokenize(field) {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Score counts the query tokens that occur anywhere in the transaction's
// vendor, category, raw text or payment method.
func Score(tx *models.Transaction, queryTokens []string) int {
	if len(queryTokens) == 0 {
		return 0
	}
	set := tokenSet(tx)
	score := 0
	for _, tok := range queryTokens {
		if _, ok := set[tok]; ok {
			score++
		}
	}
	return score
}
