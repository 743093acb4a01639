package service

import (
	"sort"
	"time"

	"pfms/internal/models"

	"github.com/shopspring/decimal"
)

const (
	ContextWindowDays        = 30
	TopVendorCount           = 5
	RelevantTransactionCount = 25
)

// ContextSummary is the bounded snapshot of a user's finances sent to the
// model on one chat turn.
type ContextSummary struct {
	Summary      SpendSummary         `json:"summary"`
	Transactions []ContextTransaction `json:"transactions"`
	Goals        []GoalSnapshot       `json:"goals"`
}

type SpendSummary struct {
	// ByCategory is net spend over the window: expenses add, income subtracts.
	ByCategory map[string]float64 `json:"byCategory"`
	// TopVendors ranks vendors by raw summed amount regardless of kind.
	TopVendors []VendorTotal `json:"topVendors"`
}

type VendorTotal struct {
	Vendor string  `json:"vendor"`
	Total  float64 `json:"total"`
}

type ContextTransaction struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Vendor        string  `json:"vendor"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	Type          string  `json:"type"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Recurring     bool    `json:"recurring,omitempty"`
	Unused        bool    `json:"unused,omitempty"`
}

// GoalSnapshot deliberately omits ids and timestamps.
type GoalSnapshot struct {
	Name    string  `json:"name"`
	Type    string  `json:"type"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Status  string  `json:"status"`
}

type ContextBuilder struct {
	now func() time.Time
}

func NewContextBuilder(now func() time.Time) *ContextBuilder {
	if now == nil {
		now = time.Now
	}
	return &ContextBuilder{now: now}
}

// inWindow reports whether tx falls within the last ContextWindowDays
// calendar days, the 30th day inclusive. Future-dated rows are kept.
func inWindow(tx *models.Transaction, today time.Time) bool {
	days := int(today.Sub(models.Day(tx.Date)).Hours() / 24)
	return days <= ContextWindowDays
}

// Build assembles the summary for query. The result never holds more than
// RelevantTransactionCount transactions or TopVendorCount vendors.
func (b *ContextBuilder) Build(transactions []*models.Transaction, goals []*models.Goal, query string) *ContextSummary {
	today := models.Day(b.now().UTC())

	window := make([]*models.Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx == nil || tx.SoftDeleted || !inWindow(tx, today) {
			continue
		}
		window = append(window, tx)
	}

	return &ContextSummary{
		Summary: SpendSummary{
			ByCategory: netByCategory(window),
			TopVendors: topVendors(window, TopVendorCount),
		},
		Transactions: rankTransactions(window, Tokenize(query), RelevantTransactionCount),
		Goals:        snapshotGoals(goals),
	}
}

func netByCategory(window []*models.Transaction) map[string]float64 {
	sums := make(map[string]decimal.Decimal)
	for _, tx := range window {
		amount := tx.Amount
		if tx.Kind == models.KindIncome {
			amount = amount.Neg()
		}
		sums[tx.Category] = sums[tx.Category].Add(amount)
	}

	out := make(map[string]float64, len(sums))
	for category, sum := range sums {
		out[category] = sum.InexactFloat64()
	}
	return out
}

func topVendors(window []*models.Transaction, n int) []VendorTotal {
	var order []string
	sums := make(map[string]decimal.Decimal)
	for _, tx := range window {
		if _, seen := sums[tx.Vendor]; !seen {
			order = append(order, tx.Vendor)
		}
		sums[tx.Vendor] = sums[tx.Vendor].Add(tx.Amount)
	}

	// order is first-encountered, so the stable sort keeps that for ties.
	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]].GreaterThan(sums[order[j]])
	})
	if len(order) > n {
		order = order[:n]
	}

	out := make([]VendorTotal, 0, len(order))
	for _, vendor := range order {
		out = append(out, VendorTotal{Vendor: vendor, Total: sums[vendor].InexactFloat64()})
	}
	return out
}

func rankTransactions(window []*models.Transaction, queryTokens []string, n int) []ContextTransaction {
	type scored struct {
		tx    *models.Transaction
		score int
	}
	ranked := make([]scored, len(window))
	for i, tx := range window {
		ranked[i] = scored{tx: tx, score: Score(tx, queryTokens)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out := make([]ContextTransaction, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectTransaction(r.tx))
	}
	return out
}

func projectTransaction(tx *models.Transaction) ContextTransaction {
	return ContextTransaction{
		ID:            tx.ID.String(),
		Date:          tx.Date.Format(models.DateLayout),
		Vendor:        tx.Vendor,
		Category:      tx.Category,
		Amount:        tx.Amount.InexactFloat64(),
		Currency:      tx.Currency,
		Type:          string(tx.Kind),
		PaymentMethod: tx.PaymentMethod,
		Recurring:     tx.IsRecurring,
		Unused:        tx.IsUnused,
	}
}

func snapshotGoals(goals []*models.Goal) []GoalSnapshot {
	out := make([]GoalSnapshot, 0, len(goals))
	for _, g := range goals {
		if g == nil {
			continue
		}
		out = append(out, GoalSnapshot{
			Name:    g.Name,
			Type:    string(g.Type),
			Target:  g.Target,
			Current: g.Current,
			Status:  string(g.Status),
		})
	}
	return out
}
