package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindIncome  TransactionKind = "income"
	KindExpense TransactionKind = "expense"
)

func (k TransactionKind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

type TransactionSource string

const (
	SourceCSV    TransactionSource = "csv"
	SourceGmail  TransactionSource = "gmail"
	SourceManual TransactionSource = "manual"
)

// Categories the categorisation prompt and the CSV importer steer towards.
// The category column itself is free text.
var DefaultCategories = []string{
	"Food",
	"Travel",
	"Subscriptions",
	"Investments",
	"Bills",
	"Entertainment",
	"Income",
	"Shopping",
	"Transport",
	"Misc",
}

const (
	CategoryMisc    = "Misc"
	DefaultCurrency = "INR"
	DateLayout      = "2006-01-02"
)

type Transaction struct {
	ID            uuid.UUID         `db:"id"`
	UserID        string            `db:"user_id"`
	Vendor        string            `db:"vendor"`
	Category      string            `db:"category"`
	Amount        decimal.Decimal   `db:"amount"`
	Currency      string            `db:"currency"`
	Date          time.Time         `db:"date"` // calendar day, UTC midnight
	Kind          TransactionKind   `db:"kind"`
	PaymentMethod string            `db:"payment_method"`
	Source        TransactionSource `db:"source"`
	SourceRef     string            `db:"source_ref"` // upstream id, e.g. the Gmail message id
	IsRecurring   bool              `db:"is_recurring"`
	IsUnused      bool              `db:"is_unused"`
	RawText       string            `db:"raw_text"`
	SoftDeleted   bool              `db:"soft_deleted"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TransactionFilter scopes a soft delete. UserID is mandatory; every other
// field narrows the match when set. Deleted rows never match.
type TransactionFilter struct {
	UserID   string
	Vendor   *string
	Category *string
	IDs      []uuid.UUID
	Since    *time.Time
}

// CategoryUpdate is one row of a bulk recategorisation.
type CategoryUpdate struct {
	ID       uuid.UUID
	Category string
}
