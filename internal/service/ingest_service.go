package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pfms/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ImportResult reports one statement import.
type ImportResult struct {
	Inserted     int
	Skipped      int
	Transactions []*models.Transaction
}

type column int

const (
	colDate column = iota
	colVendor
	colAmount
	colCredit
	colType
	colCategory
	colPaymentMethod
	colCurrency
)

var columnAliases = map[string]column{
	"date":             colDate,
	"transaction date": colDate,
	"posted":           colDate,
	"vendor":           colVendor,
	"merchant":         colVendor,
	"description":      colVendor,
	"payee":            colVendor,
	"narration":        colVendor,
	"amount":           colAmount,
	"debit":            colAmount,
	"value":            colAmount,
	"credit":           colCredit,
	"deposit":          colCredit,
	"type":             colType,
	"kind":             colType,
	"category":         colCategory,
	"payment method":   colPaymentMethod,
	"method":           colPaymentMethod,
	"mode":             colPaymentMethod,
	"currency":         colCurrency,
}

var dateLayouts = []string{
	models.DateLayout,
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
}

var currencyMarks = []string{"₹", "Rs.", "Rs", "INR", "USD", "EUR", "$", "€", "£"}

// IngestService turns uploaded statements into stored transactions.
type IngestService struct {
	transactions *TransactionService
	store        TransactionStore
	logger       *zap.Logger
}

func NewIngestService(transactions *TransactionService, store TransactionStore, logger *zap.Logger) *IngestService {
	return &IngestService{
		transactions: transactions,
		store:        store,
		logger:       logger.Named("ingest"),
	}
}

// ImportCSV parses a statement with a header row. Rows that cannot be
// read are skipped and counted; the rest are stored in one batch.
func (s *IngestService) ImportCSV(ctx context.Context, userID string, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV file is empty", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", ErrValidation, err)
	}

	index := mapColumns(header)
	if _, ok := index[colDate]; !ok {
		return nil, fmt.Errorf("%w: CSV needs a date column", ErrValidation)
	}
	if _, ok := index[colVendor]; !ok {
		return nil, fmt.Errorf("%w: CSV needs a vendor column", ErrValidation)
	}
	_, hasAmount := index[colAmount]
	_, hasCredit := index[colCredit]
	if !hasAmount && !hasCredit {
		return nil, fmt.Errorf("%w: CSV needs an amount column", ErrValidation)
	}

	result := &ImportResult{}
	var txs []*models.Transaction
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Debug("Skipping unreadable CSV row", zap.Int("line", line), zap.Error(err))
			result.Skipped++
			continue
		}
		if blank(record) {
			continue
		}

		tx, err := s.rowToTransaction(userID, index, record)
		if err != nil {
			s.logger.Debug("Skipping CSV row", zap.Int("line", line), zap.Error(err))
			result.Skipped++
			continue
		}
		txs = append(txs, tx)
	}

	markRecurring(txs)
	if err := s.save(ctx, userID, txs); err != nil {
		return nil, err
	}

	result.Inserted = len(txs)
	result.Transactions = txs
	s.logger.Info("CSV imported",
		zap.String("user_id", userID),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// save applies overrides and writes txs in one batch.
func (s *IngestService) save(ctx context.Context, userID string, txs []*models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	if err := s.transactions.ApplyOverrides(ctx, userID, txs); err != nil {
		return err
	}
	if err := s.store.CreateBatch(ctx, txs); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	return nil
}

func mapColumns(header []string) map[column]int {
	index := make(map[column]int)
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if col, ok := columnAliases[name]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	return index
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func field(record []string, index map[column]int, col column) string {
	i, ok := index[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (s *IngestService) rowToTransaction(userID string, index map[column]int, record []string) (*models.Transaction, error) {
	date, err := ParseDate(field(record, index, colDate))
	if err != nil {
		return nil, err
	}
	vendor := cleanText(field(record, index, colVendor))
	if vendor == "" {
		return nil, errors.New("vendor is empty")
	}

	kind := models.KindExpense
	var amount decimal.Decimal
	if credit := field(record, index, colCredit); credit != "" {
		if v, err := ParseAmount(credit); err == nil && !v.IsZero() {
			amount = v.Abs()
			kind = models.KindIncome
		}
	}
	if amount.IsZero() {
		raw := field(record, index, colAmount)
		if raw == "" {
			return nil, errors.New("amount is empty")
		}
		v, err := ParseAmount(raw)
		if err != nil {
			return nil, err
		}
		if v.IsNegative() {
			kind = models.KindIncome
		}
		amount = v.Abs()
	}

	switch strings.ToLower(field(record, index, colType)) {
	case "income", "credit", "cr":
		kind = models.KindIncome
	case "expense", "debit", "dr":
		kind = models.KindExpense
	}

	tx := s.transactions.newTransaction(userID, models.SourceCSV)
	tx.Vendor = vendor
	tx.Amount = amount.Round(2)
	tx.Date = date
	tx.Kind = kind
	tx.PaymentMethod = cleanText(field(record, index, colPaymentMethod))
	tx.RawText = cleanText(strings.Join(record, " "))
	if category := cleanText(field(record, index, colCategory)); category != "" {
		tx.Category = category
	}
	if currency := field(record, index, colCurrency); currency != "" {
		tx.Currency = strings.ToUpper(currency)
	}
	return tx, nil
}

// ParseDate reads a statement date in any of the accepted layouts.
// Day-first layouts are tried before month-first.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseAmount reads amounts such as "₹1,299.00", "-45", "(120.50)" or
// "Rs. 300". Parentheses mean negative.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "("), ")")
	}
	for _, mark := range currencyMarks {
		cleaned = strings.ReplaceAll(cleaned, mark, "")
	}
	cleaned = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unrecognised amount %q", s)
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// markRecurring flags every transaction whose vendor and amount occur in
// two or more distinct months of the same batch.
func markRecurring(txs []*models.Transaction) {
	type key struct {
		vendor string
		amount string
	}
	months := make(map[key]map[string]struct{})
	for _, tx := range txs {
		k := key{vendor: strings.ToLower(tx.Vendor), amount: tx.Amount.String()}
		if months[k] == nil {
			months[k] = make(map[string]struct{})
		}
		months[k][tx.Date.Format("2006-01")] = struct{}{}
	}
	for _, tx := range txs {
		k := key{vendor: strings.ToLower(tx.Vendor), amount: tx.Amount.String()}
		if len(months[k]) >= 2 {
			tx.IsRecurring = true
		}
	}
}
