package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"pfms/internal/app"
	"pfms/internal/models"
	"pfms/pkg/config"
	"pfms/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed sample_transactions.json
var sampleTransactions []byte

type sampleTransaction struct {
	Date          string                   `json:"date"`
	Vendor        string                   `json:"vendor"`
	Category      string                   `json:"category"`
	Amount        decimal.Decimal          `json:"amount"`
	Kind          models.TransactionKind   `json:"kind"`
	PaymentMethod string                   `json:"paymentMethod"`
	Source        models.TransactionSource `json:"source"`
	IsRecurring   bool                     `json:"isRecurring"`
	IsUnused      bool                     `json:"isUnused"`
}

func seedCmd() *cobra.Command {
	var (
		userID string
		force  bool
		rebase bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a month of demo transactions for a user",
		Long: `Load a month of demo transactions for a user.

The user is skipped when it already has transactions unless --force is set.
With --rebase the sample month is shifted so its last day is today.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(_ *config.Config, a *app.App) error {
				existing, err := a.Stores.Transactions.ListActive(cmd.Context(), userID, 1)
				if err != nil {
					return fmt.Errorf("failed to check existing transactions: %w", err)
				}
				if len(existing) > 0 && !force {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already has transactions, skipping\n", userID)
					return nil
				}

				var now time.Time
				if rebase {
					now = time.Now()
				}
				txs, err := sampleBatch(userID, now)
				if err != nil {
					return err
				}
				if err := a.Stores.Transactions.CreateBatch(cmd.Context(), txs); err != nil {
					return fmt.Errorf("failed to store sample transactions: %w", err)
				}

				logger.Get().Info("Seeded demo transactions", zap.String("user_id", userID), zap.Int("count", len(txs)))
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d transactions for %s\n", len(txs), userID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "demo-user", "user id")
	cmd.Flags().BoolVar(&force, "force", false, "seed even when the user has transactions")
	cmd.Flags().BoolVar(&rebase, "rebase", true, "shift sample dates so the last one is today")
	return cmd
}

// sampleBatch decodes the embedded sample. A non-zero now shifts every date
// by the same offset so the latest sample lands on now's day.
func sampleBatch(userID string, now time.Time) ([]*models.Transaction, error) {
	var samples []sampleTransaction
	if err := json.Unmarshal(sampleTransactions, &samples); err != nil {
		return nil, fmt.Errorf("failed to decode sample transactions: %w", err)
	}

	dates := make([]time.Time, len(samples))
	var latest time.Time
	for i, s := range samples {
		d, err := time.Parse(models.DateLayout, s.Date)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		dates[i] = d
		if d.After(latest) {
			latest = d
		}
	}

	var shift time.Duration
	if !now.IsZero() {
		shift = models.Day(now).Sub(latest)
	}

	created := time.Now().UTC()
	txs := make([]*models.Transaction, 0, len(samples))
	for i, s := range samples {
		txs = append(txs, &models.Transaction{
			ID:            uuid.New(),
			UserID:        userID,
			Vendor:        s.Vendor,
			Category:      s.Category,
			Amount:        s.Amount,
			Currency:      models.DefaultCurrency,
			Date:          dates[i].Add(shift),
			Kind:          s.Kind,
			PaymentMethod: s.PaymentMethod,
			Source:        s.Source,
			IsRecurring:   s.IsRecurring,
			IsUnused:      s.IsUnused,
			CreatedAt:     created,
			UpdatedAt:     created,
		})
	}
	return txs, nil
}
