package main

import (
	"testing"
	"time"

	"pfms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleBatchKeepsDates(t *testing.T) {
	txs, err := sampleBatch("demo-user", time.Time{})
	require.NoError(t, err)
	require.Len(t, txs, 29)

	first := txs[0]
	assert.Equal(t, "Salary Deposit", first.Vendor)
	assert.Equal(t, models.KindIncome, first.Kind)
	assert.Equal(t, "2024-01-01", first.Date.Format(models.DateLayout))

	var gmail, recurring int
	for _, tx := range txs {
		assert.Equal(t, "demo-user", tx.UserID)
		assert.True(t, tx.Kind.Valid())
		if tx.Source == models.SourceGmail {
			gmail++
		}
		if tx.IsRecurring {
			recurring++
		}
	}
	assert.Equal(t, 23, gmail)
	assert.Equal(t, 6, recurring)
}

func TestSampleBatchRebases(t *testing.T) {
	now := time.Date(2024, time.March, 31, 15, 4, 0, 0, time.UTC)
	txs, err := sampleBatch("u", now)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-31", txs[len(txs)-1].Date.Format(models.DateLayout))
	assert.Equal(t, "2024-03-02", txs[0].Date.Format(models.DateLayout))
}
