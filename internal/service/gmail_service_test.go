package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"pfms/internal/models"
	"pfms/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

type fakeMailbox struct {
	messages []MailMessage
	err      error
	query    string
	limit    int
}

func (m *fakeMailbox) Search(_ context.Context, query string, limit int) ([]MailMessage, error) {
	m.query = query
	m.limit = limit
	return m.messages, m.err
}

func newGmailService(t *testing.T, f *fixture, mailbox *fakeMailbox) *GmailService {
	t.Helper()
	svc := NewGmailService(&config.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8000/api/gmail/callback",
		GmailQuery:   "subject:(receipt OR payment OR invoice) newer_than:30d",
		MaxMessages:  20,
	}, f.store.Users(), f.transactions, f.store.Transactions(), zap.NewNop())
	svc.openMailbox = func(context.Context, oauth2.TokenSource) (Mailbox, error) { return mailbox, nil }
	return svc
}

func linkGmail(t *testing.T, f *fixture) {
	t.Helper()
	raw, err := json.Marshal(&oauth2.Token{AccessToken: "access", RefreshToken: "refresh"})
	require.NoError(t, err)
	require.NoError(t, f.store.Users().SaveGoogleToken(context.Background(), testUser, raw))
}

func TestGmailAuthURL(t *testing.T) {
	f := newFixture(t)
	raw, err := newGmailService(t, f, &fakeMailbox{}).AuthURL("state-1")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "https://www.googleapis.com/auth/gmail.readonly", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
}

func TestGmailNotConfigured(t *testing.T) {
	f := newFixture(t)
	svc := NewGmailService(&config.GoogleConfig{}, f.store.Users(), f.transactions, f.store.Transactions(), zap.NewNop())

	_, err := svc.AuthURL("x")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
	assert.ErrorIs(t, svc.Exchange(context.Background(), testUser, "code"), ErrOAuthNotConfigured)
}

func TestGmailExchangeNeedsCode(t *testing.T) {
	f := newFixture(t)
	err := newGmailService(t, f, &fakeMailbox{}).Exchange(context.Background(), testUser, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGmailSyncNotLinked(t *testing.T) {
	f := newFixture(t)
	svc := newGmailService(t, f, &fakeMailbox{})

	_, err := svc.Sync(context.Background(), testUser)
	assert.ErrorIs(t, err, ErrGmailNotLinked)

	f.store.Users().PutUser(&models.User{UserID: testUser, Tier: models.TierBronze})
	_, err = svc.Sync(context.Background(), testUser)
	assert.ErrorIs(t, err, ErrGmailNotLinked)
}

func TestGmailSync(t *testing.T) {
	f := newFixture(t)
	linkGmail(t, f)
	received := time.Date(2024, time.March, 28, 22, 10, 0, 0, time.UTC)
	mailbox := &fakeMailbox{messages: []MailMessage{
		{ID: "1", From: "Swiggy <noreply@swiggy.in>", Subject: "Your order receipt", Snippet: "Total paid ₹1,249.00 via UPI", InternalDate: received},
		{ID: "2", From: "alerts@mail.hdfcbank.net", Subject: "Payment received", Snippet: "Rs. 500 credited to your account", InternalDate: received},
		{ID: "3", From: "news@shop.com", Subject: "Invoice ready", Snippet: "See attached", InternalDate: received},
	}}

	result, err := newGmailService(t, f, mailbox).Sync(context.Background(), testUser)
	require.NoError(t, err)

	assert.Equal(t, "subject:(receipt OR payment OR invoice) newer_than:30d", mailbox.query)
	assert.Equal(t, 20, mailbox.limit)
	assert.Equal(t, 3, result.Scanned)
	require.Equal(t, 2, result.Inserted)

	swiggy := result.Transactions[0]
	assert.Equal(t, "Swiggy", swiggy.Vendor)
	assert.True(t, decimal.RequireFromString("1249").Equal(swiggy.Amount))
	assert.Equal(t, "INR", swiggy.Currency)
	assert.Equal(t, models.KindExpense, swiggy.Kind)
	assert.Equal(t, models.SourceGmail, swiggy.Source)
	assert.Equal(t, models.Day(received), swiggy.Date)
	assert.Equal(t, "1", swiggy.SourceRef)

	bank := result.Transactions[1]
	assert.Equal(t, "Hdfcbank", bank.Vendor)
	assert.Equal(t, models.KindIncome, bank.Kind)

	assert.Len(t, f.active(t), 2)
}

func TestGmailSyncSkipsImportedMessages(t *testing.T) {
	f := newFixture(t)
	linkGmail(t, f)
	received := time.Date(2024, time.March, 28, 9, 0, 0, 0, time.UTC)
	receipt := MailMessage{ID: "m-1", From: "Zomato <orders@zomato.com>", Subject: "Order receipt", Snippet: "Paid ₹320", InternalDate: received}
	mailbox := &fakeMailbox{messages: []MailMessage{receipt, receipt}}
	svc := newGmailService(t, f, mailbox)

	first, err := svc.Sync(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Inserted)

	mailbox.messages = append(mailbox.messages, MailMessage{
		ID: "m-2", From: "Uber <receipts@uber.com>", Subject: "Trip receipt", Snippet: "Total ₹210", InternalDate: received,
	})
	second, err := svc.Sync(context.Background(), testUser)
	require.NoError(t, err)
	assert.Equal(t, 3, second.Scanned)
	require.Equal(t, 1, second.Inserted)
	assert.Equal(t, "m-2", second.Transactions[0].SourceRef)

	assert.Len(t, f.active(t), 2)
}

func TestGmailSyncMailboxError(t *testing.T) {
	f := newFixture(t)
	linkGmail(t, f)

	_, err := newGmailService(t, f, &fakeMailbox{err: errors.New("quota exceeded")}).Sync(context.Background(), testUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Empty(t, f.active(t))
}

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		text     string
		amount   string
		currency string
	}{
		{"Paid ₹1,299.00 to Zomato", "1299", "INR"},
		{"Debited Rs.450 from a/c", "450", "INR"},
		{"Amount INR 75.5", "75.5", "INR"},
		{"Charged $12.99 for Spotify", "12.99", "USD"},
		{"Total: 12.50 USD", "12.5", "USD"},
		{"€9 monthly", "9", "EUR"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			amount, currency, ok := ExtractAmount(tt.text)
			require.True(t, ok)
			assert.True(t, decimal.RequireFromString(tt.amount).Equal(amount), "got %s", amount)
			assert.Equal(t, tt.currency, currency)
		})
	}

	for _, text := range []string{"Your statement is ready", "Open for 24 hours 5 days", "Rs. 0"} {
		_, _, ok := ExtractAmount(text)
		assert.False(t, ok, text)
	}
}

func TestSenderName(t *testing.T) {
	assert.Equal(t, "Amazon.in", SenderName("Amazon.in <auto-confirm@amazon.in>"))
	assert.Equal(t, "Uber", SenderName("noreply@uber.com"))
	assert.Equal(t, "Hdfcbank", SenderName("alerts@mail.hdfcbank.net"))
	assert.Equal(t, "not an address", SenderName("not an address"))
}
