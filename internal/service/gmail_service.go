package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"pfms/internal/models"
	"pfms/internal/repository"
	"pfms/pkg/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// MailMessage is the part of a mailbox message a receipt is read from.
type MailMessage struct {
	ID           string
	From         string
	Subject      string
	Snippet      string
	InternalDate time.Time
}

// Mailbox lists messages matching a Gmail search query.
type Mailbox interface {
	Search(ctx context.Context, query string, limit int) ([]MailMessage, error)
}

// MailboxFactory opens a mailbox authorised by ts.
type MailboxFactory func(ctx context.Context, ts oauth2.TokenSource) (Mailbox, error)

// SyncResult reports one Gmail sync.
type SyncResult struct {
	Scanned      int
	Inserted     int
	Transactions []*models.Transaction
}

var (
	amountBefore = regexp.MustCompile(`(?i)(₹|\$|€|\b(?:rs\.?|inr|usd|eur))\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)
	amountAfter  = regexp.MustCompile(`(?i)\b([0-9][0-9,]*(?:\.[0-9]+)?)\s*(inr|usd|eur)\b`)
	incomeWords  = []string{"credited", "received", "refund"}
)

type GmailService struct {
	oauth        *oauth2.Config
	query        string
	maxMessages  int
	users        UserStore
	transactions *TransactionService
	store        TransactionStore
	openMailbox  MailboxFactory
	logger       *zap.Logger
}

func NewGmailService(cfg *config.GoogleConfig, users UserStore, transactions *TransactionService, store TransactionStore, logger *zap.Logger) *GmailService {
	return &GmailService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{gmail.GmailReadonlyScope},
		},
		query:        cfg.GmailQuery,
		maxMessages:  cfg.MaxMessages,
		users:        users,
		transactions: transactions,
		store:        store,
		openMailbox:  openGmail,
		logger:       logger.Named("gmail"),
	}
}

// AuthURL returns the consent URL. Offline access yields a refresh token.
func (s *GmailService) AuthURL(state string) (string, error) {
	if s.oauth.ClientID == "" {
		return "", ErrOAuthNotConfigured
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades the callback code for a token and stores it on the user.
func (s *GmailService) Exchange(ctx context.Context, userID, code string) error {
	if s.oauth.ClientID == "" {
		return ErrOAuthNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: code is required", ErrValidation)
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := s.saveToken(ctx, userID, token); err != nil {
		return err
	}

	s.logger.Info("Gmail linked", zap.String("user_id", userID))
	return nil
}

// Sync reads recent receipt mails and stores one transaction per message
// that carries an amount. Messages imported before are skipped.
func (s *GmailService) Sync(ctx context.Context, userID string) (*SyncResult, error) {
	token, err := s.loadToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	ts := s.oauth.TokenSource(ctx, token)
	mailbox, err := s.openMailbox(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to open mailbox: %w", err)
	}

	messages, err := mailbox.Search(ctx, s.query, s.maxMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to search mailbox: %w", err)
	}

	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	seen, err := s.store.KnownSourceRefs(ctx, userID, models.SourceGmail, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to check imported messages: %w", err)
	}

	var txs []*models.Transaction
	for _, msg := range messages {
		if msg.ID != "" && seen[msg.ID] {
			continue
		}
		tx, ok := s.messageToTransaction(userID, msg)
		if !ok {
			s.logger.Debug("Skipping mail without amount", zap.String("message_id", msg.ID))
			continue
		}
		if msg.ID != "" {
			seen[msg.ID] = true
		}
		txs = append(txs, tx)
	}

	if len(txs) > 0 {
		if err := s.transactions.ApplyOverrides(ctx, userID, txs); err != nil {
			return nil, err
		}
		if err := s.store.CreateBatch(ctx, txs); err != nil {
			return nil, fmt.Errorf("failed to save transactions: %w", err)
		}
	}

	if current, err := ts.Token(); err == nil && current.AccessToken != token.AccessToken {
		if err := s.saveToken(ctx, userID, current); err != nil {
			s.logger.Warn("Failed to persist refreshed token", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.logger.Info("Gmail synced",
		zap.String("user_id", userID),
		zap.Int("scanned", len(messages)),
		zap.Int("inserted", len(txs)),
	)
	return &SyncResult{Scanned: len(messages), Inserted: len(txs), Transactions: txs}, nil
}

func (s *GmailService) loadToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGmailNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(user.GoogleToken) == 0 {
		return nil, ErrGmailNotLinked
	}

	var token oauth2.Token
	if err := json.Unmarshal(user.GoogleToken, &token); err != nil {
		return nil, fmt.Errorf("failed to decode google token: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, ErrGmailNotLinked
	}
	return &token, nil
}

func (s *GmailService) saveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode google token: %w", err)
	}
	if err := s.users.SaveGoogleToken(ctx, userID, raw); err != nil {
		return fmt.Errorf("failed to save google token: %w", err)
	}
	return nil
}

func (s *GmailService) messageToTransaction(userID string, msg MailMessage) (*models.Transaction, bool) {
	text := msg.Subject + " " + msg.Snippet
	amount, currency, ok := ExtractAmount(text)
	if !ok {
		return nil, false
	}

	tx := s.transactions.newTransaction(userID, models.SourceGmail)
	tx.Vendor = cleanText(SenderName(msg.From))
	tx.Amount = amount
	tx.Currency = currency
	tx.Date = models.Day(msg.InternalDate)
	tx.SourceRef = msg.ID
	tx.RawText = cleanText(strings.TrimSpace(text))
	if isIncomeText(text) {
		tx.Kind = models.KindIncome
	}
	if tx.Date.IsZero() {
		tx.Date = models.Day(tx.CreatedAt)
	}
	return tx, true
}

// ExtractAmount finds the first currency amount in text, such as
// "₹1,299.00", "Rs. 450" or "12.50 USD".
func ExtractAmount(text string) (decimal.Decimal, string, bool) {
	type match struct {
		at     int
		mark   string
		number string
	}
	var best *match
	if m := amountBefore.FindStringSubmatchIndex(text); m != nil {
		best = &match{at: m[0], mark: text[m[2]:m[3]], number: text[m[4]:m[5]]}
	}
	if m := amountAfter.FindStringSubmatchIndex(text); m != nil && (best == nil || m[0] < best.at) {
		best = &match{at: m[0], mark: text[m[4]:m[5]], number: text[m[2]:m[3]]}
	}
	if best == nil {
		return decimal.Zero, "", false
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(best.number, ",", ""))
	if err != nil || amount.IsZero() {
		return decimal.Zero, "", false
	}
	return amount.Round(2), currencyCode(best.mark), true
}

func currencyCode(mark string) string {
	switch strings.ToLower(strings.TrimSuffix(mark, ".")) {
	case "$", "usd":
		return "USD"
	case "€", "eur":
		return "EUR"
	default:
		return models.DefaultCurrency
	}
}

// SenderName picks a vendor from a From header: the display name, else
// the sender's domain without its top level.
func SenderName(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return strings.TrimSpace(from)
	}
	if name := strings.TrimSpace(addr.Name); name != "" {
		return name
	}

	domain := addr.Address[strings.LastIndex(addr.Address, "@")+1:]
	if i := strings.LastIndex(domain, "."); i > 0 {
		domain = domain[:i]
	}
	if i := strings.LastIndex(domain, "."); i >= 0 {
		domain = domain[i+1:]
	}
	if domain == "" {
		return addr.Address
	}
	return strings.ToUpper(domain[:1]) + domain[1:]
}

func isIncomeText(text string) bool {
	lower := strings.ToLower(text)
	for _, word := range incomeWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

type gmailMailbox struct {
	svc *gmail.Service
}

func openGmail(ctx context.Context, ts oauth2.TokenSource) (Mailbox, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, err
	}
	return &gmailMailbox{svc: svc}, nil
}

func (m *gmailMailbox) Search(ctx context.Context, query string, limit int) ([]MailMessage, error) {
	call := m.svc.Users.Messages.List("me").Q(query).Context(ctx)
	if limit > 0 {
		call = call.MaxResults(int64(limit))
	}
	list, err := call.Do()
	if err != nil {
		return nil, err
	}

	refs := list.Messages
	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}

	messages := make([]MailMessage, 0, len(refs))
	for _, ref := range refs {
		msg, err := m.svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}

		out := MailMessage{
			ID:           msg.Id,
			Snippet:      msg.Snippet,
			InternalDate: time.UnixMilli(msg.InternalDate).UTC(),
		}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch strings.ToLower(h.Name) {
				case "from":
					out.From = h.Value
				case "subject":
					out.Subject = h.Value
				}
			}
		}
		messages = append(messages, out)
	}
	return messages, nil
}
