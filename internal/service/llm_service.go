package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pfms/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelGateway sends one prompt to a completion service and returns the
// raw reply text.
type ModelGateway interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// UpstreamError is a failed completion call. Transient marks failures worth
// retrying: 5xx, 429, transport errors and timeouts.
type UpstreamError struct {
	StatusCode int
	Transient  bool
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", ErrUpstream, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrUpstream, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func transportError(err error) *UpstreamError {
	return &UpstreamError{Transient: true, Err: err}
}

// OpenRouterGateway talks to an OpenAI-compatible chat completions API.
type OpenRouterGateway struct {
	httpClient  *http.Client
	apiKey      string
	model       string
	baseURL     string
	referrer    string
	temperature float64
	logger      *zap.Logger
}

func NewOpenRouterGateway(cfg *config.LLMConfig, logger *zap.Logger) *OpenRouterGateway {
	return &OpenRouterGateway{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		baseURL:     cfg.BaseURL,
		referrer:    cfg.Referrer,
		temperature: cfg.Temperature,
		logger:      logger.Named("openrouter"),
	}
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (g *OpenRouterGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY is not set", ErrConfiguration)
	}

	body, err := json.Marshal(completionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("HTTP-Referer", g.referrer)
	req.Header.Set("X-Title", "PFMS Backend")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{
			StatusCode: resp.StatusCode,
			Transient:  resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests,
			Err:        errors.New(truncate(string(respBody), 512)),
		}
	}

	var completion completionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	// An empty choices list is an empty reply, not a failure.
	if len(completion.Choices) == 0 {
		g.logger.Warn("Completion returned no choices", zap.String("model", g.model))
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// GigaChatGateway sends completions through the GigaChat SDK.
type GigaChatGateway struct {
	client      *gigago.Client
	modelName   string
	temperature float64
	logger      *zap.Logger
}

// NewGigaChatGateway connects when an API key is configured. Without one
// the gateway still builds and every Complete fails with ErrConfiguration.
func NewGigaChatGateway(ctx context.Context, cfg *config.GigaChatConfig, temperature float64, logger *zap.Logger) (*GigaChatGateway, error) {
	g := &GigaChatGateway{
		modelName:   "GigaChat",
		temperature: temperature,
		logger:      logger.Named("gigachat"),
	}
	if cfg.APIKey == "" {
		return g, nil
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		g.logger.Warn("GigaChat TLS certificate verification is disabled")
	}
	if cfg.OAuthURL != "" {
		opts = append(opts, gigago.WithCustomURLOauth(cfg.OAuthURL))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, gigago.WithCustomURLAI(cfg.BaseURL))
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}
	g.client = client
	return g, nil
}

func setTemperature[T ~float32 | ~float64](dst *T, v float64) {
	*dst = T(v)
}

func (g *GigaChatGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("%w: GIGACHAT_API_KEY is not set", ErrConfiguration)
	}

	// A model per call: SystemInstruction is per conversation.
	model := g.client.GenerativeModel(g.modelName)
	setTemperature(&model.Temperature, g.temperature)

	var turn []gigago.Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			model.SystemInstruction = m.Content
			continue
		}
		role := gigago.RoleUser
		if m.Role == RoleAssistant {
			role = gigago.RoleAssistant
		}
		turn = append(turn, gigago.Message{Role: role, Content: m.Content})
	}

	resp, err := model.Generate(ctx, turn)
	if err != nil {
		return "", gigachatError(fmt.Errorf("failed to generate response: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

var gigachatStatus = regexp.MustCompile(`unexpected status (\d{3})`)

// gigachatError classifies SDK failures. The SDK reports HTTP failures only
// as text, so the status is recovered from the message.
func gigachatError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return transportError(err)
	}
	if m := gigachatStatus.FindStringSubmatch(err.Error()); m != nil {
		code, _ := strconv.Atoi(m[1])
		return &UpstreamError{
			StatusCode: code,
			Transient:  code >= 500 || code == http.StatusTooManyRequests,
			Err:        err,
		}
	}
	msg := err.Error()
	if strings.Contains(msg, "invalid model parameters") || strings.Contains(msg, "empty message") {
		return &UpstreamError{Err: err}
	}
	return transportError(err)
}

func (g *GigaChatGateway) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

// RetryOptions bounds ResilientGateway retries.
type RetryOptions struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// ResilientGateway adds a per-attempt timeout, a shared rate limit and
// jittered retries of transient failures to another gateway.
type ResilientGateway struct {
	next    ModelGateway
	timeout time.Duration
	limiter *rate.Limiter
	retry   RetryOptions
	logger  *zap.Logger
}

func NewResilientGateway(next ModelGateway, cfg *config.LLMConfig, logger *zap.Logger) *ResilientGateway {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(float64(cfg.RequestsPerMinute) / 60)
	}
	return &ResilientGateway{
		next:    next,
		timeout: cfg.Timeout,
		limiter: rate.NewLimiter(limit, 1),
		retry: RetryOptions{
			MaxRetries:   cfg.MaxRetries,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		logger: logger.Named("gateway"),
	}
}

func (g *ResilientGateway) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	delay := g.retry.InitialDelay

	for attempt := 0; ; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", transportError(fmt.Errorf("rate limit wait: %w", err))
		}

		reply, err := g.attempt(ctx, messages)
		if err == nil {
			return reply, nil
		}
		if attempt >= g.retry.MaxRetries || !isTransient(err) || ctx.Err() != nil {
			return "", err
		}

		wait := jitter(delay)
		g.logger.Warn("Completion failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return "", transportError(ctx.Err())
		case <-time.After(wait):
		}

		delay *= 2
		if delay > g.retry.MaxDelay {
			delay = g.retry.MaxDelay
		}
	}
}

func (g *ResilientGateway) attempt(ctx context.Context, messages []ChatMessage) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	reply, err := g.next.Complete(ctx, messages)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrUpstream) {
		return "", transportError(err)
	}
	return reply, err
}

func isTransient(err error) bool {
	if errors.Is(err, ErrConfiguration) {
		return false
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Transient
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// jitter picks a delay in [d/2, d].
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
