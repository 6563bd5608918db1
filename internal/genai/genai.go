// Package genai provides the answer-provider adapter for free-text
// questions, backed by the xAI API through an OpenAI-compatible client.
//
// The adapter never propagates errors past its boundary: transport and
// parsing failures degrade to an absent answer, and a small set of known
// provider status codes map to specific user-facing messages.
package genai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default provider configuration.
const (
	// DefaultBaseURL is the xAI OpenAI-compatible endpoint.
	DefaultBaseURL = "https://api.x.ai/v1"
	// DefaultModel is the answer model.
	DefaultModel = "grok-3-mini"
	// DefaultRequestTimeout bounds each provider call so a slow provider
	// never hangs message processing.
	DefaultRequestTimeout = 30 * time.Second
)

// systemPrompt frames every question sent to the provider.
const systemPrompt = "Ты дружелюбный помощник в телеграм-боте компании. " +
	"Отвечай кратко и по делу на русском языке. " +
	"Если вопрос не по теме компании или продукта, вежливо ответь и предложи вернуться к кнопкам бота (О нас, Кейсы)."

// User-facing messages for known provider status codes.
const (
	msgUnauthorized   = "Неверный API-ключ xAI. Проверьте ключ в .env (XAI_API_KEY или AI_API_KEY)."
	msgPaymentNeeded  = "Недостаточно средств на счёте xAI. Пополните баланс в консоли: console.x.ai"
	msgRateLimited    = "Слишком много запросов к xAI. Подождите немного и попробуйте снова."
	msgModelNotFound  = "Модель xAI сейчас недоступна. Попробуйте позже."
)

// Opts holds configuration applied via Option values.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Option configures a Client.
type Option func(*Opts)

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel overrides the answer model.
func WithModel(model string) Option {
	return func(o *Opts) { o.Model = model }
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *Opts) { o.Timeout = d }
}

// chatService is the minimal chat-completions surface used by the Client,
// narrowed for mockability in tests.
type chatService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// The SDK's completion service has pointer-receiver methods.
var _ chatService = (*openai.ChatCompletionService)(nil)

// Client is the answer-provider adapter.
type Client struct {
	chat  chatService
	model openai.ChatModel
}

// NewClient initializes the provider client. The API key is required;
// callers that have no key simply run without a provider.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		BaseURL: DefaultBaseURL,
		Model:   DefaultModel,
		Timeout: DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("provider API key not set")
	}

	cli := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(cfg.Timeout),
	)
	slog.Debug("genai client initialized", "base_url", cfg.BaseURL, "model", cfg.Model, "timeout", cfg.Timeout)
	return &Client{chat: &cli.Chat.Completions, model: openai.ChatModel(cfg.Model)}, nil
}

// Ask sends a free-text question to the provider and returns the answer
// or a user-facing error message; both empty means "show a generic retry
// prompt". Errors are absorbed here and never returned to the dispatcher.
func (c *Client) Ask(ctx context.Context, question string) (answer string, userFacingError string) {
	resp, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(question),
		},
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			slog.Error("genai Ask provider error", "status", apierr.StatusCode, "error", err)
			switch apierr.StatusCode {
			case http.StatusUnauthorized:
				return "", msgUnauthorized
			case http.StatusPaymentRequired:
				return "", msgPaymentNeeded
			case http.StatusTooManyRequests:
				return "", msgRateLimited
			case http.StatusNotFound:
				return "", msgModelNotFound
			}
			return "", ""
		}
		slog.Error("genai Ask request failed", "error", err)
		return "", ""
	}

	if len(resp.Choices) == 0 {
		slog.Warn("genai Ask returned no choices")
		return "", ""
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), ""
}
