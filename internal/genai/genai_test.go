package genai

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChat implements chatService with a canned response or error.
type mockChat struct {
	resp   *openai.ChatCompletion
	err    error
	gotMsg openai.ChatCompletionNewParams
}

func (m *mockChat) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.gotMsg = params
	return m.resp, m.err
}

func completionWith(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Error("expected error when API key is not set")
	}
	client, err := NewClient(WithAPIKey("xai-test"))
	if err != nil {
		t.Errorf("unexpected error with API key set: %v", err)
	}
	if client.chat == nil {
		t.Error("client constructed without a chat service")
	}
}

func TestAskSuccessTrimsAnswer(t *testing.T) {
	mock := &mockChat{resp: completionWith("  Привет!  \n")}
	c := &Client{chat: mock, model: DefaultModel}

	answer, userErr := c.Ask(context.Background(), "кто вы?")
	if answer != "Привет!" {
		t.Errorf("answer = %q, want %q", answer, "Привет!")
	}
	if userErr != "" {
		t.Errorf("unexpected user error: %q", userErr)
	}
	if len(mock.gotMsg.Messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(mock.gotMsg.Messages))
	}
}

func TestAskEmptyChoices(t *testing.T) {
	c := &Client{chat: &mockChat{resp: &openai.ChatCompletion{}}, model: DefaultModel}
	answer, userErr := c.Ask(context.Background(), "вопрос")
	if answer != "" || userErr != "" {
		t.Errorf("expected absent answer and error, got (%q, %q)", answer, userErr)
	}
}

func TestAskKnownStatusCodes(t *testing.T) {
	cases := []struct {
		status  int
		wantMsg string
	}{
		{http.StatusUnauthorized, msgUnauthorized},
		{http.StatusPaymentRequired, msgPaymentNeeded},
		{http.StatusTooManyRequests, msgRateLimited},
		{http.StatusNotFound, msgModelNotFound},
	}
	for _, tc := range cases {
		c := &Client{chat: &mockChat{err: &openai.Error{StatusCode: tc.status}}, model: DefaultModel}
		answer, userErr := c.Ask(context.Background(), "вопрос")
		if answer != "" {
			t.Errorf("status %d: unexpected answer %q", tc.status, answer)
		}
		if userErr != tc.wantMsg {
			t.Errorf("status %d: user error = %q, want %q", tc.status, userErr, tc.wantMsg)
		}
	}
}

func TestAskUnknownStatusDegradesSilently(t *testing.T) {
	c := &Client{chat: &mockChat{err: &openai.Error{StatusCode: http.StatusInternalServerError}}, model: DefaultModel}
	answer, userErr := c.Ask(context.Background(), "вопрос")
	if answer != "" || userErr != "" {
		t.Errorf("expected (absent, absent) for unknown status, got (%q, %q)", answer, userErr)
	}
}

func TestAskTransportErrorDegradesSilently(t *testing.T) {
	c := &Client{chat: &mockChat{err: errors.New("connection refused")}, model: DefaultModel}
	answer, userErr := c.Ask(context.Background(), "вопрос")
	if answer != "" || userErr != "" {
		t.Errorf("expected (absent, absent) for transport error, got (%q, %q)", answer, userErr)
	}
}
