package messaging

import (
	"context"
	"sync"

	"github.com/gewog/LeadBot/internal/models"
)

// Send kinds recorded by the mock.
const (
	SendKindText          = "text"
	SendKindMarkdown      = "markdown"
	SendKindMainMenu      = "main_menu"
	SendKindContactPrompt = "contact_prompt"
	SendKindTyping        = "typing"
)

// SentMessage records one outbound call made against the mock.
type SentMessage struct {
	ChatID int64
	Body   string
	Kind   string
	Admin  bool
}

// MockService implements Service in memory for tests.
type MockService struct {
	mu       sync.Mutex
	sent     []SentMessage
	sendErr  error
	messages chan models.IncomingMessage
	started  bool
	stopped  bool
}

// NewMockService creates a mock messaging service.
func NewMockService() *MockService {
	return &MockService{messages: make(chan models.IncomingMessage, DefaultChannelBufferSize)}
}

// Start marks the service started.
func (m *MockService) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return nil
}

// Stop marks the service stopped and closes the inbound channel.
func (m *MockService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.stopped {
		m.stopped = true
		close(m.messages)
	}
	return nil
}

// Messages returns the injectable inbound channel.
func (m *MockService) Messages() <-chan models.IncomingMessage {
	return m.messages
}

// Inject delivers an inbound message to consumers of Messages.
func (m *MockService) Inject(msg models.IncomingMessage) {
	m.messages <- msg
}

// SetSendError makes all subsequent sends fail with err.
func (m *MockService) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

func (m *MockService) record(msg SentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// SendMessage records a plain-text send.
func (m *MockService) SendMessage(ctx context.Context, chatID int64, body string) error {
	return m.record(SentMessage{ChatID: chatID, Body: body, Kind: SendKindText})
}

// SendMarkdown records a Markdown send.
func (m *MockService) SendMarkdown(ctx context.Context, chatID int64, body string) error {
	return m.record(SentMessage{ChatID: chatID, Body: body, Kind: SendKindMarkdown})
}

// SendTyping records a typing action.
func (m *MockService) SendTyping(ctx context.Context, chatID int64) error {
	return m.record(SentMessage{ChatID: chatID, Kind: SendKindTyping})
}

// SendMainMenu records a main-keyboard send.
func (m *MockService) SendMainMenu(ctx context.Context, chatID int64, body string, admin bool) error {
	return m.record(SentMessage{ChatID: chatID, Body: body, Kind: SendKindMainMenu, Admin: admin})
}

// SendContactPrompt records a contact-keyboard send.
func (m *MockService) SendContactPrompt(ctx context.Context, chatID int64, body string) error {
	return m.record(SentMessage{ChatID: chatID, Body: body, Kind: SendKindContactPrompt})
}

// Sent returns a copy of all recorded outbound calls.
func (m *MockService) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

// LastSent returns the most recent recorded call, or false when none.
func (m *MockService) LastSent() (SentMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}
