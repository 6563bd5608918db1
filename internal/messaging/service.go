// Package messaging provides the chat-platform boundary for LeadBot.
//
// It defines a pluggable delivery abstraction over the platform client:
// sending messages and keyboards, the typing indicator, and a channel of
// inbound events.
package messaging

import (
	"context"
	"time"

	"github.com/gewog/LeadBot/internal/models"
)

// Constants for messaging service configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the inbound message channel
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout defines the default timeout for non-blocking channel operations
	DefaultChannelTimeout = 1 * time.Second
)

// Service defines a pluggable chat-platform abstraction.
// It supports sending messages and keyboards, and provides a channel of
// inbound message events.
type Service interface {
	// Start begins background processing (e.g., long polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Messages returns a channel of inbound message events.
	Messages() <-chan models.IncomingMessage

	// SendMessage sends a plain-text message.
	SendMessage(ctx context.Context, chatID int64, body string) error

	// SendMarkdown sends a Markdown-styled message.
	SendMarkdown(ctx context.Context, chatID int64, body string) error

	// SendTyping shows the "typing" indicator in the chat.
	SendTyping(ctx context.Context, chatID int64) error

	// SendMainMenu sends a message together with the main reply keyboard:
	// two labeled buttons, plus the stats button when admin is true.
	SendMainMenu(ctx context.Context, chatID int64, body string, admin bool) error

	// SendContactPrompt sends a message with a one-time keyboard holding a
	// single share-contact control.
	SendContactPrompt(ctx context.Context, chatID int64, body string) error
}
