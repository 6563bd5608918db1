package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gewog/LeadBot/internal/models"
)

// DefaultPollTimeoutSeconds is the long-poll timeout passed to getUpdates.
const DefaultPollTimeoutSeconds = 30

// TelegramOpts holds configuration applied via TelegramOption values.
type TelegramOpts struct {
	Token              string
	PollTimeoutSeconds int
	SkipPending        bool
	Debug              bool
}

// TelegramOption configures a TelegramService.
type TelegramOption func(*TelegramOpts)

// WithToken sets the bot token.
func WithToken(token string) TelegramOption {
	return func(o *TelegramOpts) { o.Token = token }
}

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) TelegramOption {
	return func(o *TelegramOpts) { o.PollTimeoutSeconds = seconds }
}

// WithSkipPending discards updates queued while the bot was offline
// instead of replaying them on startup.
func WithSkipPending(skip bool) TelegramOption {
	return func(o *TelegramOpts) { o.SkipPending = skip }
}

// WithDebug enables verbose client logging.
func WithDebug(debug bool) TelegramOption {
	return func(o *TelegramOpts) { o.Debug = debug }
}

// TelegramService implements Service over the Telegram Bot API using
// long polling.
type TelegramService struct {
	bot         *tgbotapi.BotAPI
	pollTimeout int
	skipPending bool
	messages    chan models.IncomingMessage
}

// NewTelegramService creates and authenticates the Telegram client.
func NewTelegramService(opts ...TelegramOption) (*TelegramService, error) {
	cfg := TelegramOpts{
		PollTimeoutSeconds: DefaultPollTimeoutSeconds,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram bot token not set")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate telegram bot: %w", err)
	}
	bot.Debug = cfg.Debug

	slog.Info("TelegramService authenticated", "bot_username", bot.Self.UserName)
	return &TelegramService{
		bot:         bot,
		pollTimeout: cfg.PollTimeoutSeconds,
		skipPending: cfg.SkipPending,
		messages:    make(chan models.IncomingMessage, DefaultChannelBufferSize),
	}, nil
}

// Start begins long polling for updates. Inbound messages are converted
// to the platform-neutral form and delivered on the Messages channel.
func (s *TelegramService) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = s.pollTimeout

	if s.skipPending {
		offset, err := s.latestUpdateOffset()
		if err != nil {
			return fmt.Errorf("failed to skip pending updates: %w", err)
		}
		u.Offset = offset
	}

	updates := s.bot.GetUpdatesChan(u)
	go s.handleUpdates(ctx, updates)

	slog.Info("TelegramService started", "poll_timeout", s.pollTimeout, "skip_pending", s.skipPending)
	return nil
}

// latestUpdateOffset fetches the newest queued update so polling can
// start past it, discarding everything received while offline.
func (s *TelegramService) latestUpdateOffset() (int, error) {
	pending, err := s.bot.GetUpdates(tgbotapi.UpdateConfig{Offset: -1, Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	slog.Info("TelegramService discarding pending updates", "last_update_id", pending[len(pending)-1].UpdateID)
	return pending[len(pending)-1].UpdateID + 1, nil
}

func (s *TelegramService) handleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(s.messages)
	for {
		select {
		case <-ctx.Done():
			slog.Debug("TelegramService update handler stopping", "reason", ctx.Err())
			return
		case update, ok := <-updates:
			if !ok {
				slog.Debug("TelegramService updates channel closed")
				return
			}
			msg, ok := toIncomingMessage(update.Message)
			if !ok {
				continue
			}
			select {
			case s.messages <- msg:
			case <-time.After(DefaultChannelTimeout):
				slog.Warn("TelegramService dropping message, channel full", "chat_id", msg.ChatID)
			}
		}
	}
}

// toIncomingMessage converts a raw Telegram message into the
// platform-neutral inbound form. Returns false for updates that carry
// no message or no identifiable sender.
func toIncomingMessage(m *tgbotapi.Message) (models.IncomingMessage, bool) {
	if m == nil || m.From == nil {
		return models.IncomingMessage{}, false
	}
	msg := models.IncomingMessage{
		ChatID: m.Chat.ID,
		From: models.Sender{
			ID:        m.From.ID,
			Username:  m.From.UserName,
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
		},
		Text: m.Text,
		Time: m.Time().UTC(),
	}
	if m.IsCommand() {
		msg.Command = m.Command()
	}
	if m.Contact != nil {
		msg.Contact = &models.Contact{PhoneNumber: m.Contact.PhoneNumber}
	}
	return msg, true
}

// Stop stops the update poller. The inbound channel is closed by the
// handler goroutine once the poller drains.
func (s *TelegramService) Stop() error {
	s.bot.StopReceivingUpdates()
	slog.Info("TelegramService stopped")
	return nil
}

// Messages returns the channel of inbound message events.
func (s *TelegramService) Messages() <-chan models.IncomingMessage {
	return s.messages
}

// SendMessage sends a plain-text message.
func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, body string) error {
	return s.send(ctx, tgbotapi.NewMessage(chatID, body))
}

// SendMarkdown sends a Markdown-styled message.
func (s *TelegramService) SendMarkdown(ctx context.Context, chatID int64, body string) error {
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ParseMode = tgbotapi.ModeMarkdown
	return s.send(ctx, msg)
}

// SendTyping shows the "typing" chat action.
func (s *TelegramService) SendTyping(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		slog.Debug("TelegramService typing indicator failed", "error", err, "chat_id", chatID)
		return fmt.Errorf("failed to send typing action: %w", err)
	}
	return nil
}

// SendMainMenu sends a message with the persistent main keyboard.
func (s *TelegramService) SendMainMenu(ctx context.Context, chatID int64, body string, admin bool) error {
	row := []tgbotapi.KeyboardButton{
		tgbotapi.NewKeyboardButton(models.ButtonAboutLabel),
		tgbotapi.NewKeyboardButton(models.ButtonCasesLabel),
	}
	if admin {
		row = append(row, tgbotapi.NewKeyboardButton(models.ButtonStatsLabel))
	}
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(row)
	return s.send(ctx, msg)
}

// SendContactPrompt sends a message with a one-time share-contact keyboard.
func (s *TelegramService) SendContactPrompt(ctx context.Context, chatID int64, body string) error {
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = tgbotapi.NewOneTimeReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact(models.ContactButtonLabel),
		),
	)
	return s.send(ctx, msg)
}

func (s *TelegramService) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.bot.Send(msg); err != nil {
		slog.Error("TelegramService send failed", "error", err, "chat_id", msg.ChatID)
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	slog.Debug("TelegramService message sent", "chat_id", msg.ChatID, "length", len(msg.Text))
	return nil
}
