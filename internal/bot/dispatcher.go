// Package bot wires the store, aggregator, messaging service and answer
// provider into the message-routing dispatcher and the process lifecycle.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/gewog/LeadBot/internal/messaging"
	"github.com/gewog/LeadBot/internal/models"
	"github.com/gewog/LeadBot/internal/stats"
	"github.com/gewog/LeadBot/internal/store"
)

// minPhoneDigits is the digit threshold for treating free text as a phone
// number.
const minPhoneDigits = 10

// Answerer produces answers for free-text questions. The provider absorbs
// its own failures: an empty answer with an empty user-facing message means
// "show a generic retry prompt".
type Answerer interface {
	Ask(ctx context.Context, question string) (answer string, userFacingError string)
}

// Dispatcher routes inbound messages to handlers. Routing order: command,
// contact share, exact button labels, phone-like text, then free text.
type Dispatcher struct {
	store    store.Store
	agg      *stats.Aggregator
	msg      messaging.Service
	answerer Answerer
	adminID  int64
}

// NewDispatcher creates a Dispatcher. answerer may be nil; free text then
// gets the fixed fallback reply.
func NewDispatcher(st store.Store, agg *stats.Aggregator, msg messaging.Service, answerer Answerer, adminID int64) *Dispatcher {
	return &Dispatcher{store: st, agg: agg, msg: msg, answerer: answerer, adminID: adminID}
}

// Dispatch routes one inbound message. Send errors are returned; tracking
// errors are logged and the reply is still sent so a storage hiccup never
// silences the bot.
func (d *Dispatcher) Dispatch(ctx context.Context, msg models.IncomingMessage) error {
	switch msg.Command {
	case "start":
		return d.handleStart(ctx, msg)
	case "stats":
		return d.handleStatsCommand(ctx, msg)
	}

	if msg.Contact != nil {
		return d.handleContact(ctx, msg)
	}

	text := strings.TrimSpace(msg.Text)
	switch text {
	case models.ButtonAboutLabel:
		return d.handleAbout(ctx, msg)
	case models.ButtonCasesLabel:
		return d.handleCases(ctx, msg)
	case models.ButtonStatsLabel:
		return d.handleStatsButton(ctx, msg)
	}

	if IsPhoneNumber(text) {
		return d.handleTypedPhone(ctx, msg, text)
	}
	return d.handleFreeText(ctx, msg)
}

func (d *Dispatcher) handleStart(ctx context.Context, msg models.IncomingMessage) error {
	d.track(msg, models.ButtonOther)
	return d.msg.SendMainMenu(ctx, msg.ChatID, welcomeText, d.isAdmin(msg))
}

// handleStatsCommand shows the all-time summary. Not tracked as an
// interaction.
func (d *Dispatcher) handleStatsCommand(ctx context.Context, msg models.IncomingMessage) error {
	sum, err := d.agg.AllTimeStats()
	if err != nil {
		return fmt.Errorf("failed to load all-time stats: %w", err)
	}
	body := fmt.Sprintf(allTimeStatsTemplate, sum.Users, sum.AboutClicks, sum.CasesClicks, sum.TotalMessages)
	return d.msg.SendMarkdown(ctx, msg.ChatID, body)
}

func (d *Dispatcher) handleAbout(ctx context.Context, msg models.IncomingMessage) error {
	d.track(msg, models.ButtonAbout)
	return d.msg.SendMarkdown(ctx, msg.ChatID, aboutText)
}

func (d *Dispatcher) handleCases(ctx context.Context, msg models.IncomingMessage) error {
	d.track(msg, models.ButtonCases)
	if err := d.msg.SendMarkdown(ctx, msg.ChatID, casesText); err != nil {
		return err
	}
	return d.msg.SendContactPrompt(ctx, msg.ChatID, phonePromptText)
}

// handleStatsButton re-verifies the sender even though only admins see the
// button: labels are plain text and anyone can type them.
func (d *Dispatcher) handleStatsButton(ctx context.Context, msg models.IncomingMessage) error {
	d.track(msg, models.ButtonOther)
	if !d.isAdmin(msg) {
		slog.Warn("Dispatcher stats button denied", "user_id", msg.From.ID)
		return d.msg.SendMessage(ctx, msg.ChatID, statsDeniedText)
	}
	sum, err := d.agg.WindowStats(stats.DefaultWindowDays)
	if err != nil {
		return fmt.Errorf("failed to load window stats: %w", err)
	}
	body := fmt.Sprintf(windowStatsTemplate, sum.Users, sum.AboutClicks, sum.CasesClicks, sum.TotalMessages)
	return d.msg.SendMarkdown(ctx, msg.ChatID, body)
}

// handleContact processes a shared contact. A contact without a phone
// number is ignored entirely.
func (d *Dispatcher) handleContact(ctx context.Context, msg models.IncomingMessage) error {
	if msg.Contact.PhoneNumber == "" {
		slog.Debug("Dispatcher ignoring contact without phone", "user_id", msg.From.ID)
		return nil
	}
	return d.saveLead(ctx, msg, msg.Contact.PhoneNumber, menuAfterContactText)
}

// handleTypedPhone processes free text that looks like a phone number. The
// trimmed text is stored as the phone, matching what the user typed.
func (d *Dispatcher) handleTypedPhone(ctx context.Context, msg models.IncomingMessage, phone string) error {
	return d.saveLead(ctx, msg, phone, menuAfterPhoneText)
}

// saveLead stores an application, notifies the admin, thanks the user and
// restores the main keyboard.
func (d *Dispatcher) saveLead(ctx context.Context, msg models.IncomingMessage, phone, menuText string) error {
	app := models.Application{
		UserID:    msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Phone:     phone,
		CreatedAt: msg.Time,
	}
	if err := d.store.AddApplication(app); err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	slog.Info("Dispatcher saved lead application", "user_id", msg.From.ID)

	if err := d.notifyAdmin(ctx, app); err != nil {
		// The lead is already stored; the user flow continues.
		slog.Error("Dispatcher failed to notify admin", "error", err, "user_id", msg.From.ID)
	}

	if err := d.msg.SendMessage(ctx, msg.ChatID, thankYouText); err != nil {
		return err
	}
	return d.msg.SendMainMenu(ctx, msg.ChatID, menuText, d.isAdmin(msg))
}

func (d *Dispatcher) notifyAdmin(ctx context.Context, app models.Application) error {
	body := fmt.Sprintf(leadNotificationTemplate,
		app.UserID,
		orPlaceholder(app.FirstName, "не указано"),
		orPlaceholder(app.LastName, "не указано"),
		orPlaceholder(app.Username, "не указан"),
		app.Phone,
		models.FormatTime(app.CreatedAt),
	)
	return d.msg.SendMarkdown(ctx, d.adminID, body)
}

// orPlaceholder substitutes a placeholder for empty profile fields in the
// admin notification.
func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// handleFreeText answers arbitrary text through the provider when one is
// configured, with the fixed fallback otherwise.
func (d *Dispatcher) handleFreeText(ctx context.Context, msg models.IncomingMessage) error {
	d.track(msg, models.ButtonOther)

	if d.answerer == nil {
		return d.msg.SendMessage(ctx, msg.ChatID, didNotUnderstandText)
	}

	if err := d.msg.SendTyping(ctx, msg.ChatID); err != nil {
		slog.Debug("Dispatcher typing indicator failed", "error", err)
	}

	answer, userErr := d.answerer.Ask(ctx, msg.Text)
	if answer != "" {
		return d.msg.SendMessage(ctx, msg.ChatID, truncateAnswer(answer))
	}
	if userErr == "" {
		userErr = genericRetryText
	}
	return d.msg.SendMessage(ctx, msg.ChatID, userErr)
}

// track records the interaction, logging failures without aborting the
// reply.
func (d *Dispatcher) track(msg models.IncomingMessage, button models.ButtonKind) {
	user := models.User{
		ID:        msg.From.ID,
		Username:  msg.From.Username,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
	}
	if err := d.store.RecordInteraction(user, button, msg.Time); err != nil {
		slog.Error("Dispatcher failed to record interaction", "error", err, "user_id", msg.From.ID, "button", button)
	}
}

func (d *Dispatcher) isAdmin(msg models.IncomingMessage) bool {
	return msg.From.ID == d.adminID
}

// IsPhoneNumber reports whether text looks like a phone number: at least
// minPhoneDigits digits once spaces, dashes, parentheses and the plus sign
// are stripped.
func IsPhoneNumber(text string) bool {
	digits := 0
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// truncateAnswer caps provider answers at the outbound message ceiling,
// counting runes so multibyte text is never split mid-character.
func truncateAnswer(answer string) string {
	runes := []rune(answer)
	if len(runes) <= models.MaxMessageLength {
		return answer
	}
	keep := models.MaxMessageLength - len(models.TruncationMarker)
	return string(runes[:keep]) + models.TruncationMarker
}
