package messaging

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gewog/LeadBot/internal/models"
)

func TestToIncomingMessageNil(t *testing.T) {
	if _, ok := toIncomingMessage(nil); ok {
		t.Error("nil message should be skipped")
	}
	if _, ok := toIncomingMessage(&tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}); ok {
		t.Error("message without a sender should be skipped")
	}
}

func TestToIncomingMessageText(t *testing.T) {
	sent := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	m := &tgbotapi.Message{
		Chat: &tgbotapi.Chat{ID: 42},
		From: &tgbotapi.User{ID: 7, UserName: "ivan", FirstName: "Иван", LastName: "Петров"},
		Text: "Кейсы",
		Date: int(sent.Unix()),
	}

	got, ok := toIncomingMessage(m)
	if !ok {
		t.Fatal("expected message to convert")
	}
	want := models.IncomingMessage{
		ChatID: 42,
		From:   models.Sender{ID: 7, Username: "ivan", FirstName: "Иван", LastName: "Петров"},
		Text:   "Кейсы",
		Time:   sent,
	}
	if got.ChatID != want.ChatID || got.From != want.From || got.Text != want.Text {
		t.Errorf("converted message = %+v, want %+v", got, want)
	}
	if !got.Time.Equal(sent) {
		t.Errorf("time = %v, want %v", got.Time, sent)
	}
	if got.Command != "" || got.Contact != nil {
		t.Errorf("plain text should carry no command or contact: %+v", got)
	}
}

func TestToIncomingMessageCommand(t *testing.T) {
	m := &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 42},
		From:     &tgbotapi.User{ID: 7},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}

	got, ok := toIncomingMessage(m)
	if !ok {
		t.Fatal("expected message to convert")
	}
	if got.Command != "start" {
		t.Errorf("command = %q, want %q", got.Command, "start")
	}
}

func TestToIncomingMessageContact(t *testing.T) {
	m := &tgbotapi.Message{
		Chat:    &tgbotapi.Chat{ID: 42},
		From:    &tgbotapi.User{ID: 7},
		Contact: &tgbotapi.Contact{PhoneNumber: "+79161234567"},
	}

	got, ok := toIncomingMessage(m)
	if !ok {
		t.Fatal("expected message to convert")
	}
	if got.Contact == nil || got.Contact.PhoneNumber != "+79161234567" {
		t.Errorf("contact = %+v, want phone +79161234567", got.Contact)
	}
}

func TestMockServiceRecordsSends(t *testing.T) {
	mock := NewMockService()
	ctx := context.Background()

	if err := mock.SendMainMenu(ctx, 1, "привет", true); err != nil {
		t.Fatalf("SendMainMenu failed: %v", err)
	}
	if err := mock.SendContactPrompt(ctx, 1, "поделитесь контактом"); err != nil {
		t.Fatalf("SendContactPrompt failed: %v", err)
	}

	sent := mock.Sent()
	if len(sent) != 2 {
		t.Fatalf("recorded %d sends, want 2", len(sent))
	}
	if sent[0].Kind != SendKindMainMenu || !sent[0].Admin {
		t.Errorf("first send = %+v, want admin main menu", sent[0])
	}
	if sent[1].Kind != SendKindContactPrompt {
		t.Errorf("second send = %+v, want contact prompt", sent[1])
	}
}
