package main

import (
	"log"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	// Minimal connectivity check: authenticate against the Bot API and
	// print the bot identity. The real entry point is cmd/leadbot.
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatalf("Failed to authenticate bot: %v", err)
	}

	log.Printf("Authenticated as @%s (id %d)", bot.Self.UserName, bot.Self.ID)
}
