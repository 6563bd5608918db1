package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/gewog/LeadBot/internal/bot"
	"github.com/gewog/LeadBot/internal/genai"
	"github.com/gewog/LeadBot/internal/messaging"
	"github.com/gewog/LeadBot/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for LeadBot state data
	DefaultStateDir = "/var/lib/leadbot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "leadbot.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	if *flags.token == "" {
		slog.Error("Telegram bot token is required (set TELEGRAM_BOT_TOKEN or pass -telegram-token)")
		os.Exit(1)
	}
	if *flags.adminID == 0 {
		slog.Error("Admin ID is required (set ADMIN_ID or ADMIN_ID_SECRET, or pass -admin-id)")
		os.Exit(1)
	}

	// Build module options
	msgOpts := buildMessagingOptions(flags)
	genaiOpts := buildGenAIOptions(flags)
	botOpts := buildBotOptions(flags)

	// Start the service
	slog.Info("Bootstrapping LeadBot with configured modules")
	slog.Debug("Module options counts", "messaging", len(msgOpts), "genai", len(genaiOpts), "bot", len(botOpts))
	if err := bot.Run(msgOpts, genaiOpts, botOpts...); err != nil {
		slog.Error("LeadBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("LeadBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	Token       string
	AdminID     int64
	XAIKey      string
	DatabaseURL string
	StateDir    string
	PollTimeout int
	SkipPending bool
	Debug       bool
}

// Flags holds command line flag values
type Flags struct {
	token       *string
	adminID     *int64
	xaiKey      *string
	dbDSN       *string
	stateDir    *string
	pollTimeout *int
	skipPending *bool
	debug       *bool
}

// initializeLogger sets up structured logging; LEADBOT_DEBUG enables debug level
func initializeLogger() {
	level := slog.LevelInfo
	if util.ParseBoolEnv("LEADBOT_DEBUG", false) {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		Token:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminID:     loadAdminID(),
		XAIKey:      os.Getenv("XAI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StateDir:    os.Getenv("LEADBOT_STATE_DIR"),
		PollTimeout: util.ParseIntEnv("LEADBOT_POLL_TIMEOUT", messaging.DefaultPollTimeoutSeconds),
		SkipPending: util.ParseBoolEnv("LEADBOT_SKIP_PENDING", true),
		Debug:       util.ParseBoolEnv("LEADBOT_DEBUG", false),
	}

	// Fall back to the alternate key name used by some deployments
	if config.XAIKey == "" {
		config.XAIKey = os.Getenv("AI_API_KEY")
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No LEADBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	slog.Debug("environment variables loaded",
		"TELEGRAM_BOT_TOKEN_SET", config.Token != "",
		"ADMIN_ID_SET", config.AdminID != 0,
		"XAI_API_KEY_SET", config.XAIKey != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"LEADBOT_STATE_DIR", config.StateDir)

	return config
}

// loadAdminID reads the admin's Telegram user ID from ADMIN_ID, falling
// back to ADMIN_ID_SECRET. Returns 0 when neither parses.
func loadAdminID() int64 {
	for _, key := range []string{"ADMIN_ID", "ADMIN_ID_SECRET"} {
		val := os.Getenv(key)
		if val == "" {
			continue
		}
		id, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			slog.Warn("invalid admin ID value", "key", key, "value", val)
			continue
		}
		return id
	}
	return 0
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		token:       flag.String("telegram-token", config.Token, "Telegram bot token (overrides $TELEGRAM_BOT_TOKEN)"),
		adminID:     flag.Int64("admin-id", config.AdminID, "Telegram user ID of the administrator (overrides $ADMIN_ID)"),
		xaiKey:      flag.String("xai-api-key", config.XAIKey, "xAI API key for free-text answers (overrides $XAI_API_KEY)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN: PostgreSQL URL or SQLite file path (overrides $DATABASE_URL)"),
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for LeadBot data (overrides $LEADBOT_STATE_DIR)"),
		pollTimeout: flag.Int("poll-timeout", config.PollTimeout, "long-poll timeout in seconds (overrides $LEADBOT_POLL_TIMEOUT)"),
		skipPending: flag.Bool("skip-pending", config.SkipPending, "discard updates received while offline (overrides $LEADBOT_SKIP_PENDING)"),
		debug:       flag.Bool("debug", config.Debug, "enable verbose client logging (overrides $LEADBOT_DEBUG)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"tokenSet", *flags.token != "",
		"adminID", *flags.adminID,
		"xaiKeySet", *flags.xaiKey != "",
		"dbDSN_set", *flags.dbDSN != "",
		"stateDir", *flags.stateDir,
		"pollTimeout", *flags.pollTimeout,
		"skipPending", *flags.skipPending)

	return flags
}

// buildMessagingOptions constructs Telegram configuration options
func buildMessagingOptions(flags Flags) []messaging.TelegramOption {
	msgOpts := []messaging.TelegramOption{
		messaging.WithToken(*flags.token),
		messaging.WithPollTimeout(*flags.pollTimeout),
		messaging.WithSkipPending(*flags.skipPending),
	}
	if *flags.debug {
		msgOpts = append(msgOpts, messaging.WithDebug(true))
	}
	return msgOpts
}

// buildGenAIOptions constructs answer-provider options; an empty slice
// means the bot runs without a provider.
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.xaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.xaiKey))
	}
	return genaiOpts
}

// buildBotOptions constructs bot process options
func buildBotOptions(flags Flags) []bot.Option {
	botOpts := []bot.Option{
		bot.WithAdminID(*flags.adminID),
		bot.WithStateDir(*flags.stateDir),
	}
	if *flags.dbDSN != "" {
		botOpts = append(botOpts, bot.WithDatabaseDSN(*flags.dbDSN))
	}
	return botOpts
}
