package main

import "testing"

func TestLoadAdminID(t *testing.T) {
	t.Setenv("ADMIN_ID", "")
	t.Setenv("ADMIN_ID_SECRET", "")
	if got := loadAdminID(); got != 0 {
		t.Errorf("loadAdminID() with no env = %d, want 0", got)
	}

	t.Setenv("ADMIN_ID", "123456789")
	if got := loadAdminID(); got != 123456789 {
		t.Errorf("loadAdminID() = %d, want 123456789", got)
	}

	// Fallback key is used when the primary is absent or invalid.
	t.Setenv("ADMIN_ID", "")
	t.Setenv("ADMIN_ID_SECRET", "42")
	if got := loadAdminID(); got != 42 {
		t.Errorf("loadAdminID() fallback = %d, want 42", got)
	}

	t.Setenv("ADMIN_ID", "not-a-number")
	if got := loadAdminID(); got != 42 {
		t.Errorf("loadAdminID() with invalid primary = %d, want fallback 42", got)
	}
}

func TestLoadEnvironmentConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token123")
	t.Setenv("ADMIN_ID", "7")
	t.Setenv("XAI_API_KEY", "")
	t.Setenv("AI_API_KEY", "alt-key")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LEADBOT_STATE_DIR", "")
	t.Setenv("LEADBOT_POLL_TIMEOUT", "")
	t.Setenv("LEADBOT_SKIP_PENDING", "")
	t.Setenv("LEADBOT_DEBUG", "")

	config := loadEnvironmentConfig()

	if config.Token != "token123" {
		t.Errorf("Token = %q", config.Token)
	}
	if config.AdminID != 7 {
		t.Errorf("AdminID = %d", config.AdminID)
	}
	if config.XAIKey != "alt-key" {
		t.Errorf("XAIKey = %q, want the AI_API_KEY fallback", config.XAIKey)
	}
	if config.StateDir != DefaultStateDir {
		t.Errorf("StateDir = %q, want %q", config.StateDir, DefaultStateDir)
	}
	if !config.SkipPending {
		t.Error("SkipPending should default to true")
	}
}
