package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/classify"
)

func TestFromEnvRequiresBotToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")
	t.Setenv("GOOGLE_SHEET_ID", "")
	t.Setenv("GOOGLE_CREDENTIALS_FILE_PATH", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("TASK_DEFAULT_DEADLINE_HOURS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "123:token", cfg.Telegram.BotToken)
	assert.Equal(t, 2, cfg.Telegram.PollIntervalSec)
	assert.Equal(t, 20, cfg.Telegram.TimeoutSeconds)
	assert.Equal(t, "credentials_telegram.json", cfg.Sheets.CredentialsFile)
	assert.Empty(t, cfg.Sheets.SpreadsheetID)
	assert.Empty(t, cfg.Classifier.APIKey)
	assert.Equal(t, 24, cfg.Task.DefaultDeadlineHours)
}

func TestDeadlineHoursTable(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Task.DeadlineHours[classify.CategoryPrinter])
	assert.Equal(t, 8, cfg.Task.DeadlineHours[classify.CategoryMail])
	assert.Equal(t, 12, cfg.Task.DeadlineHours[classify.CategoryHardware])
	assert.Equal(t, 2, cfg.Task.DeadlineHours[classify.CategoryAccounts])

	// The catch-all label has no fixed window and falls back to the default.
	_, ok := cfg.Task.DeadlineHours[classify.CategoryOther]
	assert.False(t, ok)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")
	t.Setenv("BOT_POLL_INTERVAL_SEC", "5")
	t.Setenv("TASK_DEFAULT_DEADLINE_HOURS", "48")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Telegram.PollIntervalSec)
	assert.Equal(t, 48, cfg.Task.DefaultDeadlineHours)
	assert.Equal(t, "gpt-4o-mini", cfg.Classifier.Model)
}
