package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/classify"
)

// Config is the full runtime configuration, sourced from the environment.
type Config struct {
	Telegram   TelegramConfig
	Sheets     SheetsConfig
	Classifier ClassifierConfig
	Task       TaskConfig
}

type TelegramConfig struct {
	BotToken        string
	PollIntervalSec int
	TimeoutSeconds  int
}

type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
}

type ClassifierConfig struct {
	APIKey string
	Model  string
}

type TaskConfig struct {
	DefaultDeadlineHours int
	DeadlineHours        map[string]int
}

// FromEnv builds the configuration from environment variables. A missing
// bot token is a configuration error and aborts startup; everything else
// degrades with defaults.
func FromEnv() (Config, error) {
	cfg := Config{
		Telegram: TelegramConfig{
			BotToken:        strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
			PollIntervalSec: envInt("BOT_POLL_INTERVAL_SEC", 0),
			TimeoutSeconds:  envInt("BOT_POLL_TIMEOUT_SEC", 0),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID")),
			CredentialsFile: strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE_PATH")),
		},
		Classifier: ClassifierConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:  strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		},
		Task: TaskConfig{
			DefaultDeadlineHours: envInt("TASK_DEFAULT_DEADLINE_HOURS", 0),
		},
	}
	applyDefaults(&cfg)

	if cfg.Telegram.BotToken == "" {
		return Config{}, fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.PollIntervalSec <= 0 {
		cfg.Telegram.PollIntervalSec = 2
	}
	if cfg.Telegram.TimeoutSeconds <= 0 {
		cfg.Telegram.TimeoutSeconds = 20
	}
	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = "credentials_telegram.json"
	}
	if cfg.Task.DefaultDeadlineHours <= 0 {
		cfg.Task.DefaultDeadlineHours = 24
	}
	if len(cfg.Task.DeadlineHours) == 0 {
		cfg.Task.DeadlineHours = defaultDeadlineHours()
	}
}

// defaultDeadlineHours maps each topic to its planned resolution window.
func defaultDeadlineHours() map[string]int {
	return map[string]int{
		classify.CategoryMail:     8,
		classify.CategoryPrinter:  4,
		classify.CategorySoftware: 8,
		classify.CategoryHardware: 12,
		classify.CategoryNetwork:  6,
		classify.CategoryAccess:   4,
		classify.CategoryAccounts: 2,
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
