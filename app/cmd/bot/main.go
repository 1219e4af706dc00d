package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/DagdarionV/telegram-it-admin-bot/app/configs"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/bot"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/classify"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/interaction/telegram"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/moderation"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/sheets"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/taskstore"
	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/logger"
	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

func main() {
	var (
		logLevel  string
		logDir    string
		envFile   string
		logCloser func()
	)

	app := &cli.Command{
		Name:  "it-admin-bot",
		Usage: "Telegram support bot: classifies IT requests and tracks them in a spreadsheet",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("BOT_LOG_LEVEL"),
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-dir",
				Usage:       "directory for daily log files",
				Sources:     cli.EnvVars("BOT_LOG_DIR"),
				Value:       "logs",
				Destination: &logDir,
			},
			&cli.StringFlag{
				Name:        "env-file",
				Usage:       "path to a .env file with credentials",
				Sources:     cli.EnvVars("BOT_ENV_FILE"),
				Value:       ".env",
				Destination: &envFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return ctx, fmt.Errorf("load env file: %w", err)
			}
			lg, closer, err := logger.New(logLevel, logDir)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = lg
			logCloser = closer
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("bot exited")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var values taskstore.ValuesAPI
	if cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.NewClient(cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, log.Logger, sheets.Options{})
		if err != nil {
			log.Warn().Err(err).Msg("sheets client unavailable, running without task storage")
		} else {
			values = client
		}
	} else {
		log.Warn().Msg("GOOGLE_SHEET_ID is not set, running without task storage")
	}

	store := taskstore.NewStore(values, cfg.Task.DeadlineHours, cfg.Task.DefaultDeadlineHours, log.Logger)
	if store.Available() {
		if err := store.EnsureHeaders(ctx); err != nil {
			log.Warn().Err(err).Msg("sheet header setup failed")
		}
	}

	classifier := classify.New(cfg.Classifier.APIKey, cfg.Classifier.Model, log.Logger)

	channel := telegram.NewChannel(telegram.Config{
		BotToken:       cfg.Telegram.BotToken,
		PollInterval:   time.Duration(cfg.Telegram.PollIntervalSec) * time.Second,
		TimeoutSeconds: cfg.Telegram.TimeoutSeconds,
	}, log.Logger)

	state := moderation.NewState()
	b := bot.New(channel, classifier, store, state, log.Logger)

	if me, err := channel.Me(ctx); err != nil {
		log.Warn().Err(err).Msg("getMe failed, command mentions will not be recognized")
	} else {
		b.SetSelf(me.ID, me.Username)
		log.Info().Int64("bot_id", me.ID).Str("username", me.Username).Msg("bot identity resolved")
	}

	dispatcher := bot.NewDispatcher(ctx, b.HandleUpdate, log.Logger)
	defer dispatcher.Close()

	log.Info().Msg("bot started")
	return channel.Start(ctx, func(msg types.Message) {
		dispatcher.Enqueue(msg)
	})
}
