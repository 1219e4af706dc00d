// Package bot ties the Telegram transport, the message classifier and
// the task store together: it moderates the support chat and walks task
// authors through the create/confirm dialog.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/classify"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/interaction/telegram"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/moderation"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/taskstore"
	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

// Transport is the slice of the Telegram channel the bot calls.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int64) error
	ChatMember(ctx context.Context, chatID int64, userID int64) (telegram.ChatMember, error)
	ChatAdministrators(ctx context.Context, chatID int64) ([]telegram.ChatMember, error)
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Classifier labels free-form messages.
type Classifier interface {
	Classify(ctx context.Context, text string) classify.Result
}

// TaskStore is the slice of the spreadsheet-backed store the bot uses.
type TaskStore interface {
	Available() bool
	CreateTask(ctx context.Context, description, category, creator, sourceMessageID, assignee string) (int, error)
	FindTask(ctx context.Context, id int) (taskstore.Task, error)
	UpdateStatus(ctx context.Context, id int, status string, actorID string) error
	ListActive(ctx context.Context) ([]taskstore.Task, error)
	Remaining(task taskstore.Task) (time.Duration, bool, error)
	LogOfftopic(ctx context.Context, userID, userName, text string) error
	LogComplaint(ctx context.Context, userID, userName, text, relatedMessageID string) error
}

type Bot struct {
	transport  Transport
	classifier Classifier
	store      TaskStore
	state      *moderation.State
	commands   *Registry
	log        zerolog.Logger

	botID       int64
	botUsername string

	violationLimit int
}

func New(transport Transport, classifier Classifier, store TaskStore, state *moderation.State, log zerolog.Logger) *Bot {
	b := &Bot{
		transport:      transport,
		classifier:     classifier,
		store:          store,
		state:          state,
		log:            log.With().Str("component", "bot").Logger(),
		violationLimit: 3,
	}
	b.commands = b.newRegistry()
	return b
}

// SetSelf records the bot's own identity so that command mentions like
// /help@it_admin_bot are recognized and the bot's own messages are ignored.
func (b *Bot) SetSelf(id int64, username string) {
	b.botID = id
	b.botUsername = strings.TrimPrefix(username, "@")
}

// HandleUpdate processes one inbound message or callback. Safe to call
// concurrently for distinct users.
func (b *Bot) HandleUpdate(ctx context.Context, msg types.Message) {
	logger := b.log.With().
		Str("request_id", msg.RequestID).
		Int64("chat_id", msg.ChatID).
		Int64("user_id", msg.UserID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("update handler panicked")
			b.reply(ctx, msg, genericFailure, nil)
		}
	}()

	if msg.UserID == b.botID && b.botID != 0 {
		return
	}

	if msg.CallbackID != "" {
		b.handleCallback(ctx, msg, logger)
		return
	}

	if strings.HasPrefix(msg.Text, "/") {
		if !b.commands.Dispatch(ctx, b, msg, logger) {
			b.reply(ctx, msg, unknownCommandMsg, nil)
		}
		return
	}

	b.handleText(ctx, msg, logger)
}

func (b *Bot) handleCallback(ctx context.Context, msg types.Message, logger zerolog.Logger) {
	if err := b.transport.AnswerCallback(ctx, msg.CallbackID); err != nil {
		logger.Warn().Err(err).Msg("answer callback failed")
	}
	switch msg.CallbackData {
	case callbackShowRules:
		b.reply(ctx, msg, rulesText, nil)
	default:
		logger.Debug().Str("data", msg.CallbackData).Msg("unknown callback ignored")
	}
}

func (b *Bot) handleText(ctx context.Context, msg types.Message, logger zerolog.Logger) {
	if _, ok := b.state.Draft(msg.UserID); ok {
		b.handleDraftReply(ctx, msg, logger)
		return
	}

	switch msg.Text {
	case buttonTaskList:
		if !b.isChatAdmin(ctx, msg) && !b.state.IsSysadmin(msg.UserID) {
			b.reply(ctx, msg, adminsOnly, nil)
			return
		}
		b.sendActiveTasks(ctx, msg)
		return
	case buttonMarkDone:
		b.reply(ctx, msg, doneUsage, nil)
		return
	case buttonSettings:
		b.reply(ctx, msg, helpText, nil)
		return
	}

	result := b.classifier.Classify(ctx, msg.Text)
	logger.Info().
		Str("category", result.Category).
		Str("action", string(result.Action)).
		Msg("message classified")

	if result.Category == classify.CategoryOther && !b.isChatAdmin(ctx, msg) {
		b.handleOfftopic(ctx, msg, logger)
		return
	}

	switch result.Action {
	case classify.ActionCreateTask:
		description := strings.TrimSpace(result.Entities["description"])
		if description == "" {
			description = msg.Text
		}
		b.beginDraft(ctx, msg, description, result.Category)
	case classify.ActionCheckStatus:
		if !b.isChatAdmin(ctx, msg) && !b.state.IsSysadmin(msg.UserID) {
			b.reply(ctx, msg, adminsOnly, nil)
			return
		}
		b.sendActiveTasks(ctx, msg)
	case classify.ActionMarkDone:
		if !b.state.IsSysadmin(msg.UserID) {
			b.reply(ctx, msg, sysadminOnly, nil)
			return
		}
		id, ok := parseTaskID(result.Entities["task_id"])
		if !ok {
			b.reply(ctx, msg, doneUsage, nil)
			return
		}
		b.completeTask(ctx, msg, id, logger)
	case classify.ActionShowRules:
		b.reply(ctx, msg, rulesText, nil)
	case classify.ActionComplain:
		complaint := strings.TrimSpace(result.Entities["complaint_text"])
		if complaint == "" {
			complaint = msg.Text
		}
		if err := b.store.LogComplaint(ctx, fmt.Sprint(msg.UserID), msg.UserName, complaint, fmt.Sprint(msg.MessageID)); err != nil {
			logger.Warn().Err(err).Msg("complaint logging failed")
		}
		b.notifyAdmins(ctx, msg.ChatID, fmt.Sprintf(complaintNoticeFmt, msg.UserName, complaint), logger)
		b.reply(ctx, msg, complaintAcceptedMsg, nil)
	default:
		if b.isChatAdmin(ctx, msg) {
			logger.Debug().Str("action", string(result.Action)).Msg("offtopic action from admin ignored")
			return
		}
		b.handleOfftopic(ctx, msg, logger)
	}
}

func (b *Bot) isChatAdmin(ctx context.Context, msg types.Message) bool {
	if msg.ChatID >= 0 {
		// private chats have no admins
		return false
	}
	member, err := b.transport.ChatMember(ctx, msg.ChatID, msg.UserID)
	if err != nil {
		b.log.Warn().Err(err).Int64("user_id", msg.UserID).Msg("chat member lookup failed")
		return false
	}
	return member.IsAdmin()
}

func (b *Bot) reply(ctx context.Context, msg types.Message, text string, opts *telegram.SendOptions) {
	if err := b.transport.SendMessage(ctx, msg.ChatID, text, opts); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("send failed")
	}
}

func parseTaskID(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if s == "" {
		return 0, false
	}
	id := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		id = id*10 + int(r-'0')
	}
	return id, id > 0
}
