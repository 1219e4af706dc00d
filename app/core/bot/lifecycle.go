package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/interaction/telegram"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/moderation"
	"github.com/DagdarionV/telegram-it-admin-bot/app/core/taskstore"
	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

var creatorIDPattern = regexp.MustCompile(`\((\d+)\)\s*$`)

func (b *Bot) beginDraft(ctx context.Context, msg types.Message, description, category string) {
	if !b.store.Available() {
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}
	b.state.SetDraft(msg.UserID, moderation.Draft{
		Description: description,
		Category:    category,
		Stage:       moderation.StageConfirm,
	})
	b.sendConfirmPrompt(ctx, msg, category)
}

func (b *Bot) sendConfirmPrompt(ctx context.Context, msg types.Message, category string) {
	b.reply(ctx, msg, fmt.Sprintf(confirmPromptFmt, category), &telegram.SendOptions{
		ParseMode:     "Markdown",
		ReplyKeyboard: [][]string{{buttonConfirm, buttonClarify, buttonCancel}},
	})
}

// handleDraftReply advances the confirm/clarify/cancel dialog of the
// user's pending draft.
func (b *Bot) handleDraftReply(ctx context.Context, msg types.Message, logger zerolog.Logger) {
	draft, ok := b.state.Draft(msg.UserID)
	if !ok {
		return
	}

	if draft.Stage == moderation.StageClarify {
		if msg.Text == buttonCancel {
			b.cancelDraft(ctx, msg)
			return
		}
		draft.Description = msg.Text
		draft.Stage = moderation.StageConfirm
		b.state.SetDraft(msg.UserID, draft)
		b.sendConfirmPrompt(ctx, msg, draft.Category)
		return
	}

	switch msg.Text {
	case buttonConfirm:
		b.commitDraft(ctx, msg, draft, logger)
	case buttonClarify:
		draft.Stage = moderation.StageClarify
		b.state.SetDraft(msg.UserID, draft)
		b.reply(ctx, msg, clarifyPrompt, &telegram.SendOptions{
			ReplyKeyboard: [][]string{{buttonCancel}},
		})
	case buttonCancel:
		b.cancelDraft(ctx, msg)
	default:
		b.reply(ctx, msg, draftUnknown, nil)
	}
}

func (b *Bot) commitDraft(ctx context.Context, msg types.Message, draft moderation.Draft, logger zerolog.Logger) {
	creator := fmt.Sprintf("%s (%d)", msg.UserName, msg.UserID)
	assignee := ""
	if sysadminID, ok := b.state.SysadminID(); ok {
		assignee = strconv.FormatInt(sysadminID, 10)
	}
	id, err := b.store.CreateTask(ctx, draft.Description, draft.Category, creator,
		strconv.FormatInt(msg.MessageID, 10), assignee)
	if err != nil {
		logger.Error().Err(err).Msg("task creation failed")
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}
	b.state.ClearDraft(msg.UserID)
	logger.Info().Int("task_id", id).Msg("draft committed")
	b.reply(ctx, msg, fmt.Sprintf(taskCreatedFmt, id), b.mainKeyboard(ctx, msg))
}

func (b *Bot) cancelDraft(ctx context.Context, msg types.Message) {
	b.state.ClearDraft(msg.UserID)
	b.reply(ctx, msg, draftCancelled, b.mainKeyboard(ctx, msg))
}

// completeTask marks a task done and notifies its creator in private.
func (b *Bot) completeTask(ctx context.Context, msg types.Message, id int, logger zerolog.Logger) {
	task, err := b.store.FindTask(ctx, id)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			b.reply(ctx, msg, fmt.Sprintf(taskNotFoundFmt, id), nil)
			return
		}
		logger.Error().Err(err).Int("task_id", id).Msg("task lookup failed")
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}

	if err := b.store.UpdateStatus(ctx, id, taskstore.StatusDone, strconv.FormatInt(msg.UserID, 10)); err != nil {
		logger.Error().Err(err).Int("task_id", id).Msg("status update failed")
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}
	b.reply(ctx, msg, fmt.Sprintf(taskDoneFmt, id), nil)

	creatorID, ok := parseCreatorID(task.Creator)
	if !ok {
		logger.Warn().Str("creator", task.Creator).Msg("creator id not parseable, skipping notification")
		return
	}
	err = b.transport.SendMessage(ctx, creatorID, fmt.Sprintf(taskDoneNotice, id, task.Description),
		&telegram.SendOptions{ParseMode: "Markdown"})
	if err != nil {
		logger.Debug().Err(err).Int64("creator_id", creatorID).Msg("creator notification failed")
	}
}

func parseCreatorID(creator string) (int64, bool) {
	match := creatorIDPattern.FindStringSubmatch(strings.TrimSpace(creator))
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (b *Bot) sendTaskStatus(ctx context.Context, msg types.Message, id int) {
	task, err := b.store.FindTask(ctx, id)
	if err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			b.reply(ctx, msg, fmt.Sprintf(taskNotFoundFmt, id), nil)
			return
		}
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}
	b.reply(ctx, msg, fmt.Sprintf("ID %d: %s\nКатегория: %s\nСтатус: %s\nИсполнитель: %s\nОсталось: %s",
		task.ID, task.Description, task.Category, task.Status, task.Assignee, b.remainingText(task)), nil)
}

func (b *Bot) sendActiveTasks(ctx context.Context, msg types.Message) {
	tasks, err := b.store.ListActive(ctx)
	if err != nil {
		b.reply(ctx, msg, storeUnavailable, nil)
		return
	}
	if len(tasks) == 0 {
		b.reply(ctx, msg, noActiveTasks, nil)
		return
	}

	var sb strings.Builder
	sb.WriteString("Активные задачи:\n")
	for _, task := range tasks {
		fmt.Fprintf(&sb, "\nID %d: %s\nКатегория: %s\nИсполнитель: %s\nОсталось: %s\n",
			task.ID, task.Description, task.Category, task.Assignee, b.remainingText(task))
	}
	b.reply(ctx, msg, sb.String(), nil)
}

func (b *Bot) remainingText(task taskstore.Task) string {
	left, expired, err := b.store.Remaining(task)
	switch {
	case err != nil:
		return "Не указано"
	case expired:
		return "Время истекло"
	}
	hours := int(left.Hours())
	minutes := int(left.Minutes()) % 60
	return fmt.Sprintf("%d часов %d минут", hours, minutes)
}

// mainKeyboard is the persistent reply keyboard, wider for the sysadmin.
func (b *Bot) mainKeyboard(ctx context.Context, msg types.Message) *telegram.SendOptions {
	if b.state.IsSysadmin(msg.UserID) {
		return &telegram.SendOptions{ReplyKeyboard: [][]string{
			{buttonTaskList, buttonMarkDone},
			{buttonSettings},
		}}
	}
	if b.isChatAdmin(ctx, msg) {
		return &telegram.SendOptions{ReplyKeyboard: [][]string{
			{buttonTaskList},
			{buttonSettings},
		}}
	}
	return &telegram.SendOptions{RemoveKeyboard: true}
}
