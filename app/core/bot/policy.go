package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DagdarionV/telegram-it-admin-bot/app/core/interaction/telegram"
	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

// handleOfftopic enforces chat hygiene: the message is logged, removed
// from the group when the bot has delete rights, and the author is
// notified. Reaching the violation limit also pushes the chat rules.
func (b *Bot) handleOfftopic(ctx context.Context, msg types.Message, logger zerolog.Logger) {
	count := b.state.RecordViolation(msg.UserID)
	logger.Info().Int("violations", count).Msg("offtopic message")

	if err := b.store.LogOfftopic(ctx, fmt.Sprint(msg.UserID), msg.UserName, msg.Text); err != nil {
		logger.Warn().Err(err).Msg("offtopic logging failed")
	}

	if b.canDelete(ctx, msg.ChatID) {
		if err := b.transport.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil {
			logger.Warn().Err(err).Msg("delete failed")
		}
	}

	notice := offtopicNotice
	if count >= b.violationLimit {
		notice += "\n\n" + rulesText
	}
	err := b.transport.SendMessage(ctx, msg.UserID, notice, &telegram.SendOptions{
		InlineKeyboard: [][]telegram.InlineButton{
			{{Text: buttonRules, CallbackData: callbackShowRules}},
		},
	})
	if err != nil {
		// user never opened a private chat with the bot
		logger.Debug().Err(err).Msg("private notice failed")
	}
}

// notifyAdmins sends a private Markdown message to every administrator of
// the chat. Delivery failures are logged per admin and do not stop the rest.
func (b *Bot) notifyAdmins(ctx context.Context, chatID int64, text string, logger zerolog.Logger) {
	if chatID >= 0 {
		return
	}
	admins, err := b.transport.ChatAdministrators(ctx, chatID)
	if err != nil {
		logger.Warn().Err(err).Msg("admin list lookup failed")
		return
	}
	for _, admin := range admins {
		if admin.UserID == b.botID {
			continue
		}
		err := b.transport.SendMessage(ctx, admin.UserID, text, &telegram.SendOptions{ParseMode: "Markdown"})
		if err != nil {
			logger.Debug().Err(err).Int64("admin_id", admin.UserID).Msg("admin notification failed")
		}
	}
}

// canDelete reports whether the bot itself may delete messages in the chat.
func (b *Bot) canDelete(ctx context.Context, chatID int64) bool {
	if chatID >= 0 || b.botID == 0 {
		return false
	}
	member, err := b.transport.ChatMember(ctx, chatID, b.botID)
	if err != nil {
		b.log.Warn().Err(err).Msg("bot member lookup failed")
		return false
	}
	return member.CanDeleteMessages
}
