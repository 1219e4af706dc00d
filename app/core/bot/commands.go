package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

// commandFunc handles one slash command. args is the text after the
// command name, trimmed.
type commandFunc func(ctx context.Context, b *Bot, msg types.Message, args string, logger zerolog.Logger)

// Registry maps slash command names to their handlers.
type Registry struct {
	commands map[string]commandFunc
}

func (b *Bot) newRegistry() *Registry {
	return &Registry{commands: map[string]commandFunc{
		"start":        cmdStart,
		"help":         cmdHelp,
		"rules":        cmdRules,
		"task":         cmdTask,
		"status":       cmdStatus,
		"tasks":        cmdTasks,
		"done":         cmdDone,
		"set_sysadmin": cmdSetSysadmin,
		"iam_sysadmin": cmdIamSysadmin,
	}}
}

// Dispatch routes "/name args" to a handler. Returns false when the
// command is unknown. A "@botname" suffix addressed to another bot is
// ignored entirely.
func (r *Registry) Dispatch(ctx context.Context, b *Bot, msg types.Message, logger zerolog.Logger) bool {
	name, args, _ := strings.Cut(strings.TrimPrefix(msg.Text, "/"), " ")
	name, mention, mentioned := strings.Cut(name, "@")
	if mentioned && b.botUsername != "" && !strings.EqualFold(mention, b.botUsername) {
		return true
	}
	name = strings.ToLower(name)

	handler, ok := r.commands[name]
	if !ok {
		logger.Debug().Str("command", name).Msg("unknown command")
		return false
	}
	logger.Info().Str("command", name).Msg("command dispatched")
	handler(ctx, b, msg, strings.TrimSpace(args), logger)
	return true
}

func cmdStart(ctx context.Context, b *Bot, msg types.Message, _ string, _ zerolog.Logger) {
	b.reply(ctx, msg, welcomeText, b.mainKeyboard(ctx, msg))
}

func cmdHelp(ctx context.Context, b *Bot, msg types.Message, _ string, _ zerolog.Logger) {
	b.reply(ctx, msg, helpText, b.mainKeyboard(ctx, msg))
}

func cmdRules(ctx context.Context, b *Bot, msg types.Message, _ string, _ zerolog.Logger) {
	b.reply(ctx, msg, rulesText, nil)
}

func cmdTask(ctx context.Context, b *Bot, msg types.Message, args string, _ zerolog.Logger) {
	if args == "" {
		b.reply(ctx, msg, taskUsage, nil)
		return
	}
	result := b.classifier.Classify(ctx, args)
	b.beginDraft(ctx, msg, args, result.Category)
}

func cmdStatus(ctx context.Context, b *Bot, msg types.Message, args string, _ zerolog.Logger) {
	if args != "" {
		id, ok := parseTaskID(args)
		if !ok {
			b.reply(ctx, msg, statusUsage, nil)
			return
		}
		b.sendTaskStatus(ctx, msg, id)
		return
	}
	if !b.isChatAdmin(ctx, msg) && !b.state.IsSysadmin(msg.UserID) {
		b.reply(ctx, msg, adminsOnly, nil)
		return
	}
	b.sendActiveTasks(ctx, msg)
}

func cmdTasks(ctx context.Context, b *Bot, msg types.Message, _ string, _ zerolog.Logger) {
	b.sendActiveTasks(ctx, msg)
}

func cmdDone(ctx context.Context, b *Bot, msg types.Message, args string, logger zerolog.Logger) {
	if !b.state.IsSysadmin(msg.UserID) {
		b.reply(ctx, msg, sysadminOnly, nil)
		return
	}
	id, ok := parseTaskID(args)
	if !ok {
		b.reply(ctx, msg, doneUsage, nil)
		return
	}
	b.completeTask(ctx, msg, id, logger)
}

func cmdSetSysadmin(ctx context.Context, b *Bot, msg types.Message, args string, logger zerolog.Logger) {
	if !b.isChatAdmin(ctx, msg) {
		b.reply(ctx, msg, adminsOnly, nil)
		return
	}
	if args == "" || strings.ContainsAny(args, " \t") {
		b.reply(ctx, msg, setSysadminUsage, nil)
		return
	}
	if id, err := strconv.ParseInt(args, 10, 64); err == nil && id > 0 {
		b.state.SetSysadminID(id)
		logger.Info().Int64("sysadmin_id", id).Msg("sysadmin assigned")
		b.reply(ctx, msg, fmt.Sprintf(sysadminAssignedFmt, id), nil)
		return
	}
	handle := strings.TrimPrefix(args, "@")
	if handle == "" {
		b.reply(ctx, msg, setSysadminUsage, nil)
		return
	}
	b.state.SetPendingUsername(handle)
	logger.Info().Str("username", handle).Msg("sysadmin role offered")
	b.reply(ctx, msg, fmt.Sprintf(sysadminOfferedFmt, handle), nil)
}

func cmdIamSysadmin(ctx context.Context, b *Bot, msg types.Message, _ string, logger zerolog.Logger) {
	if !b.state.Claim(msg.UserID, msg.Username) {
		b.reply(ctx, msg, sysadminNotPending, nil)
		return
	}
	logger.Info().Int64("user_id", msg.UserID).Str("username", msg.Username).Msg("sysadmin role claimed")
	b.reply(ctx, msg, fmt.Sprintf(sysadminClaimedFmt, msg.Username), b.mainKeyboard(ctx, msg))
}
