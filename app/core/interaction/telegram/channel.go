package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

const defaultAPIRoot = "https://api.telegram.org"

type Config struct {
	BotToken       string
	PollInterval   time.Duration
	TimeoutSeconds int
	APIRoot        string
	SendRate       rate.Limit
	SendBurst      int
}

// Channel drives the Bot API: a getUpdates long-poll loop for inbound
// traffic and rate-limited outbound calls.
type Channel struct {
	cfg     Config
	id      string
	log     zerolog.Logger
	client  *http.Client
	limiter *rate.Limiter

	offset int64

	mu      sync.RWMutex
	handler types.Handler
}

func NewChannel(cfg Config, log zerolog.Logger) *Channel {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 20
	}
	if strings.TrimSpace(cfg.APIRoot) == "" {
		cfg.APIRoot = defaultAPIRoot
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 25 // Bot API allows ~30 messages/second overall
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 5
	}
	return &Channel{
		cfg:     cfg,
		id:      "telegram",
		log:     log.With().Str("component", "telegram").Logger(),
		client:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds+10) * time.Second},
		limiter: rate.NewLimiter(cfg.SendRate, cfg.SendBurst),
	}
}

func (c *Channel) ID() string {
	return c.id
}

func (c *Channel) Start(ctx context.Context, handler types.Handler) error {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	if strings.TrimSpace(c.cfg.BotToken) == "" {
		return fmt.Errorf("telegram bot token is required")
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := c.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error().Err(err).Msg("poll error")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// User identifies a Telegram account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ChatMember is a member's standing within a chat.
type ChatMember struct {
	Status            string
	UserID            int64
	Username          string
	CanDeleteMessages bool
}

func (m ChatMember) IsAdmin() bool {
	return m.Status == "creator" || m.Status == "administrator"
}

// InlineButton is one callback button of an inline keyboard.
type InlineButton struct {
	Text         string
	CallbackData string
}

// SendOptions shape an outbound message. A nil *SendOptions means plain text.
type SendOptions struct {
	ParseMode      string
	ReplyKeyboard  [][]string
	InlineKeyboard [][]InlineButton
	RemoveKeyboard bool
	ReplyTo        int64
}

func (c *Channel) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) error {
	payload := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if opts != nil {
		if opts.ParseMode != "" {
			payload["parse_mode"] = opts.ParseMode
		}
		if opts.ReplyTo != 0 {
			payload["reply_to_message_id"] = opts.ReplyTo
		}
		if markup := opts.replyMarkup(); markup != nil {
			payload["reply_markup"] = markup
		}
	}
	return c.call(ctx, "sendMessage", payload, nil)
}

func (o *SendOptions) replyMarkup() map[string]interface{} {
	switch {
	case len(o.InlineKeyboard) > 0:
		rows := make([][]map[string]interface{}, 0, len(o.InlineKeyboard))
		for _, row := range o.InlineKeyboard {
			buttons := make([]map[string]interface{}, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, map[string]interface{}{
					"text":          b.Text,
					"callback_data": b.CallbackData,
				})
			}
			rows = append(rows, buttons)
		}
		return map[string]interface{}{"inline_keyboard": rows}
	case len(o.ReplyKeyboard) > 0:
		rows := make([][]map[string]interface{}, 0, len(o.ReplyKeyboard))
		for _, row := range o.ReplyKeyboard {
			buttons := make([]map[string]interface{}, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, map[string]interface{}{"text": label})
			}
			rows = append(rows, buttons)
		}
		return map[string]interface{}{"keyboard": rows, "resize_keyboard": true}
	case o.RemoveKeyboard:
		return map[string]interface{}{"remove_keyboard": true}
	}
	return nil
}

func (c *Channel) DeleteMessage(ctx context.Context, chatID int64, messageID int64) error {
	return c.call(ctx, "deleteMessage", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	}, nil)
}

func (c *Channel) ChatMember(ctx context.Context, chatID int64, userID int64) (ChatMember, error) {
	var out chatMemberResponse
	err := c.call(ctx, "getChatMember", map[string]interface{}{
		"chat_id": chatID,
		"user_id": userID,
	}, &out)
	if err != nil {
		return ChatMember{}, err
	}
	return out.Result.toChatMember(), nil
}

func (c *Channel) ChatAdministrators(ctx context.Context, chatID int64) ([]ChatMember, error) {
	var out chatAdministratorsResponse
	err := c.call(ctx, "getChatAdministrators", map[string]interface{}{
		"chat_id": chatID,
	}, &out)
	if err != nil {
		return nil, err
	}
	members := make([]ChatMember, 0, len(out.Result))
	for _, m := range out.Result {
		members = append(members, m.toChatMember())
	}
	return members, nil
}

func (c *Channel) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]interface{}{
		"callback_query_id": callbackID,
	}, nil)
}

// Me returns the bot's own identity, used for delete-permission checks.
func (c *Channel) Me(ctx context.Context) (User, error) {
	var out getMeResponse
	if err := c.call(ctx, "getMe", map[string]interface{}{}, &out); err != nil {
		return User{}, err
	}
	return out.Result, nil
}

func (c *Channel) pollOnce(ctx context.Context) error {
	result := getUpdatesResponse{}
	offset := atomic.LoadInt64(&c.offset)
	payload := map[string]interface{}{
		"timeout": c.cfg.TimeoutSeconds,
	}
	if offset > 0 {
		payload["offset"] = offset
	}
	if err := c.call(ctx, "getUpdates", payload, &result); err != nil {
		return err
	}

	c.mu.RLock()
	handler := c.handler
	c.mu.RUnlock()
	if handler == nil {
		return nil
	}

	for _, upd := range result.Result {
		if upd.UpdateID >= atomic.LoadInt64(&c.offset) {
			atomic.StoreInt64(&c.offset, upd.UpdateID+1)
		}
		msg, ok := c.toMessage(upd)
		if !ok {
			continue
		}
		handler(msg)
	}
	return nil
}

func (c *Channel) toMessage(upd update) (types.Message, bool) {
	if upd.Callback.ID != "" {
		return types.Message{
			UpdateID:     upd.UpdateID,
			MessageID:    upd.Callback.Message.MessageID,
			ChatID:       upd.Callback.Message.Chat.ID,
			UserID:       upd.Callback.From.ID,
			UserName:     upd.Callback.From.displayName(),
			Username:     upd.Callback.From.Username,
			CallbackID:   upd.Callback.ID,
			CallbackData: upd.Callback.Data,
			RequestID:    uuid.NewString(),
		}, true
	}

	if upd.Message.MessageID == 0 {
		return types.Message{}, false
	}
	text := strings.TrimSpace(upd.Message.Text)
	if text == "" {
		text = strings.TrimSpace(upd.Message.Caption)
	}
	if text == "" {
		return types.Message{}, false
	}
	return types.Message{
		UpdateID:  upd.UpdateID,
		MessageID: upd.Message.MessageID,
		ChatID:    upd.Message.Chat.ID,
		UserID:    upd.Message.From.ID,
		UserName:  upd.Message.From.displayName(),
		Username:  upd.Message.From.Username,
		Text:      text,
		RequestID: uuid.NewString(),
	}, true
}

func (c *Channel) call(ctx context.Context, method string, payload interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	url := strings.TrimRight(c.cfg.APIRoot, "/") + "/bot" + c.cfg.BotToken + "/" + method
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("telegram api status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var base apiResponse
	if err := json.Unmarshal(respBody, &base); err != nil {
		return err
	}
	if !base.OK {
		return fmt.Errorf("telegram api error: %s", base.Description)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return err
		}
	}
	return nil
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type getUpdatesResponse struct {
	apiResponse
	Result []update `json:"result"`
}

type getMeResponse struct {
	apiResponse
	Result User `json:"result"`
}

type chatMemberResponse struct {
	apiResponse
	Result apiChatMember `json:"result"`
}

type chatAdministratorsResponse struct {
	apiResponse
	Result []apiChatMember `json:"result"`
}

type update struct {
	UpdateID int64      `json:"update_id"`
	Message  apiMessage `json:"message"`
	Callback struct {
		ID      string     `json:"id"`
		From    apiUser    `json:"from"`
		Data    string     `json:"data"`
		Message apiMessage `json:"message"`
	} `json:"callback_query"`
}

type apiUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (u apiUser) displayName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

type apiMessage struct {
	MessageID int64   `json:"message_id"`
	From      apiUser `json:"from"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text    string `json:"text"`
	Caption string `json:"caption"`
}

type apiChatMember struct {
	Status            string  `json:"status"`
	User              apiUser `json:"user"`
	CanDeleteMessages bool    `json:"can_delete_messages"`
}

func (m apiChatMember) toChatMember() ChatMember {
	return ChatMember{
		Status:            m.Status,
		UserID:            m.User.ID,
		Username:          m.User.Username,
		CanDeleteMessages: m.CanDeleteMessages,
	}
}
