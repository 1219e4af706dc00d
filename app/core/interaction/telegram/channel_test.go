package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DagdarionV/telegram-it-admin-bot/app/pkg/types"
)

func newTestChannel(t *testing.T, handler http.HandlerFunc) (*Channel, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	ch := NewChannel(Config{
		BotToken:       "test-token",
		PollInterval:   10 * time.Millisecond,
		TimeoutSeconds: 1,
		APIRoot:        srv.URL,
	}, zerolog.Nop())
	return ch, srv
}

func TestChannelStartDeliversMessages(t *testing.T) {
	var once sync.Once
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/getUpdates"))
		body := `{"ok":true,"result":[]}`
		once.Do(func() {
			body = `{"ok":true,"result":[{"update_id":7,"message":{"message_id":42,"from":{"id":100,"first_name":"Ivan","last_name":"Petrov","username":"ivan"},"chat":{"id":-200},"text":"  не работает почта  "}}]}`
		})
		w.Write([]byte(body))
	})

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan types.Message, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ch.Start(ctx, func(msg types.Message) {
			select {
			case got <- msg:
			default:
			}
		})
	}()

	select {
	case msg := <-got:
		assert.Equal(t, int64(7), msg.UpdateID)
		assert.Equal(t, int64(42), msg.MessageID)
		assert.Equal(t, int64(-200), msg.ChatID)
		assert.Equal(t, int64(100), msg.UserID)
		assert.Equal(t, "Ivan Petrov", msg.UserName)
		assert.Equal(t, "ivan", msg.Username)
		assert.Equal(t, "не работает почта", msg.Text)
		assert.NotEmpty(t, msg.RequestID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestChannelStartDeliversCallbacks(t *testing.T) {
	var once sync.Once
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		body := `{"ok":true,"result":[]}`
		once.Do(func() {
			body = `{"ok":true,"result":[{"update_id":9,"callback_query":{"id":"cb1","from":{"id":55,"first_name":"Anna","username":"anna"},"data":"show_rules","message":{"message_id":13,"chat":{"id":-300}}}}]}`
		})
		w.Write([]byte(body))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan types.Message, 1)
	go ch.Start(ctx, func(msg types.Message) {
		select {
		case got <- msg:
		default:
		}
	})

	select {
	case msg := <-got:
		assert.Equal(t, "cb1", msg.CallbackID)
		assert.Equal(t, "show_rules", msg.CallbackData)
		assert.Equal(t, int64(55), msg.UserID)
		assert.Equal(t, int64(-300), msg.ChatID)
		assert.Equal(t, int64(13), msg.MessageID)
		assert.Empty(t, msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no callback delivered")
	}
}

func TestChannelOffsetAdvances(t *testing.T) {
	var mu sync.Mutex
	var offsets []int64
	calls := 0
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var payload struct {
			Offset int64 `json:"offset"`
		}
		json.Unmarshal(raw, &payload)
		mu.Lock()
		offsets = append(offsets, payload.Offset)
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			w.Write([]byte(`{"ok":true,"result":[{"update_id":5,"message":{"message_id":1,"from":{"id":1,"first_name":"A"},"chat":{"id":1},"text":"hi"}}]}`))
			return
		}
		w.Write([]byte(`{"ok":true,"result":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Start(ctx, func(types.Message) {})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, int64(0), offsets[0])
	assert.Equal(t, int64(6), offsets[1])
}

func TestChannelSendMessageMarkup(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"))
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = raw
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	})

	err := ch.SendMessage(context.Background(), -200, "Подтвердите создание задачи", &SendOptions{
		ParseMode: "Markdown",
		InlineKeyboard: [][]InlineButton{
			{{Text: "Подтвердить", CallbackData: "confirm"}},
		},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, float64(-200), payload["chat_id"])
	assert.Equal(t, "Markdown", payload["parse_mode"])
	markup, ok := payload["reply_markup"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, markup, "inline_keyboard")
}

func TestChannelSendMessageReplyKeyboard(t *testing.T) {
	var mu sync.Mutex
	var gotBody []byte
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		gotBody = raw
		mu.Unlock()
		w.Write([]byte(`{"ok":true}`))
	})

	err := ch.SendMessage(context.Background(), 42, "menu", &SendOptions{
		ReplyKeyboard: [][]string{{"📋 Список задач"}, {"⚙️ Настройки"}},
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	markup, ok := payload["reply_markup"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, markup, "keyboard")
	assert.Equal(t, true, markup["resize_keyboard"])
}

func TestChannelAPIError(t *testing.T) {
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	})

	err := ch.SendMessage(context.Background(), 1, "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestChannelChatMember(t *testing.T) {
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/getChatMember"))
		w.Write([]byte(`{"ok":true,"result":{"status":"administrator","can_delete_messages":true,"user":{"id":77,"username":"mod"}}}`))
	})

	member, err := ch.ChatMember(context.Background(), -1, 77)
	require.NoError(t, err)
	assert.True(t, member.IsAdmin())
	assert.True(t, member.CanDeleteMessages)
	assert.Equal(t, int64(77), member.UserID)
	assert.Equal(t, "mod", member.Username)
}

func TestChannelMe(t *testing.T) {
	ch, _ := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/getMe"))
		w.Write([]byte(`{"ok":true,"result":{"id":9000,"username":"it_admin_bot"}}`))
	})

	me, err := ch.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9000), me.ID)
	assert.Equal(t, "it_admin_bot", me.Username)
}

func TestChatMemberIsAdmin(t *testing.T) {
	assert.True(t, ChatMember{Status: "creator"}.IsAdmin())
	assert.True(t, ChatMember{Status: "administrator"}.IsAdmin())
	assert.False(t, ChatMember{Status: "member"}.IsAdmin())
	assert.False(t, ChatMember{Status: "left"}.IsAdmin())
}
