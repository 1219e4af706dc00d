package types

import "context"

// Message is a normalized inbound update from the messaging platform.
// Either Text or CallbackData is populated, never both.
type Message struct {
	UpdateID  int64
	MessageID int64
	ChatID    int64
	UserID    int64
	UserName  string // display name, e.g. "Иван Петров"
	Username  string // handle without the leading "@", may be empty
	Text      string

	CallbackID   string // non-empty for callback-query updates
	CallbackData string

	RequestID string
}

// Handler consumes one inbound message.
type Handler func(Message)

// Channel is an inbound/outbound interface to a messaging platform.
type Channel interface {
	Start(ctx context.Context, handler Handler) error
	ID() string
}
