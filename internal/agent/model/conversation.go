package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// ConversationRepository persists one transcript per session key. The key
// already encodes (user, session); repositories never interpret it.
type ConversationRepository interface {
	// AddMessage appends a message to the transcript for the session.
	AddMessage(ctx context.Context, sessionKey string, message *schema.Message) error

	// LoadHistory retrieves the transcript for a session. A session that was
	// never written loads as an empty transcript, not an error.
	LoadHistory(ctx context.Context, sessionKey string) (*ConversationHistory, error)

	// ClearHistory removes the transcript for a session.
	ClearHistory(ctx context.Context, sessionKey string) error

	// GetMessageCount returns the number of persisted messages for a session.
	GetMessageCount(ctx context.Context, sessionKey string) (int, error)
}

// ConversationHistory is a loaded transcript with its key.
type ConversationHistory struct {
	SessionKey string
	Messages   []*schema.Message
}
