package repo

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/agent/model"
)

// MemoryConversationRepository keeps transcripts in process memory. Used in
// tests and when running without Redis.
type MemoryConversationRepository struct {
	mu       sync.RWMutex
	messages map[string][]*schema.Message
}

func NewMemoryConversationRepository() *MemoryConversationRepository {
	return &MemoryConversationRepository{messages: make(map[string][]*schema.Message)}
}

func (r *MemoryConversationRepository) AddMessage(_ context.Context, sessionKey string, message *schema.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[sessionKey] = append(r.messages[sessionKey], message)
	return nil
}

func (r *MemoryConversationRepository) LoadHistory(_ context.Context, sessionKey string) (*model.ConversationHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.messages[sessionKey]
	msgs := make([]*schema.Message, len(src))
	copy(msgs, src)
	return &model.ConversationHistory{SessionKey: sessionKey, Messages: msgs}, nil
}

func (r *MemoryConversationRepository) ClearHistory(_ context.Context, sessionKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, sessionKey)
	return nil
}

func (r *MemoryConversationRepository) GetMessageCount(_ context.Context, sessionKey string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages[sessionKey]), nil
}

var _ model.ConversationRepository = (*MemoryConversationRepository)(nil)
