// Package sessions owns transcript access for the conversation loop: it
// seeds and resumes per-(user, session) transcripts and serializes
// concurrent requests against the same session key.
package sessions

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/hr-copilot-poc/server/internal/agent/model"
)

// DefaultSession is used when the caller omits a session name, so omitting
// it resumes the same default conversation every time.
const DefaultSession = "default"

// Key builds the session key for (user, session).
func Key(userID int64, session string) string {
	if session == "" {
		session = DefaultSession
	}
	return fmt.Sprintf("user:%d:%s", userID, session)
}

// Manager wraps a ConversationRepository with context assembly and
// per-session-key locking.
type Manager struct {
	repo     model.ConversationRepository
	maxTurns int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(repo model.ConversationRepository, config model.ConversationConfig) *Manager {
	return &Manager{
		repo:     repo,
		maxTurns: config.History.MaxTurns,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Lock serializes requests for one session key and returns the release
// func. Transcripts must never fork or lose appended turns when two
// requests share a session.
func (m *Manager) Lock(sessionKey string) func() {
	m.mu.Lock()
	l, ok := m.locks[sessionKey]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionKey] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// BuildPlannerContext persists the incoming user message, then returns the
// planner input: system prompt followed by the recent transcript (which now
// ends with the user message).
func (m *Manager) BuildPlannerContext(ctx context.Context, sessionKey, systemPrompt, query string) ([]*schema.Message, error) {
	if err := m.repo.AddMessage(ctx, sessionKey, schema.UserMessage(query)); err != nil {
		return nil, err
	}

	history, err := m.repo.LoadHistory(ctx, sessionKey)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, m.maxTurns+1)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, trimTail(history.Messages, m.maxTurns)...)
	return messages, nil
}

// SaveReply persists the final assistant answer of a run.
func (m *Manager) SaveReply(ctx context.Context, sessionKey, content string) error {
	return m.repo.AddMessage(ctx, sessionKey, schema.AssistantMessage(content, nil))
}

// History exposes the persisted transcript, mainly for inspection.
func (m *Manager) History(ctx context.Context, sessionKey string) (*model.ConversationHistory, error) {
	return m.repo.LoadHistory(ctx, sessionKey)
}

// trimTail keeps the most recent maxTurns messages.
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
