package graph

import (
	"context"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hr-copilot-poc/server/internal/agent/graph/nodes"
	"github.com/hr-copilot-poc/server/internal/agent/graph/sessions"
	"github.com/hr-copilot-poc/server/internal/agent/graph/tools"
	"github.com/hr-copilot-poc/server/internal/agent/model"
	"github.com/hr-copilot-poc/server/internal/agent/repo"
	errx "github.com/hr-copilot-poc/server/internal/core/error"
	"github.com/hr-copilot-poc/server/internal/hr/store"
	"github.com/hr-copilot-poc/server/internal/retrieval"
)

// scriptedModel plays back a fixed sequence of planner turns. When the
// script runs out it repeats the last turn, which lets tests simulate a
// planner that never stops asking for tools.
type scriptedModel struct {
	mu     sync.Mutex
	script []*schema.Message
	calls  int
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	if i >= len(m.script) {
		i = len(m.script) - 1
	}
	m.calls++
	out := *m.script[i]
	if len(out.ToolCalls) > 0 {
		out.ToolCalls = append([]schema.ToolCall(nil), out.ToolCalls...)
	}
	return &out, nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, in, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *scriptedModel) WithTools(_ []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

type graphStore struct {
	mu         sync.Mutex
	lastUserID int64
	raiseErr   error
}

func (f *graphStore) LeaveBalance(_ context.Context, userID int64) (store.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUserID = userID
	return store.Balance{Remaining: 12}, nil
}

func (f *graphStore) LeaveHistory(_ context.Context, userID int64, _ int) ([]store.Leave, error) {
	return nil, nil
}

func (f *graphStore) PendingLeaves(_ context.Context, userID int64) ([]store.Leave, error) {
	return nil, nil
}

func (f *graphStore) Profile(_ context.Context, userID int64) (store.Profile, error) {
	return store.Profile{ID: userID}, nil
}

func (f *graphStore) RaiseLeave(_ context.Context, req store.LeaveRequest) (store.RaiseResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastUserID = req.UserID
	if f.raiseErr != nil {
		return store.RaiseResult{}, f.raiseErr
	}
	return store.RaiseResult{OK: true, Days: req.Days()}, nil
}

func (f *graphStore) CancelLeave(_ context.Context, userID, _ int64) error {
	return nil
}

func (f *graphStore) EditProfile(_ context.Context, edit store.ProfileEdit) (store.Profile, error) {
	return store.Profile{ID: edit.UserID}, nil
}

type graphIndex struct{}

func (graphIndex) Search(_ context.Context, _ string, _ int) ([]retrieval.Document, error) {
	return []retrieval.Document{{Text: "Article 109: annual leave"}}, nil
}

func toolCallMsg(id, name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{
			{ID: id, Function: schema.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func newTestRunner(sm *scriptedModel, fs *graphStore, maxToolCalls int) (*graphRunner, *repo.MemoryConversationRepository) {
	mem := repo.NewMemoryConversationRepository()
	var conv model.ConversationConfig
	conv.History.MaxTurns = 30
	conv.Tools.MaxCalls = maxToolCalls
	return &graphRunner{
		planner:      sm,
		modelName:    "scripted",
		promptCfg:    model.PromptConfig{OrgName: "Acme", AgentName: "HR Copilot"},
		sessions:     sessions.NewManager(mem, conv),
		deps:         tools.Deps{Store: fs, Index: graphIndex{}},
		maxToolCalls: maxToolCalls,
	}, mem
}

func TestRunnerToolCallThenAnswer(t *testing.T) {
	sm := &scriptedModel{script: []*schema.Message{
		toolCallMsg("call_1", tools.ToolGetLeaveBalance, `{}`),
		schema.AssistantMessage("You have 12 days remaining.", nil),
	}}
	fs := &graphStore{}
	r, mem := newTestRunner(sm, fs, 10)

	key := sessions.Key(42, "")
	out, err := r.Invoke(context.Background(), model.QueryInput{
		UserID:     42,
		SessionKey: key,
		Query:      "How many leave days do I have left?",
	})
	require.NoError(t, err)
	assert.Equal(t, "You have 12 days remaining.", out)
	assert.Equal(t, int64(42), fs.lastUserID)

	// Transcript holds the user turn and the final reply, not the tool noise.
	h, err := mem.LoadHistory(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, schema.Assistant, h.Messages[1].Role)
	assert.Equal(t, "You have 12 days remaining.", h.Messages[1].Content)
}

func TestRunnerBudgetExhaustionReturnsInabilityMessage(t *testing.T) {
	// The planner never stops calling tools; the script repeats its last turn.
	sm := &scriptedModel{script: []*schema.Message{
		toolCallMsg("", tools.ToolGetLeaveBalance, `{}`),
	}}
	fs := &graphStore{}
	r, mem := newTestRunner(sm, fs, 1)

	key := sessions.Key(7, "loop")
	out, err := r.Invoke(context.Background(), model.QueryInput{
		UserID:     7,
		SessionKey: key,
		Query:      "do everything",
	})
	require.NoError(t, err)
	assert.Equal(t, nodes.InabilityMessage, out)

	h, err := mem.LoadHistory(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, nodes.InabilityMessage, h.Messages[1].Content)
}

func TestRunnerUnknownToolFailsTurn(t *testing.T) {
	sm := &scriptedModel{script: []*schema.Message{
		toolCallMsg("call_1", "DeleteAllUsers", `{}`),
		schema.AssistantMessage("done", nil),
	}}
	r, _ := newTestRunner(sm, &graphStore{}, 10)

	_, err := r.Invoke(context.Background(), model.QueryInput{
		UserID:     1,
		SessionKey: sessions.Key(1, ""),
		Query:      "please",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DeleteAllUsers")
}

func TestRunnerRecoverableToolFailureKeepsLoopAlive(t *testing.T) {
	sm := &scriptedModel{script: []*schema.Message{
		toolCallMsg("call_1", tools.ToolRaiseLeave, `{"start_date":"2031-03-02","days":40}`),
		schema.AssistantMessage("Sorry, you do not have enough balance for 40 days.", nil),
	}}
	fs := &graphStore{raiseErr: errx.BusinessRule("not enough leave balance")}
	r, _ := newTestRunner(sm, fs, 10)

	out, err := r.Invoke(context.Background(), model.QueryInput{
		UserID:     3,
		SessionKey: sessions.Key(3, ""),
		Query:      "raise 40 days of leave",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, you do not have enough balance for 40 days.", out)
}

func TestRunnerRejectsEmptyQuery(t *testing.T) {
	r, _ := newTestRunner(&scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("hi", nil),
	}}, &graphStore{}, 10)

	_, err := r.Invoke(context.Background(), model.QueryInput{
		UserID:     1,
		SessionKey: sessions.Key(1, ""),
		Query:      "   ",
	})
	require.Error(t, err)
	assert.Equal(t, errx.KindArgument, errx.KindOf(err))
}

func TestRunnerSessionsAreIsolated(t *testing.T) {
	sm := &scriptedModel{script: []*schema.Message{
		schema.AssistantMessage("Hello!", nil),
	}}
	r, mem := newTestRunner(sm, &graphStore{}, 10)

	ctx := context.Background()
	_, err := r.Invoke(ctx, model.QueryInput{UserID: 1, SessionKey: sessions.Key(1, "a"), Query: "hi"})
	require.NoError(t, err)
	_, err = r.Invoke(ctx, model.QueryInput{UserID: 1, SessionKey: sessions.Key(1, "b"), Query: "hello"})
	require.NoError(t, err)

	ha, err := mem.LoadHistory(ctx, sessions.Key(1, "a"))
	require.NoError(t, err)
	hb, err := mem.LoadHistory(ctx, sessions.Key(1, "b"))
	require.NoError(t, err)
	assert.Len(t, ha.Messages, 2)
	assert.Len(t, hb.Messages, 2)
	assert.Equal(t, "hi", ha.Messages[0].Content)
	assert.Equal(t, "hello", hb.Messages[0].Content)
}
