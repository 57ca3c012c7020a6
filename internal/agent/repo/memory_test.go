package repo

import (
	"context"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	// a never-written key loads as an empty transcript
	h, err := r.LoadHistory(ctx, "user:1:default")
	require.NoError(t, err)
	assert.Empty(t, h.Messages)

	require.NoError(t, r.AddMessage(ctx, "user:1:default", schema.UserMessage("hi")))
	require.NoError(t, r.AddMessage(ctx, "user:1:default", schema.AssistantMessage("hello", nil)))
	require.NoError(t, r.AddMessage(ctx, "user:1:other", schema.UserMessage("elsewhere")))

	h, err = r.LoadHistory(ctx, "user:1:default")
	require.NoError(t, err)
	require.Len(t, h.Messages, 2)
	assert.Equal(t, schema.User, h.Messages[0].Role)
	assert.Equal(t, "hello", h.Messages[1].Content)

	n, err := r.GetMessageCount(ctx, "user:1:default")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.ClearHistory(ctx, "user:1:default"))
	n, err = r.GetMessageCount(ctx, "user:1:default")
	require.NoError(t, err)
	assert.Zero(t, n)

	// the other session is untouched
	h, err = r.LoadHistory(ctx, "user:1:other")
	require.NoError(t, err)
	assert.Len(t, h.Messages, 1)
}

func TestMemoryRepositoryLoadReturnsCopy(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	require.NoError(t, r.AddMessage(ctx, "k", schema.UserMessage("a")))
	h, err := r.LoadHistory(ctx, "k")
	require.NoError(t, err)
	h.Messages[0] = schema.UserMessage("mutated")

	h2, err := r.LoadHistory(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", h2.Messages[0].Content)
}

func TestMemoryRepositoryConcurrentAppends(t *testing.T) {
	r := NewMemoryConversationRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.AddMessage(ctx, "k", schema.UserMessage("m"))
		}()
	}
	wg.Wait()

	n, err := r.GetMessageCount(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
