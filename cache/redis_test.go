package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Novicer18/lexadvisor/models"
)

func newTestCache(t *testing.T) *MessageCache {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewMessageCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestMessageCacheAppendAndGet(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	convID := uuid.New()

	require.NoError(t, c.Append(ctx, convID, models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		Role:           models.MessageRoleUser,
		Content:        "Is a verbal lease binding?",
	}))
	require.NoError(t, c.Append(ctx, convID, models.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		Role:           models.MessageRoleAssistant,
		Content:        "It can be, depending on jurisdiction.",
		Citations:      models.Citations{{Title: "Lease Act", Domain: models.DomainProperty}},
	}))

	messages, err := c.Get(ctx, convID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageRoleUser, messages[0].Role)
	assert.Equal(t, models.MessageRoleAssistant, messages[1].Role)
	assert.Equal(t, "Lease Act", messages[1].Citations[0].Title)
}

func TestMessageCacheMissIsEmpty(t *testing.T) {
	c := newTestCache(t)

	messages, err := c.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestMessageCacheReplaceAndInvalidate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	convID := uuid.New()

	require.NoError(t, c.Append(ctx, convID, models.Message{Role: models.MessageRoleUser, Content: "stale"}))
	require.NoError(t, c.Replace(ctx, convID, []models.Message{
		{Role: models.MessageRoleUser, Content: "fresh one"},
		{Role: models.MessageRoleAssistant, Content: "fresh two"},
	}))

	messages, err := c.Get(ctx, convID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "fresh one", messages[0].Content)

	require.NoError(t, c.Invalidate(ctx, convID))
	messages, err = c.Get(ctx, convID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
