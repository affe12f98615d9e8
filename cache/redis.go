package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Novicer18/lexadvisor/models"
)

const messageTTL = 24 * time.Hour

// MessageCache keeps recent conversation transcripts in redis so the chat
// view does not re-read the database on every send. The database remains the
// source of truth; a miss or stale entry is always recoverable.
type MessageCache struct {
	rdb *redis.Client
}

// NewMessageCache creates a message cache over the given redis client
func NewMessageCache(rdb *redis.Client) *MessageCache {
	return &MessageCache{rdb: rdb}
}

func messagesKey(conversationID uuid.UUID) string {
	return fmt.Sprintf("conversation:%s:messages", conversationID)
}

// Append pushes one message onto the cached transcript
func (c *MessageCache) Append(ctx context.Context, conversationID uuid.UUID, msg models.Message) error {
	msgJSON, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := c.rdb.Pipeline()
	pipe.RPush(ctx, messagesKey(conversationID), msgJSON)
	pipe.Expire(ctx, messagesKey(conversationID), messageTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache message: %w", err)
	}
	return nil
}

// Get returns the cached transcript, oldest first. An empty slice with nil
// error means a cache miss.
func (c *MessageCache) Get(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	cached, err := c.rdb.LRange(ctx, messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages from cache: %w", err)
	}

	var messages []models.Message
	for _, msgStr := range cached {
		var msg models.Message
		if err := json.Unmarshal([]byte(msgStr), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Replace rewrites the cached transcript from database rows
func (c *MessageCache) Replace(ctx context.Context, conversationID uuid.UUID, messages []models.Message) error {
	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, messagesKey(conversationID))

	for _, msg := range messages {
		msgJSON, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, messagesKey(conversationID), msgJSON)
	}

	pipe.Expire(ctx, messagesKey(conversationID), messageTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache messages: %w", err)
	}
	return nil
}

// Invalidate drops the cached transcript, used after a conversation delete
func (c *MessageCache) Invalidate(ctx context.Context, conversationID uuid.UUID) error {
	return c.rdb.Del(ctx, messagesKey(conversationID)).Err()
}
