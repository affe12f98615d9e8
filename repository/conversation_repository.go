package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Novicer18/lexadvisor/models"
)

// ConversationRepository handles database operations for conversations and
// their messages
type ConversationRepository struct {
	db *pgxpool.Pool
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (user_id, title)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query, conv.UserID, conv.Title).
		Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
}

// GetByID retrieves a conversation by ID
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	conv := &models.Conversation{}
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return conv, nil
}

// ListByUserID retrieves all conversations owned by a user, newest first
func (r *ConversationRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv := &models.Conversation{}
		err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.CreatedAt,
			&conv.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// UpdateTitle sets a conversation's title
func (r *ConversationRepository) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE conversations SET title = $2, updated_at = NOW() WHERE id = $1`,
		id, title,
	)
	return err
}

// Touch bumps a conversation's updated_at, keeping the list ordered by activity
func (r *ConversationRepository) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE conversations SET updated_at = NOW() WHERE id = $1`, id)
	return err
}

// DeleteOwned deletes a conversation only when owned by userID; messages
// cascade with the conversation row.
func (r *ConversationRepository) DeleteOwned(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("conversation %s not found for user", id)
	}
	return nil
}

// CreateMessage appends a message to a conversation
func (r *ConversationRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, role, content, citations)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.Citations,
	).Scan(&msg.ID, &msg.CreatedAt)
}

// ListMessages retrieves a conversation's messages, oldest first
func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, citations, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.Citations,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
