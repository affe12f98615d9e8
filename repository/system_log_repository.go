package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Novicer18/lexadvisor/models"
)

// SystemLogRepository handles the append-only audit log
type SystemLogRepository struct {
	db *pgxpool.Pool
}

// NewSystemLogRepository creates a new system log repository
func NewSystemLogRepository(db *pgxpool.Pool) *SystemLogRepository {
	return &SystemLogRepository{db: db}
}

// Append records an action. userID is nil for unattributed events.
func (r *SystemLogRepository) Append(ctx context.Context, action string, detail models.LogDetail, userID *uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO system_logs (action, detail, user_id)
		VALUES ($1, $2, $3)`,
		action, detail, userID,
	)
	return err
}

// List returns log entries, newest first
func (r *SystemLogRepository) List(ctx context.Context, limit, offset int) ([]*models.SystemLog, error) {
	query := `
		SELECT id, action, detail, user_id, created_at
		FROM system_logs
		ORDER BY created_at DESC`

	var args []interface{}
	argIndex := 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.SystemLog
	for rows.Next() {
		entry := &models.SystemLog{}
		err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&entry.Detail,
			&entry.UserID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
