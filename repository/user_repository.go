package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Novicer18/lexadvisor/models"
)

// UserRepository handles database operations for profiles and roles
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a profile and its default role in one transaction, so an
// account can never exist without exactly one role.
func (r *UserRepository) Create(ctx context.Context, profile *models.Profile, role models.Role) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO profiles (email, password_hash, display_name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		profile.Email,
		profile.PasswordHash,
		profile.DisplayName,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`,
		profile.ID, role,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByEmail retrieves a profile by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM profiles
		WHERE email = $1`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.DisplayName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// GetByID retrieves a profile by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile := &models.Profile{}
	query := `
		SELECT id, email, password_hash, display_name, created_at, updated_at
		FROM profiles
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.DisplayName,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// GetRole returns the single role assigned to a user
func (r *UserRepository) GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	var role models.Role
	err := r.db.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`,
		userID,
	).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("failed to resolve role: %w", err)
	}
	return role, nil
}

// SetRole replaces a user's role
func (r *UserRepository) SetRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE user_roles SET role = $2 WHERE user_id = $1`,
		userID, role,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no role row for user %s", userID)
	}
	return nil
}

// ListWithRoles returns every profile joined with its role, newest first
func (r *UserRepository) ListWithRoles(ctx context.Context) ([]*models.UserWithRole, error) {
	query := `
		SELECT p.id, p.email, p.display_name, ur.role, p.created_at
		FROM profiles p
		JOIN user_roles ur ON ur.user_id = p.id
		ORDER BY p.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.UserWithRole
	for rows.Next() {
		user := &models.UserWithRole{}
		err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.DisplayName,
			&user.Role,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}
