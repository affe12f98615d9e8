package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/policy"
	"github.com/Novicer18/lexadvisor/repository"
	"github.com/Novicer18/lexadvisor/session"
)

var ErrUnknownRole = errors.New("unknown role")

// AdminService handles user administration and the audit-log viewer
type AdminService struct {
	users    *repository.UserRepository
	logs     *repository.SystemLogRepository
	sessions *session.Store
}

// NewAdminService creates a new admin service
func NewAdminService(users *repository.UserRepository, logs *repository.SystemLogRepository, sessions *session.Store) *AdminService {
	return &AdminService{
		users:    users,
		logs:     logs,
		sessions: sessions,
	}
}

// ListUsers returns every account with its role. Admin only.
func (s *AdminService) ListUsers(ctx context.Context, actor *session.Identity) ([]*models.UserWithRole, error) {
	if !policy.CanChangeRole(actor.Role) {
		return nil, ErrPermissionDenied
	}
	return s.users.ListWithRoles(ctx)
}

// ChangeRole replaces a user's role and notifies live sessions so role-gated
// views re-resolve immediately.
func (s *AdminService) ChangeRole(ctx context.Context, actor *session.Identity, targetID uuid.UUID, role models.Role) error {
	if !policy.CanChangeRole(actor.Role) {
		return ErrPermissionDenied
	}
	if !role.Valid() {
		return ErrUnknownRole
	}

	previous, err := s.users.GetRole(ctx, targetID)
	if err != nil {
		return err
	}
	if previous == role {
		return nil
	}

	if err := s.users.SetRole(ctx, targetID, role); err != nil {
		return err
	}

	s.sessions.NotifyRoleChange(ctx, targetID, role)

	if err := s.logs.Append(ctx, "role.change", models.LogDetail{
		"target_user_id": targetID.String(),
		"previous_role":  string(previous),
		"new_role":       string(role),
	}, &actor.UserID); err != nil {
		log.Printf("Failed to record role change: %v", err)
	}

	return nil
}

// SystemLogs returns audit entries for the admin log viewer
func (s *AdminService) SystemLogs(ctx context.Context, actor *session.Identity, limit, offset int) ([]*models.SystemLog, error) {
	if !policy.CanReadSystemLogs(actor.Role) {
		return nil, ErrPermissionDenied
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.logs.List(ctx, limit, offset)
}
