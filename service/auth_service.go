package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/repository"
	"github.com/Novicer18/lexadvisor/session"
)

// MinPasswordLength defines minimum password length
const MinPasswordLength = 8

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password does not meet minimum requirements")
)

// AuthService handles sign-up, sign-in and sign-out
type AuthService struct {
	users    *repository.UserRepository
	sessions *session.Store
	logs     *repository.SystemLogRepository
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, sessions *session.Store, logs *repository.SystemLogRepository) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		logs:     logs,
	}
}

// AuthResult carries a fresh session after sign-up or sign-in
type AuthResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   *models.Profile `json:"profile"`
	Role      models.Role     `json:"role"`
}

// SignUp creates a profile with the default user role and opens a session
func (s *AuthService) SignUp(ctx context.Context, email, password, displayName string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = email
	}

	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}

	// The profile and its default role are created atomically; an account
	// never exists without exactly one role. The email pre-check above can
	// lose a race with a concurrent sign-up, so the unique violation from the
	// insert maps to the same error.
	if err := s.users.Create(ctx, profile, models.RoleUser); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	token, expiresAt, err := s.sessions.IssueToken(profile.ID, profile.Email)
	if err != nil {
		return nil, err
	}

	if logErr := s.logs.Append(ctx, "user.signup", models.LogDetail{"email": email}, &profile.ID); logErr != nil {
		log.Printf("Failed to record signup log: %v", logErr)
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
		Role:      models.RoleUser,
	}, nil
}

// SignIn verifies credentials and opens a session
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	profile, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role, err := s.users.GetRole(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.sessions.IssueToken(profile.ID, profile.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Profile:   profile,
		Role:      role,
	}, nil
}

// SignOut ends a session. Tokens are stateless; dropping the cached role is
// the only server-side state to clear.
func (s *AuthService) SignOut(ctx context.Context, userID uuid.UUID) {
	s.sessions.InvalidateRole(ctx, userID)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
