// Package session holds the authenticated-identity context for the
// application. The Store is constructed once and injected wherever session
// state is read; it is never a package-level singleton.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Novicer18/lexadvisor/models"
)

const (
	// TokenExpiration defines how long a session token is valid
	TokenExpiration = 24 * time.Hour

	roleCacheTTL = 5 * time.Minute
)

var (
	ErrInvalidToken   = errors.New("invalid session token")
	ErrRoleUnresolved = errors.New("could not resolve role for user")
)

// Identity is the resolved session state: who the caller is and what they may do
type Identity struct {
	UserID uuid.UUID   `json:"user_id"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// RoleSource looks up the authoritative role for a user
type RoleSource interface {
	GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error)
}

// Store issues and verifies session tokens and resolves roles. Roles are
// cached in redis with a short TTL; a role change invalidates the cache entry
// so the next resolution re-reads the role table.
type Store struct {
	jwtSecret []byte
	roles     RoleSource
	rdb       *redis.Client

	mu          sync.RWMutex
	subscribers []func(userID uuid.UUID, role models.Role)
}

// NewStore creates a session store. rdb may be nil, in which case every
// resolution hits the role source directly.
func NewStore(jwtSecret string, roles RoleSource, rdb *redis.Client) *Store {
	return &Store{
		jwtSecret: []byte(jwtSecret),
		roles:     roles,
		rdb:       rdb,
	}
}

// Claims defines the claims in a session token
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the user
func (s *Store) IssueToken(userID uuid.UUID, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(TokenExpiration)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve verifies a token and returns the caller's identity with the current
// role. The role comes from cache when fresh, from the role source otherwise.
func (s *Store) Resolve(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role, err := s.resolveRole(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Identity{UserID: userID, Email: claims.Email, Role: role}, nil
}

func (s *Store) roleKey(userID uuid.UUID) string {
	return fmt.Sprintf("session:role:%s", userID)
}

func (s *Store) resolveRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, s.roleKey(userID)).Result()
		if err == nil {
			role := models.Role(cached)
			if role.Valid() {
				return role, nil
			}
		}
	}

	role, err := s.roles.GetRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRoleUnresolved, err)
	}

	if s.rdb != nil {
		_ = s.rdb.Set(ctx, s.roleKey(userID), string(role), roleCacheTTL).Err()
	}
	return role, nil
}

// InvalidateRole drops the cached role so the next Resolve re-reads it
func (s *Store) InvalidateRole(ctx context.Context, userID uuid.UUID) {
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, s.roleKey(userID)).Err()
	}
}

// Subscribe registers a callback fired whenever a user's role changes
func (s *Store) Subscribe(fn func(userID uuid.UUID, role models.Role)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// NotifyRoleChange invalidates the cached role and notifies subscribers.
// Called by administration after a role update so in-flight sessions observe
// the new role on their next resolution.
func (s *Store) NotifyRoleChange(ctx context.Context, userID uuid.UUID, role models.Role) {
	s.InvalidateRole(ctx, userID)

	s.mu.RLock()
	subs := make([]func(uuid.UUID, models.Role), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(userID, role)
	}
}
