package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Novicer18/lexadvisor/models"
)

type fakeRoleSource struct {
	roles map[uuid.UUID]models.Role
	calls int
}

func (f *fakeRoleSource) GetRole(ctx context.Context, userID uuid.UUID) (models.Role, error) {
	f.calls++
	return f.roles[userID], nil
}

func newTestStore(t *testing.T, roles *fakeRoleSource) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStore("test-secret", roles, rdb)
}

func TestStoreTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	roles := &fakeRoleSource{roles: map[uuid.UUID]models.Role{userID: models.RoleLegalAnalyst}}
	store := newTestStore(t, roles)

	token, _, err := store.IssueToken(userID, "analyst@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	ident, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.UserID != userID {
		t.Errorf("expected user %s, got %s", userID, ident.UserID)
	}
	if ident.Email != "analyst@example.com" {
		t.Errorf("unexpected email %q", ident.Email)
	}
	if ident.Role != models.RoleLegalAnalyst {
		t.Errorf("expected role %q, got %q", models.RoleLegalAnalyst, ident.Role)
	}
}

func TestStoreRejectsForgedToken(t *testing.T) {
	userID := uuid.New()
	roles := &fakeRoleSource{roles: map[uuid.UUID]models.Role{userID: models.RoleUser}}
	store := newTestStore(t, roles)

	other := NewStore("other-secret", roles, nil)
	forged, _, err := other.IssueToken(userID, "attacker@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := store.Resolve(context.Background(), forged); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestStoreCachesRoleUntilChangeNotification(t *testing.T) {
	userID := uuid.New()
	roles := &fakeRoleSource{roles: map[uuid.UUID]models.Role{userID: models.RoleUser}}
	store := newTestStore(t, roles)

	token, _, err := store.IssueToken(userID, "u@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := store.Resolve(ctx, token); err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
	}
	if roles.calls != 1 {
		t.Fatalf("expected 1 role lookup while cached, got %d", roles.calls)
	}

	// Promote the user; the change notification must bust the cache
	roles.roles[userID] = models.RoleAdmin
	store.NotifyRoleChange(ctx, userID, models.RoleAdmin)

	ident, err := store.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve after change: %v", err)
	}
	if ident.Role != models.RoleAdmin {
		t.Errorf("expected role to re-resolve to admin, got %q", ident.Role)
	}
	if roles.calls != 2 {
		t.Errorf("expected a fresh role lookup after invalidation, got %d calls", roles.calls)
	}
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	userID := uuid.New()
	roles := &fakeRoleSource{roles: map[uuid.UUID]models.Role{userID: models.RoleUser}}
	store := newTestStore(t, roles)

	var gotUser uuid.UUID
	var gotRole models.Role
	store.Subscribe(func(id uuid.UUID, role models.Role) {
		gotUser = id
		gotRole = role
	})

	store.NotifyRoleChange(context.Background(), userID, models.RoleLegalAnalyst)

	if gotUser != userID {
		t.Errorf("subscriber got user %s, want %s", gotUser, userID)
	}
	if gotRole != models.RoleLegalAnalyst {
		t.Errorf("subscriber got role %q, want %q", gotRole, models.RoleLegalAnalyst)
	}
}

func TestStoreWorksWithoutRedis(t *testing.T) {
	userID := uuid.New()
	roles := &fakeRoleSource{roles: map[uuid.UUID]models.Role{userID: models.RoleUser}}
	store := NewStore("test-secret", roles, nil)

	token, _, err := store.IssueToken(userID, "u@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	ident, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ident.Role != models.RoleUser {
		t.Errorf("expected role user, got %q", ident.Role)
	}
}
