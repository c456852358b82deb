package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/util"
	"github.com/freekieb7/casetrack/internal/validator"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStorage fails every Set while failSet is true.
type flakyStorage struct {
	fiber.Storage
	failSet bool
}

func (f *flakyStorage) Set(key string, val []byte, exp time.Duration) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Storage.Set(key, val, exp)
}

func newTestManager(t *testing.T) (*Manager, *flakyStorage, *kv.Store) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := &flakyStorage{Storage: kv.NewMemory()}
	store, err := kv.New(logger, backend)
	require.NoError(t, err)

	auditor := audit.NewAuditor(logger)
	m, err := NewManager(context.Background(), logger, store, &auditor, validator.New(), nil)
	require.NoError(t, err)
	return m, backend, store
}

func TestManager_AddUser(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	before := time.Now().UTC()
	u, err := m.AddUser(ctx, AddUserParams{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, RoleUser, u.Role)
	assert.False(t, u.CreatedAt.Before(before.Add(-time.Second)))
	assert.Len(t, m.ListUsers(), 1)

	// duplicates are allowed
	_, err = m.AddUser(ctx, AddUserParams{Name: "Jane again", Email: "jane@example.com", Role: util.Some(RoleAdmin)})
	require.NoError(t, err)
	assert.Len(t, m.ListUsers(), 2)

	persisted, err := kv.Load(ctx, store, CollectionUsers, []User{})
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	managers, err := kv.Load(ctx, store, CollectionCaseManagers, []CaseManager(nil))
	require.NoError(t, err)
	assert.NotNil(t, managers, "case managers are written alongside users")
}

func TestManager_AddUser_Validation(t *testing.T) {
	m, _, _ := newTestManager(t)

	tests := []struct {
		name    string
		params  AddUserParams
		wantErr error
	}{
		{name: "invalid_role", params: AddUserParams{Name: "A", Email: "a@b.co", Role: util.Some(Role("root"))}, wantErr: ErrInvalidRole},
		{name: "case_manager_role", params: AddUserParams{Name: "A", Email: "a@b.co", Role: util.Some(RoleCaseManager)}, wantErr: ErrInvalidRole},
		{name: "invalid_email", params: AddUserParams{Name: "A", Email: "not-an-email"}, wantErr: validator.ErrValidation},
		{name: "missing_name", params: AddUserParams{Email: "a@b.co"}, wantErr: validator.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.AddUser(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, m.ListUsers())
		})
	}
}

func TestManager_UpdateUser(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	u, err := m.AddUser(ctx, AddUserParams{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	t.Run("not_found", func(t *testing.T) {
		got, err := m.UpdateUser(ctx, "missing", UpdateUserParams{Name: util.Some("X")})
		require.NoError(t, err)
		assert.False(t, got.IsSet)
	})

	t.Run("overwrites_only_set_fields", func(t *testing.T) {
		got, err := m.UpdateUser(ctx, u.ID, UpdateUserParams{Role: util.Some(RoleAdmin)})
		require.NoError(t, err)
		require.True(t, got.IsSet)

		updated := got.Unwrap()
		assert.Equal(t, RoleAdmin, updated.Role)
		assert.Equal(t, "Jane", updated.Name)
		assert.Equal(t, u.Email, updated.Email)
		assert.Equal(t, u.CreatedAt, updated.CreatedAt)
		assert.Equal(t, []User{updated}, m.ListUsers())
	})

	t.Run("invalid_role", func(t *testing.T) {
		_, err := m.UpdateUser(ctx, u.ID, UpdateUserParams{Role: util.Some(Role("owner"))})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("set_role", func(t *testing.T) {
		got, err := m.SetRole(ctx, u.ID, RoleUser)
		require.NoError(t, err)
		assert.Equal(t, RoleUser, got.Unwrap().Role)
	})
}

func TestManager_RemoveUser_Idempotent(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	u, err := m.AddUser(ctx, AddUserParams{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	require.NoError(t, m.RemoveUser(ctx, u.ID))
	assert.Empty(t, m.ListUsers())

	require.NoError(t, m.RemoveUser(ctx, u.ID))
	assert.Empty(t, m.ListUsers())
}

func TestManager_CaseManagers(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	cm, err := m.AddCaseManager(ctx, AddCaseManagerParams{Name: "Carl", Email: "carl@example.com"})
	require.NoError(t, err)
	assert.Equal(t, RoleCaseManager, cm.Role)
	assert.Equal(t, []CaseManager{cm}, m.ListCaseManagers())
	assert.Empty(t, m.ListUsers())

	_, err = m.AddCaseManager(ctx, AddCaseManagerParams{Name: "Bad", Email: "bad"})
	assert.ErrorIs(t, err, validator.ErrValidation)

	require.NoError(t, m.RemoveCaseManager(ctx, cm.ID))
	require.NoError(t, m.RemoveCaseManager(ctx, cm.ID))
	assert.Empty(t, m.ListCaseManagers())
}

func TestManager_IsAdmin(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddUser(ctx, AddUserParams{Name: "Ann", Email: "ann@example.com", Role: util.Some(RoleAdmin)})
	require.NoError(t, err)
	_, err = m.AddUser(ctx, AddUserParams{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name string
		who  util.Optional[identity.Identity]
		want bool
	}{
		{name: "admin", who: util.Some(identity.Identity{Email: "ann@example.com"}), want: true},
		{name: "admin_mixed_case", who: util.Some(identity.Identity{Email: "Ann@Example.com"}), want: true},
		{name: "plain_user", who: util.Some(identity.Identity{Email: "bob@example.com"})},
		{name: "unknown", who: util.Some(identity.Identity{Email: "eve@example.com"})},
		{name: "signed_out", who: util.None[identity.Identity]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsAdmin(tt.who))
		})
	}
}

func TestManager_EnsureUser(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	who := identity.Identity{DisplayName: "Jane", Email: "jane@example.com"}

	u, created, err := m.EnsureUser(ctx, who)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "Jane", u.Name)

	again, created, err := m.EnsureUser(ctx, who)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u, again)
	assert.Len(t, m.ListUsers(), 1)
}

func TestManager_PersistFailureKeepsState(t *testing.T) {
	m, backend, _ := newTestManager(t)
	ctx := context.Background()

	u, err := m.AddUser(ctx, AddUserParams{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)

	backend.failSet = true

	_, err = m.AddUser(ctx, AddUserParams{Name: "Bob", Email: "bob@example.com"})
	assert.Error(t, err)

	_, err = m.UpdateUser(ctx, u.ID, UpdateUserParams{Name: util.Some("Changed")})
	assert.Error(t, err)

	assert.Error(t, m.RemoveUser(ctx, u.ID))
	assert.Equal(t, []User{u}, m.ListUsers())
}

func TestNewManager_LoadsPersistedCollections(t *testing.T) {
	m, backend, store := newTestManager(t)
	ctx := context.Background()

	u, err := m.AddUser(ctx, AddUserParams{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)
	cm, err := m.AddCaseManager(ctx, AddCaseManagerParams{Name: "Carl", Email: "carl@example.com"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditor := audit.NewAuditor(logger)
	reloaded, err := NewManager(ctx, logger, store, &auditor, validator.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, []User{u}, reloaded.ListUsers())
	assert.Equal(t, []CaseManager{cm}, reloaded.ListCaseManagers())
	assert.False(t, backend.failSet)
}

func TestManager_ProvisionOnSignIn(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()
	listener := m.ProvisionOnSignIn()

	listener(ctx, util.None[identity.Identity]())
	assert.Empty(t, m.ListUsers())

	listener(ctx, util.Some(identity.Identity{DisplayName: "Jane", Email: "jane@example.com"}))
	listener(ctx, util.Some(identity.Identity{DisplayName: "Jane", Email: "JANE@example.com"}))

	users := m.ListUsers()
	require.Len(t, users, 1)
	assert.Equal(t, "jane@example.com", users[0].Email)
	assert.Equal(t, RoleUser, users[0].Role)
}
