package user

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/kv"
	"github.com/freekieb7/casetrack/internal/telemetry"
	"github.com/freekieb7/casetrack/internal/util"
	"github.com/freekieb7/casetrack/internal/validator"
)

// Manager is the user and case manager directory. Every mutation writes both
// collections before the in-memory copy is replaced.
type Manager struct {
	logger    *slog.Logger
	store     *kv.Store
	auditor   *audit.Auditor
	validator *validator.Validator
	metrics   *telemetry.Metrics
	now       func() time.Time

	mu           sync.Mutex
	users        []User
	caseManagers []CaseManager
}

func NewManager(ctx context.Context, logger *slog.Logger, store *kv.Store, auditor *audit.Auditor, validator *validator.Validator, metrics *telemetry.Metrics) (*Manager, error) {
	users, err := kv.Load(ctx, store, CollectionUsers, []User{})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	caseManagers, err := kv.Load(ctx, store, CollectionCaseManagers, []CaseManager{})
	if err != nil {
		return nil, fmt.Errorf("failed to load case managers: %w", err)
	}

	if users == nil {
		users = []User{}
	}
	if caseManagers == nil {
		caseManagers = []CaseManager{}
	}

	return &Manager{
		logger:       logger,
		store:        store,
		auditor:      auditor,
		validator:    validator,
		metrics:      metrics,
		now:          time.Now,
		users:        users,
		caseManagers: caseManagers,
	}, nil
}

type AddUserParams struct {
	Name  string              `validate:"required,max=200"`
	Email string              `validate:"required,email"`
	Role  util.Optional[Role] `validate:"-"`
}

func (m *Manager) AddUser(ctx context.Context, params AddUserParams) (User, error) {
	role := params.Role.UnwrapOr(RoleUser)
	if err := m.validateRole(role); err != nil {
		return User{}, err
	}
	if err := m.validator.Validate(params); err != nil {
		return User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user := User{
		ID:        util.NewID(),
		Name:      params.Name,
		Email:     params.Email,
		Role:      role,
		CreatedAt: m.now().UTC(),
	}

	users := append(slices.Clone(m.users), user)
	if err := m.persist(ctx, users, m.caseManagers); err != nil {
		return User{}, err
	}

	m.audit(ctx, audit.AuditLogEventTypeUserCreate, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})

	return user, nil
}

// UpdateUserParams overwrites only the fields that are set.
type UpdateUserParams struct {
	Name  util.Optional[string]
	Email util.Optional[string]
	Role  util.Optional[Role]
}

func (m *Manager) UpdateUser(ctx context.Context, id string, params UpdateUserParams) (util.Optional[User], error) {
	if name, ok := params.Name.Get(); ok {
		if err := m.validator.Var(name, "required,max=200"); err != nil {
			return util.None[User](), err
		}
	}
	if email, ok := params.Email.Get(); ok {
		if err := m.validator.Var(email, "required,email"); err != nil {
			return util.None[User](), err
		}
	}
	if role, ok := params.Role.Get(); ok {
		if err := m.validateRole(role); err != nil {
			return util.None[User](), err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := slices.IndexFunc(m.users, func(u User) bool { return u.ID == id })
	if idx < 0 {
		return util.None[User](), nil
	}

	users := slices.Clone(m.users)
	user := users[idx]
	if name, ok := params.Name.Get(); ok {
		user.Name = name
	}
	if email, ok := params.Email.Get(); ok {
		user.Email = email
	}
	if role, ok := params.Role.Get(); ok {
		user.Role = role
	}
	users[idx] = user

	if err := m.persist(ctx, users, m.caseManagers); err != nil {
		return util.None[User](), err
	}

	m.audit(ctx, audit.AuditLogEventTypeUserUpdate, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})

	return util.Some(user), nil
}

// SetRole changes the role of user id.
func (m *Manager) SetRole(ctx context.Context, id string, role Role) (util.Optional[User], error) {
	return m.UpdateUser(ctx, id, UpdateUserParams{Role: util.Some(role)})
}

// RemoveUser deletes user id. Removing an unknown id is not an error.
func (m *Manager) RemoveUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := slices.DeleteFunc(slices.Clone(m.users), func(u User) bool { return u.ID == id })
	removed := len(users) != len(m.users)

	if err := m.persist(ctx, users, m.caseManagers); err != nil {
		return err
	}

	if removed {
		m.audit(ctx, audit.AuditLogEventTypeUserDelete, map[string]any{"user_id": id})
	}
	return nil
}

type AddCaseManagerParams struct {
	Name  string `validate:"required,max=200"`
	Email string `validate:"required,email"`
}

func (m *Manager) AddCaseManager(ctx context.Context, params AddCaseManagerParams) (CaseManager, error) {
	if err := m.validator.Validate(params); err != nil {
		return CaseManager{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	manager := CaseManager{
		ID:        util.NewID(),
		Name:      params.Name,
		Email:     params.Email,
		Role:      RoleCaseManager,
		CreatedAt: m.now().UTC(),
	}

	caseManagers := append(slices.Clone(m.caseManagers), manager)
	if err := m.persist(ctx, m.users, caseManagers); err != nil {
		return CaseManager{}, err
	}

	m.audit(ctx, audit.AuditLogEventTypeCaseManagerCreate, map[string]any{
		"case_manager_id": manager.ID,
		"email":           manager.Email,
	})

	return manager, nil
}

// RemoveCaseManager deletes case manager id. Cases that reference the email
// keep it.
func (m *Manager) RemoveCaseManager(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	caseManagers := slices.DeleteFunc(slices.Clone(m.caseManagers), func(cm CaseManager) bool { return cm.ID == id })
	removed := len(caseManagers) != len(m.caseManagers)

	if err := m.persist(ctx, m.users, caseManagers); err != nil {
		return err
	}

	if removed {
		m.audit(ctx, audit.AuditLogEventTypeCaseManagerDelete, map[string]any{"case_manager_id": id})
	}
	return nil
}

func (m *Manager) ListUsers() []User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.users)
}

func (m *Manager) ListCaseManagers() []CaseManager {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.caseManagers)
}

// GetUserByEmail returns the first user whose email matches, ignoring case.
func (m *Manager) GetUserByEmail(email string) util.Optional[User] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByEmail(email)
}

// IsAdmin reports whether the signed-in identity belongs to an admin user.
func (m *Manager) IsAdmin(who util.Optional[identity.Identity]) bool {
	id, ok := who.Get()
	if !ok || id.Email == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if strings.EqualFold(u.Email, id.Email) && u.Role == RoleAdmin {
			return true
		}
	}
	return false
}

// EnsureUser returns the user for identity, creating one with role user when
// no user has that email yet. The bool reports whether a user was created.
func (m *Manager) EnsureUser(ctx context.Context, who identity.Identity) (User, bool, error) {
	if existing, ok := m.GetUserByEmail(who.Email).Get(); ok {
		return existing, false, nil
	}

	name := who.DisplayName
	if name == "" {
		name = who.Email
	}

	user, err := m.AddUser(ctx, AddUserParams{
		Name:  name,
		Email: who.Email,
		Role:  util.Some(RoleUser),
	})
	if err != nil {
		return User{}, false, fmt.Errorf("failed to provision user: %w", err)
	}

	m.metrics.UserProvisioned(ctx)
	m.logger.Info("provisioned user on first sign-in", "user_id", user.ID, "email", user.Email)
	return user, true, nil
}

func (m *Manager) findByEmail(email string) util.Optional[User] {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return util.Some(u)
		}
	}
	return util.None[User]()
}

func (m *Manager) validateRole(role Role) error {
	if err := m.validator.Var(string(role), "user_role"); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidRole, role, err)
	}
	return nil
}

// persist writes both collections and swaps them in. The caller holds m.mu.
func (m *Manager) persist(ctx context.Context, users []User, caseManagers []CaseManager) error {
	if err := m.store.Save(ctx, CollectionUsers, users); err != nil {
		m.logger.Error("failed to persist users", "error", err)
		return fmt.Errorf("failed to persist users: %w", err)
	}
	if err := m.store.Save(ctx, CollectionCaseManagers, caseManagers); err != nil {
		m.logger.Error("failed to persist case managers", "error", err)
		return fmt.Errorf("failed to persist case managers: %w", err)
	}

	m.users = users
	m.caseManagers = caseManagers
	return nil
}

func (m *Manager) audit(ctx context.Context, eventType audit.AuditLogEventType, data map[string]any) {
	actor := ""
	if who, ok := identity.FromContext(ctx).Get(); ok {
		actor = who.Label()
	}

	if err := m.auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: actor,
		Type:  eventType,
		Data:  data,
	}); err != nil {
		m.logger.Error("failed to log audit event", "type", eventType, "error", err)
	}
}
