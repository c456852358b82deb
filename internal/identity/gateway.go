package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/freekieb7/casetrack/internal/audit"
	"github.com/freekieb7/casetrack/internal/util"
)

// Listener is called with the new identity after every sign-in (Some) and
// sign-out (None).
type Listener func(ctx context.Context, identity util.Optional[Identity])

type Gateway struct {
	logger   *slog.Logger
	provider Provider
	auditor  *audit.Auditor

	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewGateway(logger *slog.Logger, provider Provider, auditor *audit.Auditor) *Gateway {
	return &Gateway{
		logger:    logger,
		provider:  provider,
		auditor:   auditor,
		listeners: make(map[int]Listener),
	}
}

func (g *Gateway) LoginURL(state, verifier string) string {
	return g.provider.AuthCodeURL(state, verifier)
}

// SignIn authenticates creds with the provider and notifies listeners.
func (g *Gateway) SignIn(ctx context.Context, creds Credentials) (Identity, error) {
	identity, err := g.provider.Authenticate(ctx, creds)
	if err != nil {
		g.logger.Warn("sign-in failed", "error", err)
		return Identity{}, fmt.Errorf("failed to sign in: %w", err)
	}

	if err := g.auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: identity.Label(),
		Type:  audit.AuditLogEventTypeIdentitySignIn,
		Data:  map[string]any{"email": identity.Email},
	}); err != nil {
		g.logger.Error("failed to log audit event", "error", err)
	}

	g.notify(ctx, util.Some(identity))
	return identity, nil
}

// SignOut notifies listeners that identity is no longer signed in.
func (g *Gateway) SignOut(ctx context.Context, identity Identity) {
	if err := g.auditor.LogEvent(ctx, audit.LogEventParam{
		Actor: identity.Label(),
		Type:  audit.AuditLogEventTypeIdentitySignOut,
		Data:  map[string]any{"email": identity.Email},
	}); err != nil {
		g.logger.Error("failed to log audit event", "error", err)
	}

	g.notify(ctx, util.None[Identity]())
}

// OnChange registers l and returns a function that removes it again.
func (g *Gateway) OnChange(l Listener) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.nextID
	g.nextID++
	g.listeners[id] = l

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

func (g *Gateway) notify(ctx context.Context, identity util.Optional[Identity]) {
	g.mu.RLock()
	listeners := make([]Listener, 0, len(g.listeners))
	for _, l := range g.listeners {
		listeners = append(listeners, l)
	}
	g.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, identity)
	}
}
