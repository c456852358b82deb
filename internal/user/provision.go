package user

import (
	"context"

	"github.com/freekieb7/casetrack/internal/identity"
	"github.com/freekieb7/casetrack/internal/util"
)

// ProvisionOnSignIn returns an identity listener that makes sure every
// signed-in identity has a user record. Sign-outs are ignored.
func (m *Manager) ProvisionOnSignIn() identity.Listener {
	return func(ctx context.Context, who util.Optional[identity.Identity]) {
		id, ok := who.Get()
		if !ok {
			return
		}

		if _, _, err := m.EnsureUser(ctx, id); err != nil {
			m.logger.Error("failed to provision signed-in user", "email", id.Email, "error", err)
		}
	}
}
