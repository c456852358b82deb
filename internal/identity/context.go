package identity

import (
	"context"

	"github.com/freekieb7/casetrack/internal/util"
)

type contextKey struct{}

// NewContext returns ctx carrying identity. Only audit logging reads it back;
// services that act on behalf of a user take the actor as an argument.
func NewContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

func FromContext(ctx context.Context) util.Optional[Identity] {
	if identity, ok := ctx.Value(contextKey{}).(Identity); ok {
		return util.Some(identity)
	}
	return util.None[Identity]()
}
