package repositories

import (
	"context"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
)

// Repository is the durable backing store for session state, keyed by
// session id. Implementations must be safe for concurrent use: sessions
// address disjoint keys, but different session actors call in parallel.
type Repository interface {
	Close(ctx context.Context) error
	// SaveSession atomically overwrites the record for state.ID.
	SaveSession(ctx context.Context, state *gametypes.SessionState) error
	// LoadSession returns the record for a session id, or ErrNotFound.
	LoadSession(ctx context.Context, id string) (*gametypes.SessionState, error)
}
