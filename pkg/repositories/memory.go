package repositories

import (
	"context"
	"fmt"
	"sync"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
)

// InMemoryRepository keeps session records in process memory. It is meant
// for tests and single-node development runs; records do not survive a
// restart.
type InMemoryRepository struct {
	lock     sync.RWMutex
	sessions map[string]*gametypes.SessionState
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*gametypes.SessionState),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) SaveSession(ctx context.Context, state *gametypes.SessionState) error {
	if state == nil {
		return fmt.Errorf("session state is nil")
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	r.sessions[state.ID] = state.Clone()
	return nil
}

func (r *InMemoryRepository) LoadSession(ctx context.Context, id string) (*gametypes.SessionState, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	state, ok := r.sessions[id]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return state.Clone(), nil
}
