package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/gridgames/gridlock/pkg/game"
	gametypes "github.com/gridgames/gridlock/pkg/game/types"
	"github.com/gridgames/gridlock/pkg/repositories"
)

const (
	// RequestBufferSize is the capacity of an actor's request queue.
	RequestBufferSize = 64
)

// Broadcaster pushes a committed session state to all live connections for
// a session. Pushes are best-effort and must not fail the caller.
type Broadcaster interface {
	Broadcast(sessionID string, state *gametypes.SessionState)
}

// Actor is the single writer for one session. All mutating operations are
// funneled through its request queue and processed strictly sequentially by
// the Start loop, so no two mutations ever interleave their read-modify-write
// against the session state. Every committed mutation is persisted before it
// is published or broadcast.
type Actor struct {
	id          string
	repository  repositories.Repository
	broadcaster Broadcaster

	requests chan func()
	stopOnce sync.Once
	stopped  chan struct{}

	// stateLock guards state, the last committed session state. Only the
	// Start loop writes it; State reads it without entering the queue.
	stateLock sync.RWMutex
	state     *gametypes.SessionState
}

type NewActorOptions struct {
	ID          string
	Repository  repositories.Repository
	Broadcaster Broadcaster
}

// NewActor creates a new Actor. The caller must run Start for operations to
// make progress.
func NewActor(opts NewActorOptions) *Actor {
	return &Actor{
		id:          opts.ID,
		repository:  opts.Repository,
		broadcaster: opts.Broadcaster,
		requests:    make(chan func(), RequestBufferSize),
		stopped:     make(chan struct{}),
	}
}

// ID returns the session id this actor owns.
func (a *Actor) ID() string {
	return a.id
}

// Start processes queued operations one at a time until ctx is cancelled.
func (a *Actor) Start(ctx context.Context) {
	defer a.stopOnce.Do(func() { close(a.stopped) })
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-a.requests:
			fn()
		}
	}
}

// do submits fn to the serialization loop and waits for it to complete.
func (a *Actor) do(fn func()) error {
	done := make(chan struct{})
	select {
	case a.requests <- func() {
		defer close(done)
		fn()
	}:
	case <-a.stopped:
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-a.stopped:
		return ErrStopped
	}
}

// current returns the last committed state without copying.
func (a *Actor) current() *gametypes.SessionState {
	a.stateLock.RLock()
	defer a.stateLock.RUnlock()
	return a.state
}

func (a *Actor) setCurrent(state *gametypes.SessionState) {
	a.stateLock.Lock()
	defer a.stateLock.Unlock()
	a.state = state
}

// commit persists next and, only after the durable write succeeds, publishes
// it as the current state and fans it out to live connections. On failure the
// previous state remains current and nothing is broadcast.
func (a *Actor) commit(ctx context.Context, next *gametypes.SessionState) error {
	if err := a.repository.SaveSession(ctx, next); err != nil {
		return &ErrPersistenceFailure{Cause: err}
	}
	a.setCurrent(next)
	if a.broadcaster != nil {
		a.broadcaster.Broadcast(a.id, next)
	}
	return nil
}

// Initialize activates the actor: it loads the durable record for the
// session, or creates and persists the default state when none exists.
// It is idempotent; once active it is a no-op. Other operations fail with
// ErrNotReady until an Initialize succeeds.
func (a *Actor) Initialize(ctx context.Context) error {
	var opErr error
	if err := a.do(func() {
		if a.current() != nil {
			return
		}
		state, err := a.repository.LoadSession(ctx, a.id)
		if err != nil {
			if !repositories.IsNotFound(err) {
				opErr = &ErrPersistenceFailure{Cause: err}
				return
			}
			state = gametypes.NewSessionState(a.id)
			if err := a.repository.SaveSession(ctx, state); err != nil {
				opErr = &ErrPersistenceFailure{Cause: err}
				return
			}
		}
		a.setCurrent(state)
	}); err != nil {
		return err
	}
	return opErr
}

// Join appends a fresh participant id and returns it, or ErrSessionFull when
// two participants already hold the slots. Slot occupants never change until
// a full reinitialization of the id.
func (a *Actor) Join(ctx context.Context) (string, error) {
	var playerID string
	var opErr error
	if err := a.do(func() {
		state := a.current()
		if state == nil {
			opErr = &ErrNotReady{}
			return
		}
		if len(state.Players) >= gametypes.MaxPlayers {
			opErr = &ErrSessionFull{}
			return
		}
		next := state.Clone()
		next.Players = append(next.Players, uuid.New().String())
		if err := a.commit(ctx, next); err != nil {
			opErr = err
			return
		}
		playerID = next.Players[len(next.Players)-1]
	}); err != nil {
		return "", err
	}
	if opErr != nil {
		return "", opErr
	}
	return playerID, nil
}

// Move applies a move for playerID at cell and returns the committed state.
// Rejections (wrong participant, out-of-range or occupied cell, finished
// game) surface as ErrInvalidMove.
func (a *Actor) Move(ctx context.Context, cell int, playerID string) (*gametypes.SessionState, error) {
	var snapshot *gametypes.SessionState
	var opErr error
	if err := a.do(func() {
		state := a.current()
		if state == nil {
			opErr = &ErrNotReady{}
			return
		}
		if state.Turn >= len(state.Players) || state.Players[state.Turn] != playerID {
			opErr = &ErrInvalidMove{Reason: ErrNotYourTurn}
			return
		}
		result, err := game.ApplyMove(state.Board, state.Turn, state.Outcome, cell)
		if err != nil {
			opErr = &ErrInvalidMove{Reason: err}
			return
		}
		next := state.Clone()
		next.Board = result.Board
		next.Turn = result.Turn
		next.Outcome = result.Outcome
		if err := a.commit(ctx, next); err != nil {
			opErr = err
			return
		}
		snapshot = next.Clone()
	}); err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	return snapshot, nil
}

// Reset clears the board, turn, and outcome to defaults while preserving the
// current participants, so the same pair keeps playing without re-joining.
func (a *Actor) Reset(ctx context.Context) error {
	var opErr error
	if err := a.do(func() {
		state := a.current()
		if state == nil {
			opErr = &ErrNotReady{}
			return
		}
		next := gametypes.NewSessionState(a.id)
		next.Players = append(next.Players, state.Players...)
		if err := a.commit(ctx, next); err != nil {
			opErr = err
		}
	}); err != nil {
		return err
	}
	return opErr
}

// State returns a read-only snapshot of the last committed state. Reads do
// not enter the request queue, so a snapshot may trail an in-flight mutation
// by at most one commit; it never observes a session mid-mutation.
func (a *Actor) State() (*gametypes.SessionState, error) {
	state := a.current()
	if state == nil {
		return nil, &ErrNotReady{}
	}
	return state.Clone(), nil
}
