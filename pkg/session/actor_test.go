package session

import (
	"context"
	"fmt"
	"sync"
	"testing"

	gametypes "github.com/gridgames/gridlock/pkg/game/types"
	"github.com/gridgames/gridlock/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBroadcaster captures broadcast states in order.
type recordingBroadcaster struct {
	lock   sync.Mutex
	states []*gametypes.SessionState
}

func (b *recordingBroadcaster) Broadcast(sessionID string, state *gametypes.SessionState) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.states = append(b.states, state.Clone())
}

func (b *recordingBroadcaster) count() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.states)
}

// failingRepository fails saves on demand.
type failingRepository struct {
	repositories.Repository
	lock     sync.Mutex
	failSave bool
}

func (r *failingRepository) setFailSave(fail bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failSave = fail
}

func (r *failingRepository) SaveSession(ctx context.Context, state *gametypes.SessionState) error {
	r.lock.Lock()
	fail := r.failSave
	r.lock.Unlock()
	if fail {
		return fmt.Errorf("save failed")
	}
	return r.Repository.SaveSession(ctx, state)
}

func startTestActor(t *testing.T, repo repositories.Repository, broadcaster Broadcaster) *Actor {
	t.Helper()
	actor := NewActor(NewActorOptions{
		ID:          "test-session",
		Repository:  repo,
		Broadcaster: broadcaster,
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go actor.Start(ctx)
	return actor
}

func TestActor_OperationsBeforeInitializeFailNotReady(t *testing.T) {
	actor := startTestActor(t, repositories.NewInMemoryRepository(), nil)
	ctx := context.Background()

	_, err := actor.Join(ctx)
	assert.True(t, IsNotReady(err))
	_, err = actor.Move(ctx, 0, "p1")
	assert.True(t, IsNotReady(err))
	err = actor.Reset(ctx)
	assert.True(t, IsNotReady(err))
	_, err = actor.State()
	assert.True(t, IsNotReady(err))
}

func TestActor_InitializeIsIdempotent(t *testing.T) {
	repo := repositories.NewInMemoryRepository()
	actor := startTestActor(t, repo, nil)
	ctx := context.Background()

	require.NoError(t, actor.Initialize(ctx))
	playerID, err := actor.Join(ctx)
	require.NoError(t, err)

	// a second initialize does not clobber the active state
	require.NoError(t, actor.Initialize(ctx))
	state, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, []string{playerID}, state.Players)
}

func TestActor_InitializeLoadsDurableRecord(t *testing.T) {
	repo := repositories.NewInMemoryRepository()
	ctx := context.Background()

	stored := gametypes.NewSessionState("test-session")
	stored.Players = append(stored.Players, "p1", "p2")
	stored.Board[0] = gametypes.MarkX
	stored.Turn = 1
	require.NoError(t, repo.SaveSession(ctx, stored))

	actor := startTestActor(t, repo, nil)
	require.NoError(t, actor.Initialize(ctx))

	state, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, state.Players)
	assert.Equal(t, gametypes.MarkX, state.Board[0])
	assert.Equal(t, 1, state.Turn)
}

func TestActor_JoinScenario(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	actor := startTestActor(t, repositories.NewInMemoryRepository(), broadcaster)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	p2, err := actor.Join(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)

	_, err = actor.Join(ctx)
	assert.True(t, IsSessionFull(err))
	assert.False(t, IsInvalidMove(err))

	// two joins committed, the rejected one did not broadcast
	assert.Equal(t, 2, broadcaster.count())
}

func TestActor_MoveScenario(t *testing.T) {
	actor := startTestActor(t, repositories.NewInMemoryRepository(), nil)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	p2, err := actor.Join(ctx)
	require.NoError(t, err)

	state, err := actor.Move(ctx, 0, p1)
	require.NoError(t, err)
	assert.Equal(t, gametypes.MarkX, state.Board[0])
	assert.Equal(t, 1, state.Turn)

	// occupied cell
	_, err = actor.Move(ctx, 0, p2)
	assert.True(t, IsInvalidMove(err))

	// out of turn
	_, err = actor.Move(ctx, 1, p1)
	assert.True(t, IsInvalidMove(err))

	// unknown participant
	_, err = actor.Move(ctx, 1, "nobody")
	assert.True(t, IsInvalidMove(err))

	state, err = actor.Move(ctx, 1, p2)
	require.NoError(t, err)
	assert.Equal(t, gametypes.MarkO, state.Board[1])
	assert.Equal(t, 0, state.Turn)
}

func TestActor_WinEndsTheGame(t *testing.T) {
	actor := startTestActor(t, repositories.NewInMemoryRepository(), nil)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	p2, err := actor.Join(ctx)
	require.NoError(t, err)

	var state *gametypes.SessionState
	moves := []struct {
		cell   int
		player string
	}{
		{0, p1}, {3, p2}, {1, p1}, {4, p2}, {2, p1},
	}
	for _, m := range moves {
		state, err = actor.Move(ctx, m.cell, m.player)
		require.NoError(t, err)
	}
	assert.Equal(t, gametypes.OutcomeX, state.Outcome)

	_, err = actor.Move(ctx, 5, p2)
	assert.True(t, IsInvalidMove(err))

	// board is unchanged after the rejection
	current, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, state.Board, current.Board)
}

func TestActor_ResetPreservesParticipants(t *testing.T) {
	actor := startTestActor(t, repositories.NewInMemoryRepository(), nil)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	p2, err := actor.Join(ctx)
	require.NoError(t, err)
	_, err = actor.Move(ctx, 0, p1)
	require.NoError(t, err)

	require.NoError(t, actor.Reset(ctx))

	state, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, state.Players)
	assert.Equal(t, gametypes.Board{}, state.Board)
	assert.Equal(t, 0, state.Turn)
	assert.Equal(t, gametypes.OutcomeNone, state.Outcome)
}

func TestActor_ConcurrentMovesSameCell(t *testing.T) {
	actor := startTestActor(t, repositories.NewInMemoryRepository(), nil)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	p2, err := actor.Join(ctx)
	require.NoError(t, err)

	// Two simultaneous moves for the same cell: exactly one commits, the
	// other sees the committed state and is rejected.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, player := range []string{p1, p2} {
		wg.Add(1)
		go func(player string) {
			defer wg.Done()
			_, err := actor.Move(ctx, 4, player)
			errs <- err
		}(player)
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, IsInvalidMove(err))
			rejected++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, rejected)

	state, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, gametypes.MarkX, state.Board[4])
}

func TestActor_PersistFailureAbortsMutation(t *testing.T) {
	repo := &failingRepository{Repository: repositories.NewInMemoryRepository()}
	broadcaster := &recordingBroadcaster{}
	actor := startTestActor(t, repo, broadcaster)
	ctx := context.Background()
	require.NoError(t, actor.Initialize(ctx))

	p1, err := actor.Join(ctx)
	require.NoError(t, err)
	before, err := actor.State()
	require.NoError(t, err)
	broadcastsBefore := broadcaster.count()

	repo.setFailSave(true)
	_, err = actor.Move(ctx, 0, p1)
	assert.True(t, IsPersistenceFailure(err))

	// no broadcast, and the session is exactly as it was
	assert.Equal(t, broadcastsBefore, broadcaster.count())
	after, err := actor.State()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// the mutation succeeds once persistence recovers
	repo.setFailSave(false)
	state, err := actor.Move(ctx, 0, p1)
	require.NoError(t, err)
	assert.Equal(t, gametypes.MarkX, state.Board[0])
}

func TestActor_StoppedActorFailsFast(t *testing.T) {
	actor := NewActor(NewActorOptions{
		ID:         "test-session",
		Repository: repositories.NewInMemoryRepository(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		actor.Start(ctx)
		close(done)
	}()
	cancel()
	<-done

	err := actor.Initialize(context.Background())
	assert.Equal(t, ErrStopped, err)
}
