package session

import (
	"context"
	"sync"
	"testing"

	"github.com/gridgames/gridlock/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_ResolveReturnsSameActor(t *testing.T) {
	directory := NewDirectory(NewDirectoryOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
	defer directory.Close()
	ctx := context.Background()

	first, err := directory.Resolve(ctx, "session-a")
	require.NoError(t, err)
	second, err := directory.Resolve(ctx, "session-a")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := directory.Resolve(ctx, "session-b")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestDirectory_ConcurrentResolvesConverge(t *testing.T) {
	directory := NewDirectory(NewDirectoryOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
	defer directory.Close()
	ctx := context.Background()

	const resolvers = 16
	actors := make([]*Actor, resolvers)
	var wg sync.WaitGroup
	for i := 0; i < resolvers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			actor, err := directory.Resolve(ctx, "session-a")
			assert.NoError(t, err)
			actors[i] = actor
		}(i)
	}
	wg.Wait()

	for i := 1; i < resolvers; i++ {
		assert.Same(t, actors[0], actors[i])
	}
}

func TestDirectory_ResolveInitializesActor(t *testing.T) {
	repo := repositories.NewInMemoryRepository()
	directory := NewDirectory(NewDirectoryOptions{
		Repository: repo,
	})
	defer directory.Close()
	ctx := context.Background()

	actor, err := directory.Resolve(ctx, "session-a")
	require.NoError(t, err)

	// the default record was persisted on first reference
	state, err := repo.LoadSession(ctx, "session-a")
	require.NoError(t, err)
	assert.Empty(t, state.Players)

	_, err = actor.State()
	assert.NoError(t, err)
}

func TestDirectory_SessionsAreIndependent(t *testing.T) {
	directory := NewDirectory(NewDirectoryOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
	defer directory.Close()
	ctx := context.Background()

	a, err := directory.Resolve(ctx, "session-a")
	require.NoError(t, err)
	b, err := directory.Resolve(ctx, "session-b")
	require.NoError(t, err)

	p1, err := a.Join(ctx)
	require.NoError(t, err)
	_, err = a.Join(ctx)
	require.NoError(t, err)
	_, err = a.Move(ctx, 0, p1)
	require.NoError(t, err)

	stateB, err := b.State()
	require.NoError(t, err)
	assert.Empty(t, stateB.Players)
}

func TestDirectory_CloseStopsActors(t *testing.T) {
	directory := NewDirectory(NewDirectoryOptions{
		Repository: repositories.NewInMemoryRepository(),
	})
	ctx := context.Background()

	actor, err := directory.Resolve(ctx, "session-a")
	require.NoError(t, err)

	directory.Close()

	_, err = actor.Join(ctx)
	assert.Equal(t, ErrStopped, err)
}
