package session

import (
	"context"
	"sync"

	"github.com/gridgames/gridlock/pkg/repositories"
)

// Directory maps session ids to exactly one running Actor each. Actors are
// created lazily on first reference; concurrent resolutions of the same id
// converge on the same instance, so a session's durable record only ever has
// one in-memory owner in this process.
type Directory struct {
	repository  repositories.Repository
	broadcaster Broadcaster

	lock   sync.Mutex
	actors map[string]*actorEntry
}

type actorEntry struct {
	actor  *Actor
	cancel context.CancelFunc
}

type NewDirectoryOptions struct {
	Repository  repositories.Repository
	Broadcaster Broadcaster
}

func NewDirectory(opts NewDirectoryOptions) *Directory {
	return &Directory{
		repository:  opts.Repository,
		broadcaster: opts.Broadcaster,
		actors:      make(map[string]*actorEntry),
	}
}

// Resolve returns the actor owning the session id, creating and starting it
// on first reference. The actor is initialized before it is returned; when
// initialization fails the actor stays registered but not ready, and a later
// Resolve retries.
func (d *Directory) Resolve(ctx context.Context, id string) (*Actor, error) {
	d.lock.Lock()
	entry, ok := d.actors[id]
	if !ok {
		actor := NewActor(NewActorOptions{
			ID:          id,
			Repository:  d.repository,
			Broadcaster: d.broadcaster,
		})
		actorCtx, cancel := context.WithCancel(context.Background())
		go actor.Start(actorCtx)
		entry = &actorEntry{
			actor:  actor,
			cancel: cancel,
		}
		d.actors[id] = entry
	}
	d.lock.Unlock()

	if err := entry.actor.Initialize(ctx); err != nil {
		return nil, err
	}
	return entry.actor, nil
}

// Close stops every running actor and waits for their serialization loops
// to exit. Operations submitted afterwards fail with ErrStopped.
func (d *Directory) Close() {
	d.lock.Lock()
	entries := make([]*actorEntry, 0, len(d.actors))
	for id, entry := range d.actors {
		entries = append(entries, entry)
		delete(d.actors, id)
	}
	d.lock.Unlock()

	for _, entry := range entries {
		entry.cancel()
	}
	for _, entry := range entries {
		<-entry.actor.stopped
	}
}
