package session

import (
	"context"
	"sync"

	"condoPortal/internal/models"
)

// Snapshot is what rendering code sees of the session
type Snapshot struct {
	Token   string
	User    *models.User
	Loading bool
}

// Session returns the loaded token/user pair
func (s Snapshot) Session() models.Session {
	return models.Session{Token: s.Token, User: s.User}
}

// Accessor reads the session once, in the background, and exposes the
// result as a snapshot. Until the read finishes the snapshot is loading.
type Accessor struct {
	mu   sync.RWMutex
	snap Snapshot
	done chan struct{}
}

// Load starts reading token and user from the store
func Load(store *Store) *Accessor {
	a := &Accessor{
		snap: Snapshot{Loading: true},
		done: make(chan struct{}),
	}
	go a.load(store)
	return a
}

func (a *Accessor) load(store *Store) {
	token, _ := store.Token()
	user, _ := store.User()

	a.mu.Lock()
	a.snap = Snapshot{Token: token, User: user}
	a.mu.Unlock()
	close(a.done)
}

// Snapshot returns the current state without blocking
func (a *Accessor) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Done is closed once loading finishes
func (a *Accessor) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until loading finishes or ctx ends, then returns the snapshot.
// If ctx ends first the returned snapshot is still loading.
func (a *Accessor) Wait(ctx context.Context) Snapshot {
	select {
	case <-a.done:
	case <-ctx.Done():
	}
	return a.Snapshot()
}
