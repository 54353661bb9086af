package session

import (
	"context"
	"sync"

	"github.com/undeconstructed/banker/game"
)

// Box holds the latest state and lets readers wait for a newer one.
type Box struct {
	l       sync.Mutex
	v       game.State
	changed chan struct{}
}

func NewBox(v game.State) *Box {
	return &Box{v: v, changed: make(chan struct{})}
}

// Put stores v and wakes every waiter.
func (b *Box) Put(v game.State) {
	b.l.Lock()
	defer b.l.Unlock()
	b.v = v
	close(b.changed)
	b.changed = make(chan struct{})
}

// Update swaps the value under the lock. f returning false leaves it alone.
func (b *Box) Update(f func(game.State) (game.State, bool)) bool {
	b.l.Lock()
	defer b.l.Unlock()
	next, ok := f(b.v)
	if !ok {
		return false
	}
	b.v = next
	close(b.changed)
	b.changed = make(chan struct{})
	return true
}

func (b *Box) Get() game.State {
	b.l.Lock()
	defer b.l.Unlock()
	return b.v
}

// Wait blocks until the held version is past seen.
func (b *Box) Wait(ctx context.Context, seen int64) (game.State, error) {
	for {
		b.l.Lock()
		v, ch := b.v, b.changed
		b.l.Unlock()
		if v.Version > seen {
			return v, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return v, ctx.Err()
		}
	}
}
