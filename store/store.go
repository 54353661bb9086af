// Package store keeps room snapshots somewhere other than memory, so a host
// can restart and so peers without a live connection can follow a room.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
)

// ErrNotFound means no snapshot is stored for the room.
var ErrNotFound = errors.New("no such snapshot")

type Store interface {
	// Save writes a snapshot, replacing any older one
	Save(ctx context.Context, s game.State) error
	// Load reads the latest snapshot for a room
	Load(ctx context.Context, code string) (game.State, error)
	Delete(ctx context.Context, code string) error
	// List gives the codes of every stored room
	List(ctx context.Context) ([]string, error)
	// Watch sends every newer snapshot of a room until ctx ends
	Watch(ctx context.Context, code string) (<-chan game.State, error)
	Close() error
}

// Key is where a room's snapshot lives.
func Key(code string) string {
	return lobby.RendezvousID(code)
}

// CodeFromKey undoes Key.
func CodeFromKey(key string) (string, bool) {
	return lobby.ParseRendezvousID(key)
}

// Encode is the stored form of a snapshot.
func Encode(s game.State) ([]byte, error) {
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (game.State, error) {
	var s game.State
	if err := json.Unmarshal(data, &s); err != nil {
		return game.State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// Nop stores nothing.
type Nop struct{}

func (Nop) Save(context.Context, game.State) error {
	return nil
}

func (Nop) Load(context.Context, string) (game.State, error) {
	return game.State{}, ErrNotFound
}

func (Nop) Delete(context.Context, string) error {
	return nil
}

func (Nop) List(context.Context) ([]string, error) {
	return nil, nil
}

func (Nop) Watch(ctx context.Context, _ string) (<-chan game.State, error) {
	ch := make(chan game.State)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (Nop) Close() error {
	return nil
}
