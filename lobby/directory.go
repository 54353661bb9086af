package lobby

import (
	"sort"
	"sync"

	"github.com/undeconstructed/banker/game"
)

// Directory tracks live rooms by code. It is safe for concurrent use.
type Directory[R any] struct {
	l        sync.RWMutex
	rooms    map[string]R
	reserved map[string]struct{}
}

func NewDirectory[R any]() *Directory[R] {
	return &Directory[R]{rooms: map[string]R{}, reserved: map[string]struct{}{}}
}

// Create picks an unused code and registers the room build makes for it.
// build runs without the lock held, so it may use the directory.
func (d *Directory[R]) Create(build func(code string) (R, error)) (string, R, error) {
	code := d.reserve()

	r, err := build(code)

	d.l.Lock()
	defer d.l.Unlock()
	delete(d.reserved, code)
	if err != nil {
		var zero R
		return "", zero, err
	}
	d.rooms[code] = r
	return code, r, nil
}

func (d *Directory[R]) reserve() string {
	d.l.Lock()
	defer d.l.Unlock()
	for {
		code := NewCode()
		_, live := d.rooms[code]
		_, held := d.reserved[code]
		if !live && !held {
			d.reserved[code] = struct{}{}
			return code
		}
	}
}

// Put registers a room under a known code, for restoring.
func (d *Directory[R]) Put(code string, r R) {
	d.l.Lock()
	defer d.l.Unlock()
	d.rooms[NormalizeCode(code)] = r
}

func (d *Directory[R]) Lookup(code string) (R, error) {
	d.l.RLock()
	defer d.l.RUnlock()
	r, ok := d.rooms[NormalizeCode(code)]
	if !ok {
		return r, game.ErrRoomNotFound
	}
	return r, nil
}

func (d *Directory[R]) Remove(code string) (R, error) {
	d.l.Lock()
	defer d.l.Unlock()
	code = NormalizeCode(code)
	r, ok := d.rooms[code]
	if !ok {
		return r, game.ErrRoomNotFound
	}
	delete(d.rooms, code)
	return r, nil
}

// List gives every code, sorted.
func (d *Directory[R]) List() []string {
	d.l.RLock()
	defer d.l.RUnlock()
	out := make([]string, 0, len(d.rooms))
	for code := range d.rooms {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
