// Package file stores one JSON file per room in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/store"
)

const (
	prefix = "state-"
	suffix = ".json"
)

type Store struct {
	dir  string
	poll time.Duration
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("make state dir: %w", err)
	}
	return &Store{dir: dir, poll: time.Second}, nil
}

func (s *Store) fileName(code string) string {
	return filepath.Join(s.dir, prefix+code+suffix)
}

func (s *Store) Save(_ context.Context, st game.State) error {
	data, err := store.Encode(st)
	if err != nil {
		return err
	}

	// write then rename, so watchers never see half a file
	tmp, err := os.CreateTemp(s.dir, prefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	if err := os.Rename(tmp.Name(), s.fileName(st.RoomCode)); err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	return nil
}

func (s *Store) Load(_ context.Context, code string) (game.State, error) {
	data, err := os.ReadFile(s.fileName(code))
	if errors.Is(err, os.ErrNotExist) {
		return game.State{}, store.ErrNotFound
	} else if err != nil {
		return game.State{}, fmt.Errorf("load %s: %w", code, err)
	}
	return store.Decode(data)
}

func (s *Store) Delete(_ context.Context, code string) error {
	err := os.Remove(s.fileName(code))
	if errors.Is(err, os.ErrNotExist) {
		return store.ErrNotFound
	}
	return err
}

func (s *Store) List(_ context.Context) ([]string, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var out []string
	for _, f := range files {
		name := f.Name()
		if strings.HasPrefix(name, prefix) && strings.HasSuffix(name, suffix) {
			out = append(out, name[len(prefix):len(name)-len(suffix)])
		}
	}
	return out, nil
}

func (s *Store) Watch(ctx context.Context, code string) (<-chan game.State, error) {
	return store.Poll(ctx, s.poll, code, s.Load), nil
}

func (s *Store) Close() error {
	return nil
}
