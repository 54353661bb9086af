package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/store"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "banker.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	st := game.NewState("AB12CD", game.DefaultRules())
	st.Version = 5
	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	// older versions never overwrite newer ones
	old := st
	old.Version = 4
	old.Phase = game.PhaseLobby
	if err := s.Save(ctx, old); err != nil {
		t.Fatal(err)
	}

	back, err := s.Load(ctx, "AB12CD")
	if err != nil {
		t.Fatal(err)
	}
	if back.Version != 5 || back.Phase != game.PhaseSetup {
		t.Errorf("stale write won: %d %s", back.Version, back.Phase)
	}

	list, err := s.List(ctx)
	if err != nil || len(list) != 1 {
		t.Errorf("list: %v %v", list, err)
	}

	if err := s.Delete(ctx, "AB12CD"); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "AB12CD"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("double delete: %v", err)
	}
	if _, err := s.Load(ctx, "AB12CD"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("load deleted: %v", err)
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := openTemp(t)
	s.poll = 10 * time.Millisecond

	ch, _ := s.Watch(ctx, "AB12CD")

	st := game.NewState("AB12CD", game.DefaultRules())
	st.Version = 1
	_ = s.Save(ctx, st)
	if got := <-ch; got.Version != 1 {
		t.Errorf("first: %d", got.Version)
	}
	st.Version = 2
	_ = s.Save(ctx, st)
	if got := <-ch; got.Version != 2 {
		t.Errorf("second: %d", got.Version)
	}

	cancel()
	for range ch {
	}
}
