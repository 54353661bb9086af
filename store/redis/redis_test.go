package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/store"
)

// needs a real server, named by BANKER_TEST_REDIS
func testStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("BANKER_TEST_REDIS")
	if addr == "" {
		t.Skip("BANKER_TEST_REDIS not set")
	}
	s := New(addr)
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("no redis at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveLoadWatch(t *testing.T) {
	s := testStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code := lobby.NewCode()
	defer s.Delete(context.Background(), code)

	st := game.NewState(code, game.DefaultRules())
	st.Version = 1
	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	ch, err := s.Watch(ctx, code)
	if err != nil {
		t.Fatal(err)
	}
	if got := <-ch; got.Version != 1 {
		t.Errorf("first: %d", got.Version)
	}

	st.Version = 2
	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}
	if got := <-ch; got.Version != 2 {
		t.Errorf("second: %d", got.Version)
	}

	stale := st
	stale.Version = 1
	_ = s.Save(ctx, stale)
	back, err := s.Load(ctx, code)
	if err != nil || back.Version != 2 {
		t.Errorf("stale write won: %d %v", back.Version, err)
	}

	if err := s.Delete(ctx, code); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(ctx, code); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("load deleted: %v", err)
	}
}
