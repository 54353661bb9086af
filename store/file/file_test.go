package file

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/store"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	st := game.NewState("AB12CD", game.DefaultRules())
	st.Version = 3
	st.LocalPlayerID = "me"
	st.Players = []game.Player{{ID: "a", Name: "a", Money: 1500}}
	if err := s.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	back, err := s.Load(ctx, "AB12CD")
	if err != nil {
		t.Fatal(err)
	}
	if back.Version != 3 || len(back.Players) != 1 || back.Players[0].Money != 1500 {
		t.Errorf("bad load: %+v", back)
	}
	if back.LocalPlayerID != "" {
		t.Errorf("local id stored")
	}

	list, _ := s.List(ctx)
	if len(list) != 1 || list[0] != "AB12CD" {
		t.Errorf("bad list: %v", list)
	}

	if err := s.Delete(ctx, "AB12CD"); err != nil {
		t.Errorf("delete: %v", err)
	}
	if _, err := s.Load(ctx, "AB12CD"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted room loads: %v", err)
	}
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, _ := New(t.TempDir())
	s.poll = 10 * time.Millisecond

	st := game.NewState("AB12CD", game.DefaultRules())
	st.Version = 1
	_ = s.Save(ctx, st)

	ch, _ := s.Watch(ctx, "AB12CD")
	if got := <-ch; got.Version != 1 {
		t.Errorf("first: %d", got.Version)
	}

	st.Version = 2
	_ = s.Save(ctx, st)
	if got := <-ch; got.Version != 2 {
		t.Errorf("second: %d", got.Version)
	}
}
