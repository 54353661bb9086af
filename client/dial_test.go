package client

import (
	"context"
	"testing"
	"time"

	"github.com/undeconstructed/banker/game"
)

func TestHostRoom(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	peer, code, err := HostRoom(ctx, HostOptions{
		Name:   "phil",
		Listen: "127.0.0.1:0",
		Rules:  game.DefaultRules(),
	})
	if err != nil {
		t.Fatal(err)
	}
	go peer.Run(ctx)
	if _, err := peer.WaitSeat(ctx); err != nil {
		t.Fatal(err)
	}
	s, err := peer.Wait(ctx, -1)
	if err != nil {
		t.Fatal(err)
	}
	if s.RoomCode != code || len(s.Players) != 1 || s.Players[0].Name != "phil" {
		t.Errorf("hosted %+v", s)
	}
	if s.LocalPlayerID != s.Players[0].ID {
		t.Errorf("local player %q", s.LocalPlayerID)
	}
}

func TestDial_refused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// nothing listens on port 1 here
	if _, err := Dial(ctx, "127.0.0.1:1", "AB12CD", ""); err == nil {
		t.Errorf("dialled nothing")
	}
}
