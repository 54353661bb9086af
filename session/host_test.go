package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/store/file"
)

type testRoom struct {
	t    *testing.T
	ctx  context.Context
	host *Host
	boss game.Player
}

func newTestRoom(t *testing.T, opts HostOptions) *testRoom {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	if opts.Engine == nil {
		opts.Engine = game.NewEngine()
	}
	st, boss, err := lobby.Bootstrap(opts.Engine, "AB12CD", game.DefaultRules(), game.Player{Name: "phil"})
	if err != nil {
		t.Fatal(err)
	}
	h := NewHost(st, opts)
	go h.Run(ctx)
	return &testRoom{t: t, ctx: ctx, host: h, boss: boss}
}

// connect a peer through an in-memory pipe
func (r *testRoom) connect(ticket string) *Peer {
	hostEnd, peerEnd := Pipe()
	go r.host.Serve(r.ctx, hostEnd, ticket)
	p := NewPeer(peerEnd)
	go p.Run(r.ctx)
	return p
}

func (r *testRoom) owner() *Peer {
	ticket, err := r.host.Tickets().Issue("AB12CD", r.boss.ID)
	if err != nil {
		r.t.Fatal(err)
	}
	p := r.connect(ticket)
	if _, err := p.WaitSeat(r.ctx); err != nil {
		r.t.Fatalf("owner not seated: %v", err)
	}
	return p
}

func (r *testRoom) join(name string) *Peer {
	p := r.connect("")
	if _, err := p.Wait(r.ctx, -1); err != nil {
		r.t.Fatalf("no first sync: %v", err)
	}
	if err := p.Send(r.ctx, game.Join{Player: game.Player{Name: name}}); err != nil {
		r.t.Fatal(err)
	}
	if _, err := p.WaitSeat(r.ctx); err != nil {
		r.t.Fatalf("%s not seated: %v", name, err)
	}
	return p
}

func (r *testRoom) waitVersion(p *Peer, v int64) game.State {
	r.t.Helper()
	s, err := p.Wait(r.ctx, v-1)
	if err != nil {
		r.t.Fatalf("never saw version %d: %v", v, err)
	}
	return s
}

func (r *testRoom) expectError(p *Peer, want error) {
	r.t.Helper()
	select {
	case err := <-p.Errors():
		if !errors.Is(err, want) {
			r.t.Errorf("got error %v, want %v", err, want)
		}
	case <-r.ctx.Done():
		r.t.Fatalf("no error, wanted %v", want)
	}
}

func TestHost_game(t *testing.T) {
	dir := t.TempDir()
	fs, _ := file.New(dir)
	r := newTestRoom(t, HostOptions{Store: fs})

	p1 := r.owner()
	s := r.waitVersion(p1, 1)
	if s.LocalPlayerID != r.boss.ID {
		t.Errorf("owner local id: %q", s.LocalPlayerID)
	}

	p2 := r.join("bear")
	bearID, _ := p2.Seat()
	r.waitVersion(p1, 2)
	s = r.waitVersion(p2, 2)
	if len(s.Players) != 2 || s.LocalPlayerID != bearID {
		t.Fatalf("bad join: %v %q", s.Players, s.LocalPlayerID)
	}

	// only the owner may start
	_ = p2.Send(r.ctx, game.StartGame{})
	r.expectError(p2, game.ErrNotLobbyOwner)

	_ = p1.Send(r.ctx, game.StartGame{})
	s = r.waitVersion(p2, 3)
	if s.Phase != game.PhaseRoll {
		t.Fatalf("not started: %s", s.Phase)
	}

	_ = p2.Send(r.ctx, game.Roll{D1: 1, D2: 2})
	r.expectError(p2, game.ErrNotYourTurn)

	_ = p1.Send(r.ctx, game.Roll{D1: 1, D2: 2})
	s1 := r.waitVersion(p1, 4)
	s2 := r.waitVersion(p2, 4)
	if s1.Players[0].Position != 3 {
		t.Errorf("bad move: %v", s1.Players[0])
	}
	s1.LocalPlayerID, s2.LocalPlayerID = "", ""
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("peers disagree")
	}

	// late joiners are refused, but can watch
	p3 := r.connect("")
	s3 := r.waitVersion(p3, 4)
	if s3.LocalPlayerID != "" {
		t.Errorf("spectator has a seat")
	}
	_ = p3.Send(r.ctx, game.Join{Player: game.Player{Name: "late"}})
	r.expectError(p3, game.ErrGameStarted)
	_ = p3.Send(r.ctx, game.Buy{})
	r.expectError(p3, game.ErrNotSeated)

	snap, err := r.host.Snapshot(r.ctx)
	if err != nil || snap.Version != 4 || len(snap.Players) != 2 {
		t.Errorf("bad snapshot: %d %v", snap.Version, err)
	}

	saved, err := fs.Load(r.ctx, "AB12CD")
	if err != nil || saved.Version != 4 {
		t.Errorf("not saved: %d %v", saved.Version, err)
	}
}

func TestHost_duplicateName(t *testing.T) {
	r := newTestRoom(t, HostOptions{})
	p := r.connect("")
	r.waitVersion(p, 1)
	_ = p.Send(r.ctx, game.Join{Player: game.Player{Name: "phil"}})
	r.expectError(p, game.ErrDuplicateName)

	s, _ := r.host.Snapshot(r.ctx)
	if len(s.Players) != 1 || s.Version != 1 {
		t.Errorf("room changed: %v", s.Players)
	}
}

func TestHost_reconnect(t *testing.T) {
	r := newTestRoom(t, HostOptions{})
	p := r.join("bear")
	id, ticket := p.Seat()
	if ticket == "" {
		t.Fatalf("no ticket")
	}

	again := r.connect(ticket)
	got, err := again.WaitSeat(r.ctx)
	if err != nil || got != id {
		t.Errorf("reseated as %q: %v", got, err)
	}
}

func TestHost_badTicket(t *testing.T) {
	r := newTestRoom(t, HostOptions{})
	hostEnd, _ := Pipe()
	err := r.host.Serve(r.ctx, hostEnd, "not-a-ticket")
	if !errors.Is(err, game.ErrBadTicket) {
		t.Errorf("bad ticket accepted: %v", err)
	}
}

func TestHost_close(t *testing.T) {
	r := newTestRoom(t, HostOptions{})
	p := r.connect("")
	r.waitVersion(p, 1)
	if err := r.host.Close(r.ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := r.host.Snapshot(r.ctx); !errors.Is(err, ErrHostClosed) {
		t.Errorf("snapshot after close: %v", err)
	}
	if err := r.host.Close(r.ctx); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestPeer_ignoresStale(t *testing.T) {
	p := NewPeer(nil)
	p.accept(game.State{Version: 5, Phase: game.PhaseRoll})
	p.accept(game.State{Version: 4, Phase: game.PhaseLobby})
	if s := p.State(); s.Version != 5 || s.Phase != game.PhaseRoll {
		t.Errorf("stale snapshot won: %d %s", s.Version, s.Phase)
	}
}

func TestPeer_keepsLocal(t *testing.T) {
	p := NewPeer(nil)
	p.SetViewMode("PLAYER_WALLET")
	p.playerID = "me"
	p.accept(game.State{Version: 1, LocalPlayerID: "someone", ViewMode: "BOARD"})
	s := p.State()
	if s.LocalPlayerID != "me" || s.ViewMode != "PLAYER_WALLET" {
		t.Errorf("local fields lost: %q %q", s.LocalPlayerID, s.ViewMode)
	}
}

func TestPeer_follow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ch := make(chan game.State, 3)
	ch <- game.State{Version: 1}
	ch <- game.State{Version: 3}
	ch <- game.State{Version: 2}
	close(ch)

	p := NewPeer(nil)
	if err := p.Follow(ctx, ch); err != nil {
		t.Fatal(err)
	}
	if v := p.State().Version; v != 3 {
		t.Errorf("followed to %d", v)
	}
	if err := p.Send(ctx, game.Buy{}); err == nil {
		t.Errorf("send without host")
	}
}
