package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/config"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/session"
	"github.com/undeconstructed/banker/store/file"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"nhooyr.io/websocket"
)

func newTestServer(t *testing.T) (*Server, *file.Store, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	st, err := file.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := New(Options{
		Config: config.Config{
			AllowedOrigins: []string{"*"},
			TicketSecret:   "test",
			TicketTTL:      time.Hour,
		},
		Store: st,
	})
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return s, st, ctx
}

func createRoom(t *testing.T, url, name string) MakeRoomOutput {
	t.Helper()
	body, _ := json.Marshal(MakeRoomInput{Name: name})
	res, err := http.Post(url+"/api/rooms", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", res.StatusCode)
	}
	var out MakeRoomOutput
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestServer_rest(t *testing.T) {
	s, st, ctx := newTestServer(t)
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	out := createRoom(t, web.URL, "phil")
	if !lobby.ValidCode(out.Code) {
		t.Fatalf("bad code %q", out.Code)
	}
	if out.Rendezvous != lobby.RendezvousID(out.Code) {
		t.Errorf("rendezvous %q", out.Rendezvous)
	}
	if out.PlayerID == "" || out.Ticket == "" {
		t.Errorf("no seat: %+v", out)
	}
	if _, err := st.Load(ctx, out.Code); err != nil {
		t.Errorf("room not stored: %v", err)
	}

	res, err := http.Get(web.URL + "/api/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var list []RoomSummary
	json.NewDecoder(res.Body).Decode(&list)
	res.Body.Close()
	if len(list) != 1 || list[0].Code != out.Code || list[0].Phase != game.PhaseLobby {
		t.Errorf("list: %+v", list)
	}
	if len(list[0].Players) != 1 || list[0].Players[0] != "phil" {
		t.Errorf("players: %v", list[0].Players)
	}

	res, err = http.Get(web.URL + "/api/rooms/" + strings.ToLower(out.Code))
	if err != nil {
		t.Fatal(err)
	}
	var got game.State
	json.NewDecoder(res.Body).Decode(&got)
	res.Body.Close()
	if res.StatusCode != http.StatusOK || got.RoomCode != out.Code {
		t.Errorf("get: %d %q", res.StatusCode, got.RoomCode)
	}

	req, _ := http.NewRequest(http.MethodDelete, web.URL+"/api/rooms/"+out.Code, nil)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("delete: %d", res.StatusCode)
	}

	res, err = http.Get(web.URL + "/api/rooms/" + out.Code)
	if err != nil {
		t.Fatal(err)
	}
	var e errorOutput
	json.NewDecoder(res.Body).Decode(&e)
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound || e.Code != game.ErrRoomNotFound.Code {
		t.Errorf("after delete: %d %+v", res.StatusCode, e)
	}
	if _, err := st.Load(ctx, out.Code); err == nil {
		t.Errorf("room still stored")
	}
}

func TestServer_adminToken(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := New(Options{Config: config.Config{
		TicketSecret: "test",
		TicketTTL:    time.Hour,
		AdminToken:   "sekrit",
	}})
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	out := createRoom(t, web.URL, "phil")

	for _, auth := range []string{"", "Bearer wrong", "sekrit"} {
		req, _ := http.NewRequest(http.MethodDelete, web.URL+"/api/rooms/"+out.Code, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusUnauthorized {
			t.Errorf("delete with %q: %d", auth, res.StatusCode)
		}
	}
	if _, err := s.Snapshot(ctx, out.Code); err != nil {
		t.Fatalf("room closed without token: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, web.URL+"/api/rooms/"+out.Code, nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("delete with token: %d", res.StatusCode)
	}
}

func TestServer_badCreate(t *testing.T) {
	s, _, _ := newTestServer(t)
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	res, err := http.Post(web.URL+"/api/rooms", "application/json", strings.NewReader(`{"name":""}`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("empty name: %d", res.StatusCode)
	}

	res, err = http.Post(web.URL+"/api/rooms", "application/json", strings.NewReader(`not json`))
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("junk: %d", res.StatusCode)
	}
}

func TestServer_play(t *testing.T) {
	s, _, ctx := newTestServer(t)
	web := httptest.NewServer(s.Handler())
	defer web.Close()

	out := createRoom(t, web.URL, "phil")

	// the host arrives over the websocket
	wsURL := "ws" + strings.TrimPrefix(web.URL, "http") + "/ws/" + out.Rendezvous + "?ticket=" + out.Ticket
	socket, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		Subprotocols: []string{session.Subprotocol},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer socket.Close(websocket.StatusNormalClosure, "")
	phil := session.NewPeer(session.NewWebsocketConn(socket))
	go phil.Run(ctx)
	id, err := phil.WaitSeat(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id != out.PlayerID {
		t.Errorf("seated as %q, want %q", id, out.PlayerID)
	}

	// a guest over tcp
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.ServeTCP(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	if err := comms.NewEncoder(conn).Encode(game.TypeConnect, game.ConnectJSON{Room: out.Code}); err != nil {
		t.Fatal(err)
	}
	bob := session.NewPeer(session.NewStreamConn(conn))
	go bob.Run(ctx)
	if _, err := bob.Wait(ctx, -1); err != nil {
		t.Fatal(err)
	}
	if err := bob.Send(ctx, game.Join{Player: game.Player{Name: "bob"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := bob.WaitSeat(ctx); err != nil {
		t.Fatal(err)
	}

	if err := phil.Send(ctx, game.StartGame{}); err != nil {
		t.Fatal(err)
	}
	for _, p := range []*session.Peer{phil, bob} {
		st, err := p.Wait(ctx, 2)
		if err != nil {
			t.Fatal(err)
		}
		if st.Phase != game.PhaseRoll || len(st.Players) != 2 {
			t.Errorf("after start: %s %d", st.Phase, len(st.Players))
		}
	}

	// bob is not current
	if err := bob.Send(ctx, game.Roll{D1: 1, D2: 2}); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-bob.Errors():
		if !errors.Is(err, game.ErrNotYourTurn) {
			t.Errorf("got %v", err)
		}
	case <-ctx.Done():
		t.Fatal("no error")
	}
}

func TestServer_tcpUnknownRoom(t *testing.T) {
	s, _, ctx := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go s.ServeTCP(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	comms.NewEncoder(conn).Encode(game.TypeConnect, game.ConnectJSON{Room: "ZZZZZZ"})

	msg, err := comms.NewDecoder(conn).Decode()
	if err != nil {
		t.Fatal(err)
	}
	var body game.ErrorJSON
	if err := comms.Decode(msg, &body); err != nil {
		t.Fatal(err)
	}
	if msg.Type() != game.TypeError || body.Err == nil || body.Err.Code != game.ErrRoomNotFound.Code {
		t.Errorf("got %s %+v", msg.Type(), body.Err)
	}
}

func TestServer_restore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, err := file.New(dir)
	if err != nil {
		t.Fatal(err)
	}

	saved, _, err := lobby.Bootstrap(game.NewEngine(), "QW12ER", game.DefaultRules(), game.Player{Name: "phil"})
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Save(ctx, saved); err != nil {
		t.Fatal(err)
	}

	s := New(Options{Store: st})
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := s.Start(cctx); err != nil {
		t.Fatal(err)
	}

	codes := s.ListRooms()
	if len(codes) != 1 || codes[0] != "QW12ER" {
		t.Fatalf("restored %v", codes)
	}
	got, err := s.Snapshot(cctx, "QW12ER")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != saved.Version || len(got.Players) != 1 {
		t.Errorf("restored %+v", got)
	}
}

func TestServer_grpc(t *testing.T) {
	s, _, ctx := newTestServer(t)
	out, err := s.CreateRoom(ctx, MakeRoomInput{Name: "phil"})
	if err != nil {
		t.Fatal(err)
	}

	ln := bufconn.Listen(1 << 20)
	gs := s.GRPCServer()
	go gs.Serve(ln)
	defer gs.Stop()

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ln.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer cc.Close()
	rc := NewRoomsClient(cc)

	list, err := rc.ListRooms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0] != out.Code {
		t.Errorf("list %v", list)
	}

	snap, err := rc.GetSnapshot(ctx, out.Code)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RoomCode != out.Code || snap.Phase != game.PhaseLobby {
		t.Errorf("snapshot %s %s", snap.RoomCode, snap.Phase)
	}

	if err := rc.CloseRoom(ctx, out.Code); err != nil {
		t.Fatal(err)
	}
	_, err = rc.GetSnapshot(ctx, out.Code)
	if status.Code(err) != codes.NotFound {
		t.Errorf("after close: %v", err)
	}
}
