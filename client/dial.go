package client

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/server"
	"github.com/undeconstructed/banker/session"
	"github.com/undeconstructed/banker/store"

	"nhooyr.io/websocket"
)

// Dial connects to room on a server. ws:// and wss:// addresses use the
// websocket, anything else is taken as tcp. An empty ticket connects as a
// spectator, until a join.
func Dial(ctx context.Context, addr, room, ticket string) (session.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		u := strings.TrimSuffix(addr, "/") + "/ws/" + lobby.RendezvousID(room)
		if ticket != "" {
			u += "?ticket=" + url.QueryEscape(ticket)
		}
		socket, _, err := websocket.Dial(ctx, u, &websocket.DialOptions{
			Subprotocols: []string{session.Subprotocol},
		})
		if err != nil {
			return nil, err
		}
		return session.NewWebsocketConn(socket), nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", strings.TrimPrefix(addr, "tcp://"))
	if err != nil {
		return nil, err
	}
	err = comms.NewEncoder(conn).Encode(game.TypeConnect, game.ConnectJSON{
		Room:   lobby.NormalizeCode(room),
		Ticket: ticket,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return session.NewStreamConn(conn), nil
}

type HostOptions struct {
	Name   string
	Listen string
	Rules  game.Rules
	Store  store.Store
}

// HostRoom makes a room in this process, opens it to others over tcp, and
// seats the caller as its host.
func HostRoom(ctx context.Context, opts HostOptions) (*session.Peer, string, error) {
	s := server.New(server.Options{Store: opts.Store})
	if err := s.Start(ctx); err != nil {
		return nil, "", err
	}

	rules := opts.Rules
	out, err := s.CreateRoom(ctx, server.MakeRoomInput{Name: opts.Name, Rules: &rules})
	if err != nil {
		return nil, "", err
	}

	if opts.Listen != "" {
		ln, err := net.Listen("tcp", opts.Listen)
		if err != nil {
			return nil, "", fmt.Errorf("listen: %w", err)
		}
		go s.ServeTCP(ctx, ln)
	}

	h, err := s.Room(out.Code)
	if err != nil {
		return nil, "", err
	}
	hostEnd, peerEnd := session.Pipe()
	go h.Serve(ctx, hostEnd, out.Ticket)

	return session.NewPeer(peerEnd), out.Code, nil
}
