package session

import (
	"context"
	"errors"
	"sync"

	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/game"

	"github.com/rs/zerolog/log"
)

// Peer mirrors a room it does not own. It never applies an intent itself.
type Peer struct {
	conn Conn
	box  *Box

	l        sync.Mutex
	playerID string
	ticket   string
	viewMode string

	errCh  chan error
	seatCh chan struct{}
	seated sync.Once
}

func NewPeer(conn Conn) *Peer {
	return &Peer{
		conn:   conn,
		box:    NewBox(game.State{Version: -1}),
		errCh:  make(chan error, 10),
		seatCh: make(chan struct{}),
	}
}

// Run reads from the host until the connection ends.
func (p *Peer) Run(ctx context.Context) error {
	for {
		msg, err := p.conn.Recv(ctx)
		if err != nil {
			return err
		}
		p.handle(msg)
	}
}

func (p *Peer) handle(msg comms.Message) {
	switch msg.Type() {
	case game.TypeSync:
		var body game.SyncJSON
		if err := comms.Decode(msg, &body); err != nil {
			log.Warn().Err(err).Msg("bad sync")
			return
		}
		p.accept(body.State)
	case game.TypeSeat:
		var body game.SeatJSON
		if err := comms.Decode(msg, &body); err != nil {
			log.Warn().Err(err).Msg("bad seat")
			return
		}
		p.l.Lock()
		p.playerID = body.PlayerID
		p.ticket = body.Ticket
		p.l.Unlock()
		p.box.Update(func(s game.State) (game.State, bool) {
			s.LocalPlayerID = body.PlayerID
			return s, true
		})
		p.seated.Do(func() { close(p.seatCh) })
	case game.TypeError:
		var body game.ErrorJSON
		if err := comms.Decode(msg, &body); err != nil || body.Err == nil {
			log.Warn().Err(err).Msg("bad error")
			return
		}
		select {
		case p.errCh <- game.ReError(body.Err):
		default:
		}
	default:
		log.Info().Msgf("junk from host: %s", msg.Type())
	}
}

// accept replaces the local state, unless the host already sent something
// newer.
func (p *Peer) accept(in game.State) bool {
	return p.box.Update(func(cur game.State) (game.State, bool) {
		if in.Version < cur.Version {
			return cur, false
		}
		p.l.Lock()
		in.LocalPlayerID = p.playerID
		in.ViewMode = p.viewMode
		p.l.Unlock()
		return in, true
	})
}

// Follow takes snapshots from somewhere other than a host connection, such
// as a store watch, until ch closes.
func (p *Peer) Follow(ctx context.Context, ch <-chan game.State) error {
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				return nil
			}
			p.accept(s)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Send forwards an intent to the host as is.
func (p *Peer) Send(ctx context.Context, in game.Intent) error {
	if p.conn == nil {
		return errors.New("no host connection")
	}
	msg, err := game.EncodeIntent(in)
	if err != nil {
		return err
	}
	return p.conn.Send(ctx, msg)
}

// State is the latest snapshot seen, with the local fields filled in.
func (p *Peer) State() game.State {
	return p.box.Get()
}

// Wait blocks until a snapshot newer than seen arrives.
func (p *Peer) Wait(ctx context.Context, seen int64) (game.State, error) {
	return p.box.Wait(ctx, seen)
}

// Seat says which player this peer is, once the host has said.
func (p *Peer) Seat() (player, ticket string) {
	p.l.Lock()
	defer p.l.Unlock()
	return p.playerID, p.ticket
}

// WaitSeat blocks until the host assigns a seat.
func (p *Peer) WaitSeat(ctx context.Context) (string, error) {
	select {
	case <-p.seatCh:
		id, _ := p.Seat()
		return id, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Errors are the host's rejections of this peer's intents.
func (p *Peer) Errors() <-chan error {
	return p.errCh
}

func (p *Peer) SetViewMode(mode string) {
	p.l.Lock()
	p.viewMode = mode
	p.l.Unlock()
	p.box.Update(func(s game.State) (game.State, bool) {
		s.ViewMode = mode
		return s, true
	})
}
