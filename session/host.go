package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/store"
	"github.com/undeconstructed/banker/telemetry"
	"github.com/undeconstructed/banker/tickets"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrHostClosed means the host loop is no longer running.
var ErrHostClosed = errors.New("host closed")

type HostOptions struct {
	Engine  *game.Engine
	Store   store.Store
	Tickets *tickets.Signer
}

// Host owns one room. Everything that touches the state happens in Run, one
// message at a time.
type Host struct {
	code    string
	engine  *game.Engine
	store   store.Store
	tickets *tickets.Signer
	tracer  trace.Tracer
	log     zerolog.Logger

	coreCh chan interface{}
	done   chan struct{}

	// only touched by Run
	state   game.State
	clients map[int]*clientBundle
	nextID  int
}

type clientBundle struct {
	id     int
	player string
	ticket string
	downCh chan comms.Message
}

type connectMsg struct {
	client *clientBundle
	ticket string
	rep    chan error
}

type disconnectMsg struct {
	id int
}

type intentMsg struct {
	from int
	in   game.Intent
}

type queryMsg struct {
	rep chan game.State
}

type closeMsg struct {
	rep chan struct{}
}

func NewHost(state game.State, opts HostOptions) *Host {
	if opts.Engine == nil {
		opts.Engine = game.NewEngine()
	}
	if opts.Store == nil {
		opts.Store = store.Nop{}
	}
	if opts.Tickets == nil {
		opts.Tickets = tickets.NewSigner(lobby.NewCode()+lobby.NewCode(), 0)
	}
	return &Host{
		code:    state.RoomCode,
		engine:  opts.Engine,
		store:   opts.Store,
		tickets: opts.Tickets,
		tracer:  telemetry.Tracer(),
		log:     log.With().Str("room", state.RoomCode).Logger(),
		coreCh:  make(chan interface{}, 100),
		done:    make(chan struct{}),
		state:   state.Snapshot(),
		clients: map[int]*clientBundle{},
	}
}

func (h *Host) Code() string { return h.code }

// Tickets is the signer seats in this room are issued by.
func (h *Host) Tickets() *tickets.Signer { return h.tickets }

// Run is the host's main loop. It returns when ctx ends or Close is called,
// dropping every connection.
func (h *Host) Run(ctx context.Context) error {
	h.log.Info().Int64("version", h.state.Version).Msg("host running")
	defer h.log.Info().Msg("host stopping")
	defer close(h.done)
	defer func() {
		for id, c := range h.clients {
			close(c.downCh)
			delete(h.clients, id)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-h.coreCh:
			if cm, ok := in.(closeMsg); ok {
				close(cm.rep)
				return nil
			}
			h.processMessage(ctx, in)
		}
	}
}

func (h *Host) processMessage(ctx context.Context, in interface{}) {
	switch msg := in.(type) {
	case connectMsg:
		msg.rep <- h.connect(msg.client, msg.ticket)
	case disconnectMsg:
		c, ok := h.clients[msg.id]
		if !ok {
			return
		}
		h.log.Info().Str("player", c.player).Msg("client gone")
		close(c.downCh)
		delete(h.clients, msg.id)
	case intentMsg:
		c, ok := h.clients[msg.from]
		if !ok {
			return
		}
		h.handleIntent(ctx, c, msg.in)
	case queryMsg:
		msg.rep <- h.state
	default:
		h.log.Warn().Msgf("nonsense in core: %#v", in)
	}
}

func (h *Host) connect(c *clientBundle, ticket string) error {
	if ticket != "" {
		player, err := h.tickets.Verify(h.code, ticket)
		if err != nil || h.state.PlayerIndex(player) < 0 {
			h.log.Info().Err(err).Msg("refusing ticket")
			return game.ErrBadTicket
		}
		c.player = player
		c.ticket = ticket
	}

	h.nextID++
	c.id = h.nextID
	h.clients[c.id] = c
	h.log.Info().Int("client", c.id).Str("player", c.player).Msg("client connected")

	h.sendTo(c, h.syncMessage())
	if c.player != "" {
		h.sendSeat(c)
	}
	return nil
}

func (h *Host) handleIntent(ctx context.Context, c *clientBundle, in game.Intent) {
	ctx, span := h.tracer.Start(ctx, "apply "+in.Kind(), trace.WithAttributes(
		attribute.String("banker.room", h.code),
		attribute.String("banker.player", c.player),
	))
	defer span.End()

	log := h.log.With().Str("player", c.player).Str("intent", in.Kind()).Logger()

	var next game.State
	if join, ok := in.(game.Join); ok {
		if c.player != "" {
			h.reject(c, span, log, game.ErrNotNow)
			return
		}
		s, p, err := lobby.Admit(h.engine, h.state, join.Player)
		if err != nil {
			h.reject(c, span, log, err)
			return
		}
		ticket, err := h.tickets.Issue(h.code, p.ID)
		if err != nil {
			log.Error().Err(err).Msg("cannot issue ticket")
		}
		c.player = p.ID
		c.ticket = ticket
		h.sendSeat(c)
		next = s
	} else {
		if err := game.Check(h.state, c.player, in); err != nil {
			h.reject(c, span, log, err)
			return
		}
		next = h.engine.Apply(h.state, in)
	}

	if next.Version == h.state.Version {
		log.Debug().Msg("nothing changed")
		return
	}

	h.state = next
	span.SetAttributes(attribute.Int64("banker.version", next.Version))
	log.Info().Int64("version", next.Version).Msg("applied")

	if err := h.store.Save(ctx, next); err != nil {
		log.Error().Err(err).Msg("can't save")
	}
	h.broadcast(h.syncMessage())
}

func (h *Host) reject(c *clientBundle, span trace.Span, log zerolog.Logger, err error) {
	log.Warn().Str("code", comms.WrapError(err).Code).Msg("intent rejected")
	span.SetStatus(codes.Error, err.Error())
	msg, _ := comms.Encode(game.TypeError, game.ErrorJSON{Err: comms.WrapError(err)})
	h.sendTo(c, msg)
}

func (h *Host) syncMessage() comms.Message {
	msg, err := comms.Encode(game.TypeSync, game.SyncJSON{State: h.state})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode sync")
		panic("encode sync error")
	}
	return msg
}

func (h *Host) sendSeat(c *clientBundle) {
	msg, _ := comms.Encode(game.TypeSeat, game.SeatJSON{PlayerID: c.player, Ticket: c.ticket})
	h.sendTo(c, msg)
}

func (h *Host) sendTo(c *clientBundle, msg comms.Message) {
	select {
	case c.downCh <- msg:
	default:
		// client lagging
		h.log.Info().Int("client", c.id).Msg("client lagging")
	}
}

func (h *Host) broadcast(msg comms.Message) {
	for _, c := range h.clients {
		h.sendTo(c, msg)
	}
}

func (h *Host) post(ctx context.Context, msg interface{}) error {
	select {
	case h.coreCh <- msg:
		return nil
	case <-h.done:
		return ErrHostClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve runs one connection until it drops. A ticket from an earlier SEAT
// puts the connection back in that seat.
func (h *Host) Serve(ctx context.Context, conn Conn, ticket string) error {
	defer conn.Close()

	c := &clientBundle{downCh: make(chan comms.Message, 100)}
	rep := make(chan error, 1)
	if err := h.post(ctx, connectMsg{c, ticket, rep}); err != nil {
		return err
	}
	var err error
	select {
	case err = <-rep:
	case <-h.done:
		err = ErrHostClosed
	}
	if err != nil {
		msg, _ := comms.Encode(game.TypeError, game.ErrorJSON{Err: comms.WrapError(err)})
		_ = conn.Send(ctx, msg)
		return err
	}

	go func() {
		// read downCh, write to conn
		for msg := range c.downCh {
			if err := conn.Send(ctx, msg); err != nil {
				h.log.Info().Err(err).Int("client", c.id).Msg("send error")
				break
			}
		}
		conn.Close()
	}()

	for {
		msg, err := conn.Recv(ctx)
		if err != nil {
			_ = h.post(context.Background(), disconnectMsg{c.id})
			return err
		}

		in, err := game.DecodeIntent(msg)
		if err != nil {
			h.log.Info().Err(err).Int("client", c.id).Msg("junk from client")
			continue
		}
		if err := h.post(ctx, intentMsg{c.id, in}); err != nil {
			return err
		}
	}
}

// Snapshot asks the loop for the current state.
func (h *Host) Snapshot(ctx context.Context) (game.State, error) {
	rep := make(chan game.State, 1)
	if err := h.post(ctx, queryMsg{rep}); err != nil {
		return game.State{}, err
	}
	select {
	case s := <-rep:
		return s, nil
	case <-h.done:
		return game.State{}, ErrHostClosed
	case <-ctx.Done():
		return game.State{}, ctx.Err()
	}
}

// Close stops Run and waits for it to finish.
func (h *Host) Close(ctx context.Context) error {
	rep := make(chan struct{})
	if err := h.post(ctx, closeMsg{rep}); err != nil {
		if errors.Is(err, ErrHostClosed) {
			return nil
		}
		return err
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close %s: %w", h.code, ctx.Err())
	}
}
