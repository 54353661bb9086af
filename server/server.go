package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/undeconstructed/banker/config"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/session"
	"github.com/undeconstructed/banker/store"
	"github.com/undeconstructed/banker/tickets"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Config  config.Config
	Store   store.Store
	Tickets *tickets.Signer
	Engine  *game.Engine
}

// Server hosts any number of rooms, each run by its own session.Host.
type Server struct {
	cfg     config.Config
	store   store.Store
	tickets *tickets.Signer
	engine  *game.Engine
	rooms   *lobby.Directory[*room]

	// rooms run under this, set by Start
	ctx   context.Context
	hosts sync.WaitGroup
}

type room struct {
	host   *session.Host
	cancel context.CancelFunc
}

func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.Nop{}
	}
	if opts.Engine == nil {
		opts.Engine = game.NewEngine()
	}
	if opts.Tickets == nil {
		secret := opts.Config.TicketSecret
		if secret == "" {
			log.Warn().Msg("no ticket secret, tickets die with the process")
			secret = lobby.NewCode() + lobby.NewCode()
		}
		opts.Tickets = tickets.NewSigner(secret, opts.Config.TicketTTL)
	}
	return &Server{
		cfg:     opts.Config,
		store:   opts.Store,
		tickets: opts.Tickets,
		engine:  opts.Engine,
		rooms:   lobby.NewDirectory[*room](),
		ctx:     context.Background(),
	}
}

// Start restores every stored room and sets the context rooms run under.
func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx

	codes, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored rooms: %w", err)
	}
	for _, code := range codes {
		log := log.With().Str("room", code).Logger()
		st, err := s.store.Load(ctx, code)
		if err != nil {
			log.Error().Err(err).Msg("cannot restore state")
			continue
		}
		s.rooms.Put(code, s.startRoom(st))
		log.Info().Int64("version", st.Version).Msg("loaded state")
	}
	return nil
}

// Run starts, then serves every gateway until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	log.Info().Msg("server running")
	defer log.Info().Msg("server stopping")

	if err := s.Start(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if s.cfg.WebAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.WebAddr)
		if err != nil {
			return err
		}
		log.Info().Msgf("web listening on http://%v", ln.Addr())
		hs := &http.Server{
			Handler:           s.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			err := hs.Serve(ln)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return hs.Shutdown(sctx)
		})
	}

	if s.cfg.TCPAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.TCPAddr)
		if err != nil {
			return err
		}
		log.Info().Msgf("comms listening on tcp:%v", ln.Addr())
		g.Go(func() error { return s.ServeTCP(ctx, ln) })
	}

	if s.cfg.GRPCAddr != "" {
		ln, err := net.Listen("tcp", s.cfg.GRPCAddr)
		if err != nil {
			return err
		}
		log.Info().Msgf("admin listening on grpc:%v", ln.Addr())
		gs := s.GRPCServer()
		g.Go(func() error { return gs.Serve(ln) })
		g.Go(func() error {
			<-ctx.Done()
			gs.GracefulStop()
			return nil
		})
	}

	err := g.Wait()
	s.hosts.Wait()
	return err
}

func (s *Server) startRoom(st game.State) *room {
	ctx, cancel := context.WithCancel(s.ctx)
	h := session.NewHost(st, session.HostOptions{
		Engine:  s.engine,
		Store:   s.store,
		Tickets: s.tickets,
	})
	s.hosts.Add(1)
	go func() {
		defer s.hosts.Done()
		_ = h.Run(ctx)
	}()
	return &room{host: h, cancel: cancel}
}

// CreateRoom makes a new room with one player, its host.
func (s *Server) CreateRoom(ctx context.Context, in MakeRoomInput) (MakeRoomOutput, error) {
	rules := game.DefaultRules()
	if in.Rules != nil {
		rules = *in.Rules
	}

	var out MakeRoomOutput
	code, _, err := s.rooms.Create(func(code string) (*room, error) {
		st, host, err := lobby.Bootstrap(s.engine, code, rules, game.Player{Name: in.Name})
		if err != nil {
			return nil, err
		}
		ticket, err := s.tickets.Issue(code, host.ID)
		if err != nil {
			return nil, err
		}
		if err := s.store.Save(ctx, st); err != nil {
			return nil, fmt.Errorf("save new room: %w", err)
		}
		out = MakeRoomOutput{
			Code:       code,
			Rendezvous: lobby.RendezvousID(code),
			PlayerID:   host.ID,
			Ticket:     ticket,
		}
		return s.startRoom(st), nil
	})
	if err != nil {
		return MakeRoomOutput{}, err
	}

	log.Info().Str("room", code).Msg("created")
	return out, nil
}

// Room finds a live room's host.
func (s *Server) Room(code string) (*session.Host, error) {
	r, err := s.rooms.Lookup(code)
	if err != nil {
		return nil, err
	}
	return r.host, nil
}

func (s *Server) ListRooms() []string {
	return s.rooms.List()
}

func (s *Server) Snapshot(ctx context.Context, code string) (game.State, error) {
	h, err := s.Room(code)
	if err != nil {
		return game.State{}, err
	}
	return h.Snapshot(ctx)
}

// Summaries describes every room. Rooms that stop answering are left out.
func (s *Server) Summaries(ctx context.Context) []RoomSummary {
	out := []RoomSummary{}
	for _, code := range s.ListRooms() {
		st, err := s.Snapshot(ctx, code)
		if err != nil {
			continue
		}
		out = append(out, summarize(st))
	}
	return out
}

// CloseRoom stops a room and forgets it, stored state included.
func (s *Server) CloseRoom(ctx context.Context, code string) error {
	r, err := s.rooms.Remove(code)
	if err != nil {
		return err
	}
	err = r.host.Close(ctx)
	r.cancel()
	if err != nil {
		return err
	}

	// XXX - connected peers are dropped without being told why
	if err := s.store.Delete(ctx, lobby.NormalizeCode(code)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete stored room: %w", err)
	}
	log.Info().Str("room", code).Msg("deleted")
	return nil
}
