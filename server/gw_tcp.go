package server

import (
	"context"
	"errors"
	"io"
	"net"

	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/session"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServeTCP speaks newline delimited JSON. The first message must be CONNECT,
// naming the room and maybe a ticket.
func (s *Server) ServeTCP(ctx context.Context, ln net.Listener) error {
	m := &tcpManager{
		server: s,
		log:    log.With().Str("gw", "tcp").Logger(),
	}
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	err := m.Serve(ctx, ln)
	if ctx.Err() != nil {
		return nil
	}
	m.log.Info().Err(err).Msg("server return")
	return err
}

type tcpManager struct {
	server *Server
	log    zerolog.Logger
}

func (m *tcpManager) Serve(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go m.manageTcpConnection(ctx, conn)
	}
}

func (m *tcpManager) manageTcpConnection(ctx context.Context, conn net.Conn) {
	addr := conn.RemoteAddr()

	log := m.log.With().Str("client", addr.String()).Logger()
	log.Info().Msgf("connecting")

	upStream := comms.NewDecoder(conn)
	dnStream := comms.NewEncoder(conn)

	msg1, err := upStream.Decode()
	if err != nil {
		log.Info().Err(err).Msg("first message error")
		conn.Close()
		return
	}
	var req game.ConnectJSON
	if msg1.Type() != game.TypeConnect || comms.Decode(msg1, &req) != nil {
		log.Info().Msg("bad first message")
		_ = dnStream.Encode(game.TypeError, game.ErrorJSON{Err: comms.WrapError(game.ErrBadRequest)})
		conn.Close()
		return
	}

	host, err := m.server.Room(req.Room)
	if err != nil {
		log.Info().Err(err).Msg("connect error")
		_ = dnStream.Encode(game.TypeError, game.ErrorJSON{Err: comms.WrapError(err)})
		conn.Close()
		return
	}

	log = log.With().Str("room", host.Code()).Logger()
	err = host.Serve(ctx, session.ResumeStreamConn(conn, upStream), req.Ticket)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		log.Info().Err(err).Msg("client gone")
	}
}
