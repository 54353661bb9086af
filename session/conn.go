// Package session replicates a room. One Host owns the state and applies
// intents one at a time; Peers forward intents and take whatever snapshot
// the host sends.
package session

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/undeconstructed/banker/comms"
)

// ErrClosed is returned by a Conn after Close.
var ErrClosed = errors.New("connection closed")

// Conn carries messages between a host and one peer.
type Conn interface {
	Send(ctx context.Context, msg comms.Message) error
	Recv(ctx context.Context) (comms.Message, error)
	Close() error
}

type pipeEnd struct {
	in     <-chan comms.Message
	out    chan<- comms.Message
	closed chan struct{}
	once   *sync.Once
}

// Pipe makes two connected in-memory ends. Closing either closes both.
func Pipe() (Conn, Conn) {
	a := make(chan comms.Message, 100)
	b := make(chan comms.Message, 100)
	closed := make(chan struct{})
	once := &sync.Once{}
	return &pipeEnd{a, b, closed, once}, &pipeEnd{b, a, closed, once}
}

func (p *pipeEnd) Send(ctx context.Context, msg comms.Message) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	select {
	case p.out <- msg:
		return nil
	case <-p.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeEnd) Recv(ctx context.Context) (comms.Message, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.closed:
		return comms.Message{}, io.EOF
	case <-ctx.Done():
		return comms.Message{}, ctx.Err()
	}
}

func (p *pipeEnd) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

type streamConn struct {
	rwc  io.ReadWriteCloser
	enc  *comms.Encoder
	dec  *comms.Decoder
	lock sync.Mutex
}

// NewStreamConn speaks line-delimited messages over a byte stream. Recv
// ignores ctx, closing the stream is what unblocks it.
func NewStreamConn(rwc io.ReadWriteCloser) Conn {
	return &streamConn{
		rwc: rwc,
		enc: comms.NewEncoder(rwc),
		dec: comms.NewDecoder(rwc),
	}
}

// ResumeStreamConn is NewStreamConn for a stream that dec has already read
// from, so nothing it buffered is lost.
func ResumeStreamConn(rwc io.ReadWriteCloser, dec *comms.Decoder) Conn {
	return &streamConn{
		rwc: rwc,
		enc: comms.NewEncoder(rwc),
		dec: dec,
	}
}

func (s *streamConn) Send(_ context.Context, msg comms.Message) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.enc.Send(msg)
}

func (s *streamConn) Recv(_ context.Context) (comms.Message, error) {
	return s.dec.Decode()
}

func (s *streamConn) Close() error {
	return s.rwc.Close()
}
