package session

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/undeconstructed/banker/comms"
)

func TestPipe(t *testing.T) {
	ctx := context.Background()
	a, b := Pipe()
	msg, _ := comms.Encode("hello", nil)
	if err := a.Send(ctx, msg); err != nil {
		t.Fatal(err)
	}
	got, err := b.Recv(ctx)
	if err != nil || got.Type() != "hello" {
		t.Errorf("recv: %v %v", got, err)
	}
	b.Close()
	if err := a.Send(ctx, msg); !errors.Is(err, ErrClosed) {
		t.Errorf("send after close: %v", err)
	}
	if _, err := a.Recv(ctx); err != io.EOF {
		t.Errorf("recv after close: %v", err)
	}
}

func TestStreamConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	x, y := net.Pipe()
	a, b := NewStreamConn(x), NewStreamConn(y)
	defer a.Close()
	defer b.Close()

	go func() {
		msg, _ := comms.Encode("ACTION_ROLL", map[string]int{"d1": 2, "d2": 3})
		_ = a.Send(ctx, msg)
	}()
	got, err := b.Recv(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Type() != "ACTION_ROLL" {
		t.Errorf("bad type: %s", got.Type())
	}
}
