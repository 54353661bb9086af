package session

import (
	"context"
	"fmt"

	"github.com/undeconstructed/banker/comms"

	"nhooyr.io/websocket"
)

// Subprotocol is what both ends of a websocket must agree to speak.
const Subprotocol = "banker"

type wsConn struct {
	c *websocket.Conn
}

// NewWebsocketConn sends each message as one text frame.
func NewWebsocketConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

func (w *wsConn) Send(ctx context.Context, msg comms.Message) error {
	data, err := msg.MarshalJSON()
	if err != nil {
		return err
	}
	return w.c.Write(ctx, websocket.MessageText, data)
}

func (w *wsConn) Recv(ctx context.Context) (comms.Message, error) {
	typ, data, err := w.c.Read(ctx)
	if err != nil {
		return comms.Message{}, err
	}
	if typ != websocket.MessageText {
		return comms.Message{}, fmt.Errorf("can't deal with a %v", typ)
	}
	return comms.Parse(data)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}
