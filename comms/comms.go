// Package comms is the wire format: one JSON object per message, with a
// "type" field saying what the rest of it is.
package comms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Message is a whole envelope. Data holds the complete object, type field
// included.
type Message struct {
	Head string
	Data json.RawMessage
}

func (m Message) Type() string { return m.Head }

func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Data) == 0 {
		return json.Marshal(struct {
			Type string `json:"type"`
		}{m.Head})
	}
	return m.Data, nil
}

func (m *Message) UnmarshalJSON(b []byte) error {
	msg, err := Parse(b)
	if err != nil {
		return err
	}
	*m = msg
	return nil
}

// Encode makes a message of type mtype with the fields of data alongside.
func Encode(mtype string, data interface{}) (Message, error) {
	head, err := json.Marshal(mtype)
	if err != nil {
		return Message{}, err
	}

	body := []byte("{}")
	if data != nil {
		body, err = json.Marshal(data)
		if err != nil {
			return Message{}, err
		}
	}
	body = bytes.TrimSpace(body)
	if len(body) < 2 || body[0] != '{' {
		return Message{}, fmt.Errorf("cannot encode %T as a message", data)
	}

	var out bytes.Buffer
	out.WriteString(`{"type":`)
	out.Write(head)
	if rest := bytes.TrimSpace(body[1:]); len(rest) > 0 && rest[0] != '}' {
		out.WriteByte(',')
	}
	out.Write(body[1:])

	return Message{Head: mtype, Data: out.Bytes()}, nil
}

// Decode reads the fields of msg into v.
func Decode(msg Message, v interface{}) error {
	return json.Unmarshal(msg.Data, v)
}

// Parse reads a message out of raw bytes.
func Parse(b []byte) (Message, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return Message{}, err
	}
	if head.Type == "" {
		return Message{}, errors.New("message has no type")
	}
	data := make([]byte, len(b))
	copy(data, b)
	return Message{Head: head.Type, Data: data}, nil
}

// Encoder writes messages as lines.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) Send(msg Message) error {
	data, err := msg.MarshalJSON()
	if err != nil {
		return err
	}
	data = append(bytes.TrimSpace(data), '\n')
	_, err = e.w.Write(data)
	return err
}

func (e *Encoder) Encode(mtype string, data interface{}) error {
	msg, err := Encode(mtype, data)
	if err != nil {
		return err
	}
	return e.Send(msg)
}

// Decoder reads messages as lines.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

func (d *Decoder) Decode() (Message, error) {
	for {
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return Parse(line)
		}
		if err != nil {
			return Message{}, err
		}
	}
}

type CommsError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CommsError) Error() string {
	return e.Msg
}

type coded interface {
	ErrorCode() string
}

// WrapError makes any error sendable, keeping its code if it has one.
func WrapError(err error) *CommsError {
	if err == nil {
		return nil
	}
	var c coded
	if errors.As(err, &c) {
		return &CommsError{Code: c.ErrorCode(), Msg: err.Error()}
	}
	return &CommsError{Code: "UNKNOWN", Msg: err.Error()}
}
