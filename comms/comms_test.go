package comms

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestEncDec(t *testing.T) {
	var network bytes.Buffer
	enc := NewEncoder(&network)
	dec := NewDecoder(&network)

	err := enc.Encode("test", struct {
		D1 int `json:"d1"`
	}{4})
	if err != nil {
		t.Errorf("enc error: %v", err)
	}
	err = enc.Encode("empty", nil)
	if err != nil {
		t.Errorf("enc error: %v", err)
	}

	msg, err := dec.Decode()
	if err != nil {
		t.Fatalf("dec error: %v", err)
	}
	if t0 := msg.Type(); t0 != "test" {
		t.Errorf("bad decode: %v", t0)
	}
	if string(msg.Data) != `{"type":"test","d1":4}` {
		t.Errorf("bad decode: %s", msg.Data)
	}

	msg, err = dec.Decode()
	if err != nil {
		t.Fatalf("dec error: %v", err)
	}
	if string(msg.Data) != `{"type":"empty"}` {
		t.Errorf("bad decode: %s", msg.Data)
	}
}

func TestEncode_notObject(t *testing.T) {
	if _, err := Encode("x", "data"); err == nil {
		t.Errorf("string body accepted")
	}
}

func TestParse_noType(t *testing.T) {
	if _, err := Parse([]byte(`{"d1":1}`)); err == nil {
		t.Errorf("untyped message accepted")
	}
}

type codedError struct{}

func (codedError) Error() string     { return "coded" }
func (codedError) ErrorCode() string { return "CODED" }

func TestWrapError(t *testing.T) {
	if WrapError(nil) != nil {
		t.Errorf("nil wrapped")
	}
	if c := WrapError(fmt.Errorf("outer: %w", codedError{})); c.Code != "CODED" {
		t.Errorf("lost code: %v", c)
	}
	if c := WrapError(errors.New("plain")); c.Code != "UNKNOWN" || c.Msg != "plain" {
		t.Errorf("bad plain wrap: %v", c)
	}
}
