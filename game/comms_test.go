package game

import (
	"errors"
	"reflect"
	"testing"

	"github.com/undeconstructed/banker/comms"
)

func TestIntentWire(t *testing.T) {
	intents := []Intent{
		Join{Player{Name: "phil"}},
		StartGame{},
		Roll{3, 4},
		Buy{},
		StartAuction{},
		ResolveAuction{Amount: 50, WinnerID: "p2"},
		PayRent{},
		EndTurn{},
		Trade{TradeOffer{FromPlayerID: "a", ToPlayerID: "b", OfferedCash: 5, OfferedProperties: []int{1}}},
		BuildHouse{SpaceID: 39},
	}
	for _, in := range intents {
		msg, err := EncodeIntent(in)
		if err != nil {
			t.Fatalf("%s: encode: %v", in.Kind(), err)
		}
		if msg.Type() != in.Kind() {
			t.Errorf("%s: wrong type %s", in.Kind(), msg.Type())
		}
		back, err := DecodeIntent(msg)
		if err != nil {
			t.Fatalf("%s: decode: %v", in.Kind(), err)
		}
		if !reflect.DeepEqual(back, in) {
			t.Errorf("%s: got %#v", in.Kind(), back)
		}
	}
}

func TestIntentWire_flat(t *testing.T) {
	msg, err := comms.Parse([]byte(`{"type":"ACTION_ROLL","d1":6,"d2":5}`))
	if err != nil {
		t.Fatal(err)
	}
	in, err := DecodeIntent(msg)
	if err != nil {
		t.Fatal(err)
	}
	if in != (Roll{6, 5}) {
		t.Errorf("got %#v", in)
	}
}

func TestDecodeIntent_notIntent(t *testing.T) {
	msg, _ := comms.Encode(TypeSync, SyncJSON{})
	if _, err := DecodeIntent(msg); err == nil {
		t.Errorf("sync decoded as intent")
	}
}

func TestReError(t *testing.T) {
	err := ReError(comms.WrapError(ErrNotYourTurn))
	if !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("lost sentinel: %v", err)
	}
	err = ReError(&comms.CommsError{Code: "WHAT", Msg: "what"})
	if err == nil || err.Error() != "what" {
		t.Errorf("bad unknown: %v", err)
	}
}
