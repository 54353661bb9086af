package game

import (
	"errors"
	"fmt"

	"github.com/undeconstructed/banker/comms"
)

// message types that are not intents
const (
	TypeSync    = "SYNC"
	TypeSeat    = "SEAT"
	TypeError   = "ERROR"
	TypeConnect = "CONNECT"
)

// ReError matches error codes to error objects
func ReError(cerr *comms.CommsError) error {
	if cerr == nil {
		return nil
	}

	for _, e := range allErrors {
		if e.Code == cerr.Code {
			return e
		}
	}
	return errors.New(cerr.Error())
}

type SyncJSON struct {
	State State `json:"state"`
}

type SeatJSON struct {
	PlayerID string `json:"playerId"`
	Ticket   string `json:"ticket"`
}

type ErrorJSON struct {
	Err *comms.CommsError `json:"error"`
}

// ConnectJSON opens a stream connection to a room.
type ConnectJSON struct {
	Room   string `json:"room"`
	Ticket string `json:"ticket,omitempty"`
}

type joinJSON struct {
	Player Player `json:"player"`
}

type rollJSON struct {
	D1 int `json:"d1"`
	D2 int `json:"d2"`
}

type resolveJSON struct {
	Amount   int    `json:"amount"`
	WinnerID string `json:"winnerId"`
}

type tradeJSON struct {
	Offer TradeOffer `json:"offer"`
}

type buildJSON struct {
	SpaceID int `json:"spaceId"`
}

// EncodeIntent makes the wire message for an intent.
func EncodeIntent(in Intent) (comms.Message, error) {
	var body interface{}
	switch in := in.(type) {
	case Join:
		body = joinJSON{in.Player}
	case Roll:
		body = rollJSON{in.D1, in.D2}
	case ResolveAuction:
		body = resolveJSON{in.Amount, in.WinnerID}
	case Trade:
		body = tradeJSON{in.Offer}
	case BuildHouse:
		body = buildJSON{in.SpaceID}
	}
	return comms.Encode(in.Kind(), body)
}

// DecodeIntent reads an intent from the wire. Messages that are not intents
// are an error.
func DecodeIntent(msg comms.Message) (Intent, error) {
	var err error
	switch msg.Type() {
	case KindJoin:
		var b joinJSON
		err = comms.Decode(msg, &b)
		return Join{b.Player}, err
	case KindStart:
		return StartGame{}, nil
	case KindRoll:
		var b rollJSON
		err = comms.Decode(msg, &b)
		return Roll{b.D1, b.D2}, err
	case KindBuy:
		return Buy{}, nil
	case KindStartAuction:
		return StartAuction{}, nil
	case KindResolveAuction:
		var b resolveJSON
		err = comms.Decode(msg, &b)
		return ResolveAuction{b.Amount, b.WinnerID}, err
	case KindPayRent:
		return PayRent{}, nil
	case KindEndTurn:
		return EndTurn{}, nil
	case KindTrade:
		var b tradeJSON
		err = comms.Decode(msg, &b)
		return Trade{b.Offer}, err
	case KindBuildHouse:
		var b buildJSON
		err = comms.Decode(msg, &b)
		return BuildHouse{b.SpaceID}, err
	default:
		return nil, fmt.Errorf("not an intent: %s", msg.Type())
	}
}
