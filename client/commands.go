package client

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/game"
)

// ErrLocal means the line is for the client itself, not the host.
var ErrLocal = errors.New("local command")

func usage(format string, args ...interface{}) error {
	return fmt.Errorf("usage: "+format, args...)
}

func rollDie() int { return rand.Intn(6) + 1 }

// ParseCommand turns a line into an intent, against the state the player
// is looking at. die is used when a roll doesn't name its dice.
func ParseCommand(s game.State, line string, die func() int) (game.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrLocal
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "join":
		if len(args) != 1 {
			return nil, usage("join NAME")
		}
		return game.Join{Player: game.Player{Name: args[0]}}, nil
	case "start":
		return game.StartGame{}, nil
	case "roll":
		switch len(args) {
		case 0:
			return game.Roll{D1: die(), D2: die()}, nil
		case 2:
			d1, err1 := strconv.Atoi(args[0])
			d2, err2 := strconv.Atoi(args[1])
			if err1 != nil || err2 != nil {
				return nil, usage("roll [D1 D2]")
			}
			return game.Roll{D1: d1, D2: d2}, nil
		}
		return nil, usage("roll [D1 D2]")
	case "buy":
		return game.Buy{}, nil
	case "auction":
		return game.StartAuction{}, nil
	case "resolve":
		if len(args) != 2 {
			return nil, usage("resolve AMOUNT NAME")
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, usage("resolve AMOUNT NAME")
		}
		winner, ok := s.PlayerByName(args[1])
		if !ok {
			return nil, fmt.Errorf("no player %q", args[1])
		}
		return game.ResolveAuction{Amount: amount, WinnerID: winner.ID}, nil
	case "rent", "pay":
		return game.PayRent{}, nil
	case "end":
		return game.EndTurn{}, nil
	case "build":
		if len(args) != 1 {
			return nil, usage("build SPACE")
		}
		id, err := spaceID(args[0])
		if err != nil {
			return nil, err
		}
		return game.BuildHouse{SpaceID: id}, nil
	case "trade":
		return parseTrade(s, args)
	}

	return nil, ErrLocal
}

// parseTrade reads NAME OFFERCASH REQCASH then any number of o:SPACE and
// r:SPACE for offered and requested spaces.
func parseTrade(s game.State, args []string) (game.Intent, error) {
	if len(args) < 3 {
		return nil, usage("trade NAME OFFERCASH REQCASH [o:SPACE]... [r:SPACE]...")
	}
	if s.LocalPlayerID == "" {
		return nil, game.ErrNotSeated
	}
	to, ok := s.PlayerByName(args[0])
	if !ok {
		return nil, fmt.Errorf("no player %q", args[0])
	}
	offered, err1 := strconv.Atoi(args[1])
	requested, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return nil, usage("trade NAME OFFERCASH REQCASH [o:SPACE]... [r:SPACE]...")
	}

	offer := game.TradeOffer{
		FromPlayerID:  s.LocalPlayerID,
		ToPlayerID:    to.ID,
		OfferedCash:   offered,
		RequestedCash: requested,
	}
	for _, a := range args[3:] {
		side, ref, ok := strings.Cut(a, ":")
		if !ok {
			return nil, fmt.Errorf("bad trade item %q", a)
		}
		id, err := spaceID(ref)
		if err != nil {
			return nil, err
		}
		switch side {
		case "o":
			offer.OfferedProperties = append(offer.OfferedProperties, id)
		case "r":
			offer.RequestedProperties = append(offer.RequestedProperties, id)
		default:
			return nil, fmt.Errorf("bad trade item %q", a)
		}
	}
	return game.Trade{Offer: offer}, nil
}

func spaceID(ref string) (int, error) {
	id, err := strconv.Atoi(ref)
	if err != nil || !board.Valid(id) {
		return 0, fmt.Errorf("no space %q", ref)
	}
	return id, nil
}
