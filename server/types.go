package server

import (
	"github.com/undeconstructed/banker/game"
)

// MakeRoomInput is the body of a create request. The named player becomes
// the room's host.
type MakeRoomInput struct {
	Name  string      `json:"name"`
	Rules *game.Rules `json:"rules,omitempty"`
}

type MakeRoomOutput struct {
	Code       string `json:"code"`
	Rendezvous string `json:"rendezvous"`
	PlayerID   string `json:"playerId"`
	Ticket     string `json:"ticket"`
}

// RoomSummary is what listing shows about each room.
type RoomSummary struct {
	Code    string     `json:"code"`
	Phase   game.Phase `json:"phase"`
	Players []string   `json:"players"`
	Version int64      `json:"version"`
}

type errorOutput struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func summarize(s game.State) RoomSummary {
	names := make([]string, 0, len(s.Players))
	for _, p := range s.Players {
		names = append(names, p.Name)
	}
	return RoomSummary{
		Code:    s.RoomCode,
		Phase:   s.Phase,
		Players: names,
		Version: s.Version,
	}
}
