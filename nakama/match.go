// Package nakama runs rooms as nakama authoritative matches. Players are
// nakama users, and the wire messages are the same JSON as everywhere else.
package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/comms"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"

	"github.com/heroiclabs/nakama-common/runtime"
)

const MatchName = "banker"

// op codes, one per message type
const (
	OpIntent int64 = 1
	OpSync   int64 = 2
	OpSeat   int64 = 3
	OpError  int64 = 4
)

// a match with nobody in it for this many ticks ends
const idleTicks = 60

// MatchState is the match's state between nakama calls.
type MatchState struct {
	Game game.State
	// user id -> player id
	Seats     map[string]string
	Presences map[string]runtime.Presence
	Empty     int

	engine *game.Engine
}

func newMatchState(code string, rules game.Rules) *MatchState {
	s := game.NewState(code, rules)
	s.Phase = game.PhaseLobby
	return &MatchState{
		Game:      s,
		Seats:     map[string]string{},
		Presences: map[string]runtime.Presence{},
		engine:    game.NewEngine(),
	}
}

// admit seats a user, unless they have a seat already.
func (ms *MatchState) admit(userID, name string) (string, error) {
	if id, ok := ms.Seats[userID]; ok {
		return id, nil
	}
	s, p, err := lobby.Admit(ms.engine, ms.Game, game.Player{Name: name})
	if err != nil {
		return "", err
	}
	ms.Game = s
	ms.Seats[userID] = p.ID
	return p.ID, nil
}

// handle runs one message from a user. It reports whether the game moved.
func (ms *MatchState) handle(userID string, data []byte) (bool, error) {
	msg, err := comms.Parse(data)
	if err != nil {
		return false, game.ErrBadRequest
	}
	in, err := game.DecodeIntent(msg)
	if err != nil {
		return false, game.ErrBadRequest
	}
	if _, ok := in.(game.Join); ok {
		// seats come from joining the match
		return false, game.ErrNotNow
	}

	sender := ms.Seats[userID]
	if err := game.Check(ms.Game, sender, in); err != nil {
		return false, err
	}
	next := ms.engine.Apply(ms.Game, in)
	if next.Version == ms.Game.Version {
		return false, nil
	}
	ms.Game = next
	return true, nil
}

type matchLabel struct {
	Code  string     `json:"code"`
	Phase game.Phase `json:"phase"`
	Open  int        `json:"open"`
}

func (ms *MatchState) label() string {
	open := len(ms.Game.Players)
	if ms.Game.Phase == game.PhaseLobby {
		open = len(board.Colors()) - open
	} else {
		open = 0
	}
	b, _ := json.Marshal(matchLabel{
		Code:  ms.Game.RoomCode,
		Phase: ms.Game.Phase,
		Open:  open,
	})
	return string(b)
}

type matchHandler struct{}

func newMatchHandler() *matchHandler {
	return &matchHandler{}
}

// MatchInit takes optional "code" and "rules" params. Rules are JSON.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	code, _ := params["code"].(string)
	code = lobby.NormalizeCode(code)
	if !lobby.ValidCode(code) {
		code = lobby.NewCode()
	}
	rules := game.DefaultRules()
	if raw, ok := params["rules"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			logger.Warn("MatchInit: bad rules, using defaults: %v", err)
			rules = game.DefaultRules()
		}
	}

	state := newMatchState(code, rules)
	logger.Debug("MatchInit: room %s", state.Game.RoomCode)

	tickRate := 1
	return state, tickRate, state.label()
}

// MatchJoinAttempt lets back anyone with a seat, anyone the lobby would
// seat, and anyone at all once the game runs, as a spectator.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	ms, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}

	if _, seated := ms.Seats[presence.GetUserId()]; seated || ms.Game.Phase != game.PhaseLobby {
		return ms, true, ""
	}
	// try it on a copy, the seat is only taken in MatchJoin
	trial := *ms
	trial.Seats = map[string]string{}
	if _, err := trial.admit(presence.GetUserId(), presence.GetUsername()); err != nil {
		return ms, false, comms.WrapError(err).Code
	}
	return ms, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		ms.Presences[p.GetUserId()] = p
		if ms.Game.Phase != game.PhaseLobby {
			if _, seated := ms.Seats[p.GetUserId()]; !seated {
				continue
			}
		}
		id, err := ms.admit(p.GetUserId(), p.GetUsername())
		if err != nil {
			logger.Warn("MatchJoin: %s not seated: %v", p.GetUserId(), err)
			mh.sendError(ms, dispatcher, logger, p.GetUserId(), err)
			continue
		}
		mh.sendSeat(ms, dispatcher, logger, p, id)
	}
	ms.Empty = 0

	mh.broadcastSync(ms, dispatcher, logger)
	mh.updateLabel(ms, dispatcher, logger)
	return ms
}

// MatchLeave keeps seats, so players can come back.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}
	for _, p := range presences {
		delete(ms.Presences, p.GetUserId())
	}
	return ms
}

// MatchLoop applies messages strictly in the order nakama gives them.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	ms, ok := state.(*MatchState)
	if !ok {
		return state
	}

	if len(ms.Presences) == 0 {
		ms.Empty++
		if ms.Empty >= idleTicks {
			logger.Info("MatchLoop: room %s idle, ending", ms.Game.RoomCode)
			return nil
		}
	}

	changed := false
	for _, msg := range messages {
		if msg.GetOpCode() != OpIntent {
			logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
			continue
		}
		moved, err := ms.handle(msg.GetUserId(), msg.GetData())
		if err != nil {
			mh.sendError(ms, dispatcher, logger, msg.GetUserId(), err)
			continue
		}
		if moved {
			changed = true
			mh.broadcastSync(ms, dispatcher, logger)
		}
	}
	if changed {
		mh.updateLabel(ms, dispatcher, logger)
	}

	return ms
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated, grace %d", graceSeconds)
	return state
}

// MatchSignal answers "snapshot" with the current state.
func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	ms, ok := state.(*MatchState)
	if !ok || data != "snapshot" {
		return state, ""
	}
	b, err := json.Marshal(ms.Game.Snapshot())
	if err != nil {
		logger.Error("MatchSignal: %v", err)
		return ms, ""
	}
	return ms, string(b)
}

func (mh *matchHandler) broadcastSync(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	msg, err := comms.Encode(game.TypeSync, game.SyncJSON{State: ms.Game.Snapshot()})
	if err != nil {
		logger.Error("Failed to encode sync: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSync, msg.Data, nil, nil, true)
}

func (mh *matchHandler) sendSeat(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, p runtime.Presence, playerID string) {
	// nakama sessions authenticate, so there is no ticket
	msg, err := comms.Encode(game.TypeSeat, game.SeatJSON{PlayerID: playerID})
	if err != nil {
		logger.Error("Failed to encode seat: %v", err)
		return
	}
	dispatcher.BroadcastMessage(OpSeat, msg.Data, []runtime.Presence{p}, nil, true)
}

func (mh *matchHandler) sendError(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, err error) {
	presence, ok := ms.Presences[userID]
	if !ok {
		logger.Warn("Cannot send error to %s: Presence not found", userID)
		return
	}
	msg, eerr := comms.Encode(game.TypeError, game.ErrorJSON{Err: comms.WrapError(err)})
	if eerr != nil {
		logger.Error("Failed to encode error: %v", eerr)
		return
	}
	dispatcher.BroadcastMessage(OpError, msg.Data, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(ms *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if err := dispatcher.MatchLabelUpdate(ms.label()); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
	}
}
