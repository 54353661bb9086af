package nakama

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/undeconstructed/banker/lobby"

	"github.com/heroiclabs/nakama-common/runtime"
)

const RPCCreateRoom = "banker_create_room"

type createRoomInput struct {
	Rules json.RawMessage `json:"rules,omitempty"`
}

type createRoomOutput struct {
	MatchID string `json:"matchId"`
	Code    string `json:"code"`
}

// InitModule registers the match and the rpc that makes rooms.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterMatch(MatchName, func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
		return newMatchHandler(), nil
	}); err != nil {
		return err
	}

	if err := initializer.RegisterRpc(RPCCreateRoom, createRoomRPC); err != nil {
		return err
	}

	logger.Info("banker module loaded.")
	return nil
}

func createRoomRPC(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	var in createRoomInput
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &in); err != nil {
			return "", runtime.NewError("bad payload", 3)
		}
	}

	code := lobby.NewCode()
	params := map[string]interface{}{"code": code}
	if len(in.Rules) > 0 {
		params["rules"] = string(in.Rules)
	}
	id, err := nk.MatchCreate(ctx, MatchName, params)
	if err != nil {
		logger.Error("create room: %v", err)
		return "", runtime.NewError("cannot create room", 13)
	}

	out, _ := json.Marshal(createRoomOutput{MatchID: id, Code: code})
	return string(out), nil
}
