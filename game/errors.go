package game

type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrNotYourTurn means you can't do something while it's not your turn
	ErrNotYourTurn = &GameError{"NOTYOURTURN", "it's not your turn"}
	// ErrNotNow is for maybe valid moves that are not allowed now
	ErrNotNow = &GameError{"NOTNOW", "you cannot do that now"}
	// ErrBadRequest is for bad requests
	ErrBadRequest = &GameError{"BADREQUEST", "bad request"}
	// ErrNotSeated means the connection has no player yet
	ErrNotSeated = &GameError{"NOTSEATED", "you have not joined"}
	// ErrUnknownPlayer means a named player isn't in the game
	ErrUnknownPlayer = &GameError{"UNKNOWNPLAYER", "no such player"}
	// ErrNotOwner means a space in a trade isn't held by who is giving it
	ErrNotOwner = &GameError{"NOTOWNER", "that is not theirs to give"}
	// ErrCannotBuild means the house rules forbid building there
	ErrCannotBuild = &GameError{"CANNOTBUILD", "cannot build there"}
	// ErrAuctionDisabled means the room turned auctions off
	ErrAuctionDisabled = &GameError{"AUCTIONDISABLED", "auctions are disabled"}
	// ErrNotLobbyOwner means only the host can start
	ErrNotLobbyOwner = &GameError{"NOTLOBBYOWNER", "only the host can start the game"}

	// ErrDuplicateName means a player with the same name already is
	ErrDuplicateName = &GameError{"DUPLICATENAME", "name already taken"}
	// ErrRoomNotFound means there is no room with that code
	ErrRoomNotFound = &GameError{"ROOMNOTFOUND", "room not found"}
	// ErrGameStarted means joining is over
	ErrGameStarted = &GameError{"GAMESTARTED", "game has already started"}
	// ErrRoomFull means every colour is taken
	ErrRoomFull = &GameError{"ROOMFULL", "room is full"}
	// ErrBadTicket means a seat ticket didn't check out
	ErrBadTicket = &GameError{"BADTICKET", "bad seat ticket"}
)

var allErrors = []*GameError{
	ErrNotYourTurn, ErrNotNow, ErrBadRequest, ErrNotSeated, ErrUnknownPlayer,
	ErrNotOwner, ErrCannotBuild, ErrAuctionDisabled, ErrNotLobbyOwner,
	ErrDuplicateName, ErrRoomNotFound, ErrGameStarted, ErrRoomFull, ErrBadTicket,
}
