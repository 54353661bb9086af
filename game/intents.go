package game

// Intent is a request to change a room. The set is closed, only types in
// this package implement it.
type Intent interface {
	Kind() string
	intent()
}

const (
	KindJoin           = "PLAYER_JOIN"
	KindStart          = "START_GAME"
	KindRoll           = "ACTION_ROLL"
	KindBuy            = "ACTION_BUY"
	KindStartAuction   = "ACTION_AUCTION_START"
	KindResolveAuction = "ACTION_AUCTION_RESOLVE"
	KindPayRent        = "ACTION_PAY_RENT"
	KindEndTurn        = "ACTION_END_TURN"
	KindTrade          = "ACTION_TRADE"
	KindBuildHouse     = "ACTION_BUILD_HOUSE"
)

// Join appends an already admitted player.
type Join struct {
	Player Player
}

type StartGame struct{}

type Roll struct {
	D1, D2 int
}

type Buy struct{}

type StartAuction struct{}

type ResolveAuction struct {
	Amount   int
	WinnerID string
}

type PayRent struct{}

type EndTurn struct{}

type Trade struct {
	Offer TradeOffer
}

type BuildHouse struct {
	SpaceID int
}

func (Join) Kind() string           { return KindJoin }
func (StartGame) Kind() string      { return KindStart }
func (Roll) Kind() string           { return KindRoll }
func (Buy) Kind() string            { return KindBuy }
func (StartAuction) Kind() string   { return KindStartAuction }
func (ResolveAuction) Kind() string { return KindResolveAuction }
func (PayRent) Kind() string        { return KindPayRent }
func (EndTurn) Kind() string        { return KindEndTurn }
func (Trade) Kind() string          { return KindTrade }
func (BuildHouse) Kind() string     { return KindBuildHouse }

func (Join) intent()           {}
func (StartGame) intent()      {}
func (Roll) intent()           {}
func (Buy) intent()            {}
func (StartAuction) intent()   {}
func (ResolveAuction) intent() {}
func (PayRent) intent()        {}
func (EndTurn) intent()        {}
func (Trade) intent()          {}
func (BuildHouse) intent()     {}
