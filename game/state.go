package game

import (
	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/rules"
)

type Phase string

const (
	PhaseSetup   Phase = "SETUP"
	PhaseLobby   Phase = "LOBBY"
	PhaseRoll    Phase = "ROLL"
	PhaseAction  Phase = "ACTION"
	PhaseAuction Phase = "AUCTION"
	// PhaseTrade is never entered, trades go through at once
	PhaseTrade Phase = "TRADE_PROPOSAL"
)

type LogKind string

const (
	LogInfo        LogKind = "INFO"
	LogTransaction LogKind = "TRANSACTION"
	LogAlert       LogKind = "ALERT"
	LogMove        LogKind = "MOVE"
)

type Rules struct {
	StartingCash     int               `json:"startingCash"`
	GoSalary         int               `json:"goSalary"`
	ParkingBonus     int               `json:"parkingBonus"`
	HouseBuilding    rules.BuildPolicy `json:"houseBuilding"`
	MortgageInterest float64           `json:"mortgageInterest"`
	AuctionEnabled   bool              `json:"auctionEnabled"`
}

func DefaultRules() Rules {
	return Rules{
		StartingCash:     1500,
		GoSalary:         200,
		ParkingBonus:     0,
		HouseBuilding:    rules.BuildEven,
		MortgageInterest: 0.1,
		AuctionEnabled:   true,
	}
}

type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Money     int    `json:"money"`
	Position  int    `json:"position"`
	InJail    bool   `json:"isInJail"`
	JailTurns int    `json:"jailTurns"`
	JailCards int    `json:"getOutOfJailFreeCards"`
}

type Auction struct {
	Active     bool `json:"active"`
	PropertyID int  `json:"propertyId"`
}

type TradeOffer struct {
	FromPlayerID        string `json:"fromPlayerId"`
	ToPlayerID          string `json:"toPlayerId"`
	OfferedCash         int    `json:"offeredCash"`
	OfferedProperties   []int  `json:"offeredProperties"`
	OfferedJailCards    int    `json:"offeredJailCards"`
	RequestedCash       int    `json:"requestedCash"`
	RequestedProperties []int  `json:"requestedProperties"`
	RequestedJailCards  int    `json:"requestedJailCards"`
}

type LogEntry struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Message   string  `json:"message"`
	Kind      LogKind `json:"type"`
}

// State is one immutable snapshot of a room. Apply never changes a State it
// is given, it builds a new one.
type State struct {
	Version            int64            `json:"version"`
	RoomCode           string           `json:"roomCode"`
	Rules              Rules            `json:"rules"`
	Players            []Player         `json:"players"`
	CurrentPlayerIndex int              `json:"currentPlayerIndex"`
	Properties         rules.Properties `json:"properties"`
	Phase              Phase            `json:"phase"`
	Dice               [2]int           `json:"dice"`
	LastRollWasDouble  bool             `json:"lastRollWasDouble"`
	ConsecutiveDoubles int              `json:"consecutiveDoubles"`
	Auction            *Auction         `json:"auction"`
	ActiveTrade        *TradeOffer      `json:"activeTrade"`
	Logs               []LogEntry       `json:"logs"`

	// local to one peer, never authoritative
	LocalPlayerID string `json:"localPlayerId,omitempty"`
	ViewMode      string `json:"viewMode,omitempty"`
}

// NewState is an empty room in SETUP.
func NewState(code string, r Rules) State {
	return State{
		RoomCode:   code,
		Rules:      r,
		Properties: rules.Properties{},
		Phase:      PhaseSetup,
	}
}

// Current is the player whose turn it is.
func (s State) Current() (Player, bool) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// PlayerIndex finds a player by id, or -1.
func (s State) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// PlayerByName finds a player by name.
func (s State) PlayerByName(name string) (Player, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// Snapshot strips anything a peer keeps for itself.
func (s State) Snapshot() State {
	s.LocalPlayerID = ""
	s.ViewMode = ""
	return s
}

// Obligation says what the current player must settle before ending an
// action phase.
type Obligation int

const (
	NothingDue Obligation = iota
	Buyable
	RentDue
	TaxDue
)

func (o Obligation) String() string {
	switch o {
	case Buyable:
		return "buyable"
	case RentDue:
		return "rent"
	case TaxDue:
		return "tax"
	default:
		return "none"
	}
}

// Owes works out the obligation for where the current player stands.
func (s State) Owes() Obligation {
	p, ok := s.Current()
	if !ok {
		return NothingDue
	}
	space := board.At(p.Position)
	if space.Type == board.Tax {
		return TaxDue
	}
	if !space.Type.Ownable() {
		return NothingDue
	}
	ps, owned := s.Properties[space.ID]
	if !owned {
		return Buyable
	}
	if ps.OwnerID != p.ID {
		return RentDue
	}
	return NothingDue
}
