package game

import (
	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/rules"
)

// Check decides whether sender may submit in against s. The reducer trusts
// whatever passes here. An empty sender is a connection with no seat.
func Check(s State, sender string, in Intent) error {
	if _, ok := in.(Join); ok {
		if s.Phase != PhaseLobby {
			return ErrGameStarted
		}
		return nil
	}

	if sender == "" || s.PlayerIndex(sender) < 0 {
		return ErrNotSeated
	}

	switch in := in.(type) {
	case StartGame:
		if s.Phase != PhaseLobby {
			return ErrNotNow
		}
		if len(s.Players) == 0 || s.Players[0].ID != sender {
			return ErrNotLobbyOwner
		}
		if len(s.Players) < 2 {
			return ErrNotNow
		}
		return nil
	case ResolveAuction:
		if s.Phase != PhaseAuction || s.Auction == nil {
			return ErrNotNow
		}
		if s.PlayerIndex(in.WinnerID) < 0 {
			return ErrUnknownPlayer
		}
		if in.Amount < 0 {
			return ErrBadRequest
		}
		return nil
	case Trade:
		return checkTrade(s, in.Offer)
	}

	if s.Phase == PhaseSetup || s.Phase == PhaseLobby {
		return ErrNotNow
	}
	cur, ok := s.Current()
	if !ok || cur.ID != sender {
		return ErrNotYourTurn
	}

	switch in := in.(type) {
	case Roll:
		if s.Phase != PhaseRoll {
			return ErrNotNow
		}
		if !validDie(in.D1) || !validDie(in.D2) {
			return ErrBadRequest
		}
	case Buy:
		if s.Phase != PhaseAction || s.Owes() != Buyable {
			return ErrNotNow
		}
	case StartAuction:
		if s.Phase != PhaseAction || s.Owes() != Buyable {
			return ErrNotNow
		}
		if !s.Rules.AuctionEnabled {
			return ErrAuctionDisabled
		}
	case PayRent:
		if s.Phase != PhaseAction {
			return ErrNotNow
		}
		if o := s.Owes(); o != RentDue && o != TaxDue {
			return ErrNotNow
		}
	case EndTurn:
		if s.Phase != PhaseAction || s.Owes() != NothingDue {
			return ErrNotNow
		}
	case BuildHouse:
		if s.Phase != PhaseRoll && s.Phase != PhaseAction {
			return ErrNotNow
		}
		if !board.Valid(in.SpaceID) {
			return ErrBadRequest
		}
		if !rules.CanBuildHouse(board.At(in.SpaceID), sender, s.Properties, s.Rules.HouseBuilding) {
			return ErrCannotBuild
		}
	default:
		return ErrBadRequest
	}
	return nil
}

func validDie(d int) bool {
	return d >= 1 && d <= 6
}

func checkTrade(s State, o TradeOffer) error {
	if s.Phase == PhaseSetup || s.Phase == PhaseLobby {
		return ErrNotNow
	}
	if s.PlayerIndex(o.FromPlayerID) < 0 || s.PlayerIndex(o.ToPlayerID) < 0 {
		return ErrUnknownPlayer
	}
	if o.FromPlayerID == o.ToPlayerID || o.OfferedCash < 0 || o.RequestedCash < 0 {
		return ErrBadRequest
	}
	for _, id := range o.OfferedProperties {
		if s.Properties[id].OwnerID != o.FromPlayerID || !board.Valid(id) {
			return ErrNotOwner
		}
	}
	for _, id := range o.RequestedProperties {
		if s.Properties[id].OwnerID != o.ToPlayerID || !board.Valid(id) {
			return ErrNotOwner
		}
	}
	return nil
}
