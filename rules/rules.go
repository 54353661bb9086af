// Package rules computes rent and building eligibility from the board and
// who owns what. Nothing here holds state.
package rules

import "github.com/undeconstructed/banker/board"

// MaxHouses is a hotel.
const MaxHouses = 5

// PropertyState is the ownership record for one ownable space.
type PropertyState struct {
	OwnerID     string `json:"ownerId"`
	Houses      int    `json:"houses"`
	IsMortgaged bool   `json:"isMortgaged"`
}

// Properties maps space id to ownership. A missing entry means unowned.
type Properties map[int]PropertyState

type BuildPolicy string

const (
	// BuildEven enforces the n-1 rule across a colour group
	BuildEven BuildPolicy = "even"
	// BuildAny lets houses go anywhere once the group is held
	BuildAny BuildPolicy = "any"
)

func (p Properties) ownedBy(id int, owner string) bool {
	ps, ok := p[id]
	return ok && ps.OwnerID == owner
}

func (p Properties) active(id int, owner string) bool {
	ps, ok := p[id]
	return ok && ps.OwnerID == owner && !ps.IsMortgaged
}

// OwnsGroup is true if owner holds every space in the group.
func OwnsGroup(g board.Group, owner string, props Properties) bool {
	ids := board.InGroup(g)
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !props.ownedBy(id, owner) {
			return false
		}
	}
	return true
}

// CountOwned counts un-mortgaged spaces of a group held by owner.
func CountOwned(g board.Group, owner string, props Properties) int {
	n := 0
	for _, id := range board.InGroup(g) {
		if props.active(id, owner) {
			n++
		}
	}
	return n
}

// Rent is what landing on space costs, owed to owner.
func Rent(space board.Space, owner string, props Properties, diceTotal int) int {
	ps, ok := props[space.ID]
	if !ok || ps.IsMortgaged {
		return 0
	}

	switch space.Group {
	case board.UtilGroup:
		if CountOwned(board.UtilGroup, owner, props) == 2 {
			return diceTotal * 10
		}
		return diceTotal * 4
	case board.RailGroup:
		n := CountOwned(board.RailGroup, owner, props)
		if n == 0 {
			return 0
		}
		return 25 << (n - 1)
	}

	if space.Type != board.Property {
		return 0
	}

	if ps.Houses > 0 {
		return space.RentFor(ps.Houses)
	}
	if OwnsGroup(space.Group, owner, props) {
		return space.BaseRent * 2
	}
	return space.BaseRent
}

// CanBuildHouse reports whether owner may add a house to space.
func CanBuildHouse(space board.Space, owner string, props Properties, policy BuildPolicy) bool {
	if space.Type != board.Property {
		return false
	}
	if !OwnsGroup(space.Group, owner, props) {
		return false
	}

	group := board.InGroup(space.Group)
	for _, id := range group {
		if props[id].IsMortgaged {
			return false
		}
	}

	current := props[space.ID].Houses
	if current >= MaxHouses {
		return false
	}

	if policy == BuildAny {
		return true
	}

	least := MaxHouses
	for _, id := range group {
		if h := props[id].Houses; h < least {
			least = h
		}
	}
	return current == least
}

// Tax is the fixed charge for a tax space, or 0.
func Tax(space board.Space) int {
	if space.Type != board.Tax {
		return 0
	}
	if space.ID == 4 {
		return 200
	}
	return 100
}
