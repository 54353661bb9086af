package board

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// Size is the number of spaces around the board.
const Size = 40

// JailPosition is where jailed players sit.
const JailPosition = 10

type SpaceType string

const (
	Property       SpaceType = "PROPERTY"
	Railroad       SpaceType = "RAILROAD"
	Utility        SpaceType = "UTILITY"
	Go             SpaceType = "GO"
	Jail           SpaceType = "JAIL"
	GoToJail       SpaceType = "GO_TO_JAIL"
	FreeParking    SpaceType = "FREE_PARKING"
	Tax            SpaceType = "TAX"
	Chance         SpaceType = "CHANCE"
	CommunityChest SpaceType = "COMMUNITY_CHEST"
)

// Ownable is true for spaces that can be bought.
func (t SpaceType) Ownable() bool {
	return t == Property || t == Railroad || t == Utility
}

type Group string

const (
	Brown     Group = "BROWN"
	LightBlue Group = "LIGHT_BLUE"
	Pink      Group = "PINK"
	Orange    Group = "ORANGE"
	Red       Group = "RED"
	Yellow    Group = "YELLOW"
	Green     Group = "GREEN"
	DarkBlue  Group = "DARK_BLUE"
	RailGroup Group = "RAILROAD"
	UtilGroup Group = "UTILITY"
	Special   Group = "SPECIAL"
)

// Space is one fixed square of the board.
type Space struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Type      SpaceType `json:"type"`
	Group     Group     `json:"group"`
	Price     int       `json:"price"`
	BaseRent  int       `json:"baseRent"`
	Rents     []int     `json:"rents,omitempty"` // 1-4 houses, then hotel
	HouseCost int       `json:"houseCost,omitempty"`
	Mortgage  int       `json:"mortgage,omitempty"`
}

// RentFor gives the tier rent for a number of houses, 5 being a hotel.
func (s Space) RentFor(houses int) int {
	if houses < 1 || houses > len(s.Rents) {
		return 0
	}
	return s.Rents[houses-1]
}

//go:embed board.json
var boardJSON []byte

type boardData struct {
	Spaces []Space  `json:"spaces"`
	Colors []string `json:"colors"`
}

var (
	spaces  [Size]Space
	palette []string
	groups  = map[Group][]int{}
)

func init() {
	var data boardData
	if err := json.Unmarshal(boardJSON, &data); err != nil {
		panic("bad board.json: " + err.Error())
	}
	if len(data.Spaces) != Size {
		panic(fmt.Sprintf("board.json has %d spaces", len(data.Spaces)))
	}
	for i, s := range data.Spaces {
		if s.ID != i {
			panic(fmt.Sprintf("board.json space %d has id %d", i, s.ID))
		}
		spaces[i] = s
		groups[s.Group] = append(groups[s.Group], s.ID)
	}
	palette = data.Colors
}

// At returns the space with the given id, wrapping around the board.
func At(id int) Space {
	return spaces[((id%Size)+Size)%Size]
}

// Valid reports whether id names a space.
func Valid(id int) bool {
	return id >= 0 && id < Size
}

// Spaces returns a copy of every space in board order.
func Spaces() []Space {
	out := make([]Space, Size)
	copy(out, spaces[:])
	return out
}

// InGroup lists the ids of all spaces sharing a group.
func InGroup(g Group) []int {
	ids := groups[g]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// Colors is the fixed player palette, in assignment order.
func Colors() []string {
	out := make([]string, len(palette))
	copy(out, palette)
	return out
}
