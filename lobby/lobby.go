// Package lobby gets rooms going: codes, rendezvous ids, and who may join.
package lobby

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/game"

	uuid "github.com/satori/go.uuid"
)

// Prefix namespaces rendezvous ids so rooms can share a signalling service.
const Prefix = "monopoly-banker-pro-v2-"

// CodeLength is how long room codes are.
const CodeLength = 6

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCode makes a random room code.
func NewCode() string {
	b := make([]byte, CodeLength)
	max := big.NewInt(int64(len(codeLetters)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("no randomness: " + err.Error())
		}
		b[i] = codeLetters[n.Int64()]
	}
	return string(b)
}

// NormalizeCode tidies up a code someone typed in.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode checks code has the right shape.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeLetters, r) {
			return false
		}
	}
	return true
}

// RendezvousID is the identifier a host listens on and peers dial.
func RendezvousID(code string) string {
	return Prefix + NormalizeCode(code)
}

// ParseRendezvousID gets the room code back out.
func ParseRendezvousID(id string) (string, bool) {
	if !strings.HasPrefix(id, Prefix) {
		return "", false
	}
	code := NormalizeCode(id[len(Prefix):])
	return code, ValidCode(code)
}

// Bootstrap creates a room with its host as the only player, already in
// LOBBY.
func Bootstrap(eng *game.Engine, code string, rules game.Rules, host game.Player) (game.State, game.Player, error) {
	s := game.NewState(code, rules)
	s.Phase = game.PhaseLobby
	return Admit(eng, s, host)
}

// Admit seats a new player. It picks the id, colour and money and appends
// them to the room.
func Admit(eng *game.Engine, s game.State, p game.Player) (game.State, game.Player, error) {
	if s.Phase != game.PhaseLobby {
		return s, game.Player{}, game.ErrGameStarted
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return s, game.Player{}, game.ErrBadRequest
	}
	if _, taken := s.PlayerByName(name); taken {
		return s, game.Player{}, game.ErrDuplicateName
	}

	color, ok := freeColor(s)
	if !ok {
		return s, game.Player{}, game.ErrRoomFull
	}

	id := p.ID
	if id == "" || s.PlayerIndex(id) >= 0 {
		id = uuid.NewV4().String()
	}

	admitted := game.Player{
		ID:    id,
		Name:  name,
		Color: color,
		Money: s.Rules.StartingCash,
	}
	return eng.Apply(s, game.Join{Player: admitted}), admitted, nil
}

func freeColor(s game.State) (string, bool) {
	used := map[string]bool{}
	for _, p := range s.Players {
		used[p.Color] = true
	}
	for _, c := range board.Colors() {
		if !used[c] {
			return c, true
		}
	}
	return "", false
}
