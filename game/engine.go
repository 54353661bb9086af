package game

import (
	"fmt"
	"time"

	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/rules"

	uuid "github.com/satori/go.uuid"
)

// Engine is the reducer. It has no state of its own beyond where it gets
// log ids and times from.
type Engine struct {
	Now   func() time.Time
	NewID func() string
}

func NewEngine() *Engine {
	return &Engine{
		Now:   time.Now,
		NewID: func() string { return uuid.NewV4().String() },
	}
}

// Apply returns the state after in. Intents are assumed to have passed
// Check. An intent that finds nothing to act on returns s itself.
func (e *Engine) Apply(s State, in Intent) State {
	c := &change{e: e, s: s}

	switch in := in.(type) {
	case Join:
		c.join(in.Player)
	case StartGame:
		c.start()
	case Roll:
		c.roll(in.D1, in.D2)
	case Buy:
		c.buy()
	case StartAuction:
		c.startAuction()
	case ResolveAuction:
		if !c.resolveAuction(in.WinnerID, in.Amount) {
			return s
		}
	case PayRent:
		if !c.payRent() {
			return s
		}
	case EndTurn:
		c.endTurn()
	case Trade:
		if !c.trade(in.Offer) {
			return s
		}
	case BuildHouse:
		if !c.buildHouse(in.SpaceID) {
			return s
		}
	default:
		return s
	}

	c.s.Version = s.Version + 1
	return c.s
}

// change is a state under construction. Shared slices and maps are copied
// the first time they are written.
type change struct {
	e           *Engine
	s           State
	ownPlayers  bool
	ownProperty bool
}

func (c *change) player(i int) *Player {
	if !c.ownPlayers {
		ps := make([]Player, len(c.s.Players))
		copy(ps, c.s.Players)
		c.s.Players = ps
		c.ownPlayers = true
	}
	return &c.s.Players[i]
}

func (c *change) current() *Player {
	return c.player(c.s.CurrentPlayerIndex)
}

func (c *change) setProperty(id int, ps rules.PropertyState) {
	if !c.ownProperty {
		props := make(rules.Properties, len(c.s.Properties)+1)
		for k, v := range c.s.Properties {
			props[k] = v
		}
		c.s.Properties = props
		c.ownProperty = true
	}
	c.s.Properties[id] = ps
}

func (c *change) log(kind LogKind, f string, args ...interface{}) {
	entry := LogEntry{
		ID:        c.e.NewID(),
		Timestamp: c.e.Now().UnixMilli(),
		Message:   fmt.Sprintf(f, args...),
		Kind:      kind,
	}
	n := len(c.s.Logs)
	c.s.Logs = append(c.s.Logs[:n:n], entry)
}

func (c *change) join(p Player) {
	ps := make([]Player, len(c.s.Players), len(c.s.Players)+1)
	copy(ps, c.s.Players)
	c.s.Players = append(ps, p)
	c.ownPlayers = true
	c.log(LogInfo, "%s joined", p.Name)
}

func (c *change) start() {
	c.s.Phase = PhaseRoll
	c.s.CurrentPlayerIndex = 0
	c.log(LogAlert, "SYSTEM: Game Sequence Initiated")
}

func (c *change) roll(d1, d2 int) {
	p := c.current()
	double := d1 == d2
	steps := d1 + d2
	c.s.Dice = [2]int{d1, d2}

	if p.InJail {
		if !double {
			p.JailTurns++
			c.s.ConsecutiveDoubles = 0
			c.s.LastRollWasDouble = false
			c.log(LogInfo, "%s rolled %d-%d and stays in jail", p.Name, d1, d2)
			c.nextTurn()
			return
		}
		p.InJail = false
		p.JailTurns = 0
		c.s.ConsecutiveDoubles = 0
		c.s.LastRollWasDouble = true
		c.log(LogAlert, "%s rolled doubles and escaped jail", p.Name)
		c.move(p, steps, false)
		return
	}

	if double {
		c.s.ConsecutiveDoubles++
	} else {
		c.s.ConsecutiveDoubles = 0
	}

	if c.s.ConsecutiveDoubles >= 3 {
		p.Position = board.JailPosition
		p.InJail = true
		p.JailTurns = 0
		c.s.ConsecutiveDoubles = 0
		c.s.LastRollWasDouble = false
		c.log(LogAlert, "%s rolled three doubles and was sent to jail for speeding", p.Name)
		c.nextTurn()
		return
	}

	c.s.LastRollWasDouble = double
	c.move(p, steps, true)
}

func (c *change) move(p *Player, steps int, salary bool) {
	from := p.Position
	p.Position = (from + steps) % board.Size
	if salary && p.Position < from {
		p.Money += c.s.Rules.GoSalary
		c.log(LogTransaction, "%s passed GO and collected $%d", p.Name, c.s.Rules.GoSalary)
	}
	c.log(LogMove, "%s moved to %s", p.Name, board.At(p.Position).Name)
	c.s.Phase = PhaseAction
}

func (c *change) buy() {
	p := c.current()
	space := board.At(p.Position)
	p.Money -= space.Price
	c.setProperty(space.ID, rules.PropertyState{OwnerID: p.ID})
	c.log(LogTransaction, "%s ACQUIRED %s for $%d", p.Name, space.Name, space.Price)
	c.endTurn()
}

func (c *change) startAuction() {
	p, _ := c.s.Current()
	c.s.Phase = PhaseAuction
	c.s.Auction = &Auction{Active: true, PropertyID: p.Position}
	c.log(LogInfo, "auction opened for %s", board.At(p.Position).Name)
}

func (c *change) resolveAuction(winner string, amount int) bool {
	if c.s.Auction == nil {
		return false
	}
	wi := c.s.PlayerIndex(winner)
	if wi < 0 {
		return false
	}
	space := board.At(c.s.Auction.PropertyID)
	w := c.player(wi)
	w.Money -= amount
	c.setProperty(space.ID, rules.PropertyState{OwnerID: w.ID})
	c.s.Auction = nil
	c.log(LogTransaction, "%s won the auction for %s at $%d", w.Name, space.Name, amount)

	if c.s.Dice != [2]int{0, 0} {
		c.s.Phase = PhaseAction
	} else {
		c.s.Phase = PhaseRoll
	}
	c.endTurn()
	return true
}

func (c *change) payRent() bool {
	cur, _ := c.s.Current()
	space := board.At(cur.Position)

	if space.Type == board.Tax {
		tax := rules.Tax(space)
		p := c.current()
		p.Money -= tax
		c.log(LogTransaction, "%s paid $%d %s", p.Name, tax, space.Name)
		c.endTurn()
		return true
	}

	ps, ok := c.s.Properties[space.ID]
	if !ok {
		return false
	}
	oi := c.s.PlayerIndex(ps.OwnerID)
	if oi < 0 {
		return false
	}
	rent := rules.Rent(space, ps.OwnerID, c.s.Properties, c.s.Dice[0]+c.s.Dice[1])
	p := c.current()
	p.Money -= rent
	o := c.player(oi)
	o.Money += rent
	c.log(LogTransaction, "%s paid $%d rent to %s", p.Name, rent, o.Name)
	c.endTurn()
	return true
}

func (c *change) endTurn() {
	p, _ := c.s.Current()
	if c.s.LastRollWasDouble && !p.InJail {
		c.s.Phase = PhaseRoll
		c.log(LogInfo, "%s gets a Bonus Roll", p.Name)
		return
	}
	c.nextTurn()
}

func (c *change) nextTurn() {
	n := len(c.s.Players)
	if n > 0 {
		c.s.CurrentPlayerIndex = (c.s.CurrentPlayerIndex + 1) % n
	}
	c.s.Phase = PhaseRoll
}

func (c *change) trade(o TradeOffer) bool {
	fi, ti := c.s.PlayerIndex(o.FromPlayerID), c.s.PlayerIndex(o.ToPlayerID)
	if fi < 0 || ti < 0 {
		return false
	}
	from, to := c.player(fi), c.player(ti)
	from.Money += o.RequestedCash - o.OfferedCash
	to.Money += o.OfferedCash - o.RequestedCash

	for _, id := range o.OfferedProperties {
		if ps, ok := c.s.Properties[id]; ok {
			ps.OwnerID = to.ID
			c.setProperty(id, ps)
		}
	}
	for _, id := range o.RequestedProperties {
		if ps, ok := c.s.Properties[id]; ok {
			ps.OwnerID = from.ID
			c.setProperty(id, ps)
		}
	}
	c.s.ActiveTrade = nil
	c.log(LogTransaction, "%s traded with %s", from.Name, to.Name)
	return true
}

func (c *change) buildHouse(id int) bool {
	ps, ok := c.s.Properties[id]
	if !ok {
		return false
	}
	space := board.At(id)
	p := c.current()
	p.Money -= space.HouseCost
	ps.Houses++
	c.setProperty(id, ps)
	if ps.Houses == rules.MaxHouses {
		c.log(LogTransaction, "%s built a hotel on %s for $%d", p.Name, space.Name, space.HouseCost)
	} else {
		c.log(LogTransaction, "%s built a house on %s for $%d", p.Name, space.Name, space.HouseCost)
	}
	return true
}
