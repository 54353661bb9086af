package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/undeconstructed/banker/board"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/session"

	rl "github.com/chzyer/readline"
)

const (
	RED     = "[31m"
	GREEN   = "[32m"
	YELLOW  = "[33m"
	BLUE    = "[34m"
	MAGENTA = "[35m"
	PINK    = "[95m"
	RESET   = "[0m"
)

func col(s string) string {
	switch strings.ToUpper(s) {
	case "#EF4444":
		return RED
	case "#3B82F6":
		return BLUE
	case "#10B981":
		return GREEN
	case "#F59E0B":
		return YELLOW
	case "#8B5CF6":
		return MAGENTA
	case "#EC4899":
		return PINK
	default:
		return RESET
	}
}

// Client is a terminal for one peer.
type Client struct {
	peer *session.Peer
	die  func() int
}

func New(peer *session.Peer) *Client {
	return &Client{peer: peer, die: rollDie}
}

// Run reads commands until the user quits or ctx ends. The peer must
// already be running.
func (c *Client) Run(ctx context.Context) error {
	completer := rl.NewPrefixCompleter(
		rl.PcItem("join"),
		rl.PcItem("start"),
		rl.PcItem("roll"),
		rl.PcItem("buy"),
		rl.PcItem("auction"),
		rl.PcItem("resolve"),
		rl.PcItem("rent"),
		rl.PcItem("end"),
		rl.PcItem("build"),
		rl.PcItem("trade"),
		rl.PcItem("state"),
		rl.PcItem("log"),
		rl.PcItem("board"),
		rl.PcItem("view",
			rl.PcItem("board"),
			rl.PcItem("bank"),
		),
		rl.PcItem("quit"),
	)

	l, err := rl.NewEx(&rl.Config{
		Prompt:            "» ",
		HistoryFile:       "hist.txt",
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.follow(ctx, l)

	for {
		line, err := l.Readline()
		if err == rl.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "quit" || line == "exit" {
			return nil
		}

		s := c.peer.State()
		in, err := ParseCommand(s, line, c.die)
		if errors.Is(err, ErrLocal) {
			c.local(l.Stdout(), s, line)
			continue
		}
		if err != nil {
			fmt.Fprintln(l.Stdout(), err)
			continue
		}
		if err := c.peer.Send(ctx, in); err != nil {
			fmt.Fprintf(l.Stdout(), "send error: %v\n", err)
		}
	}
}

func (c *Client) local(w io.Writer, s game.State, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "state":
		printState(w, s)
	case "log":
		n := 10
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		printLog(w, s.Logs, n)
	case "board":
		printBoard(w, s)
	case "view":
		if len(fields) > 1 {
			c.peer.SetViewMode(strings.ToUpper(fields[1]))
		}
	default:
		fmt.Fprintf(w, "unknown command: %s\n", fields[0])
	}
}

// follow prints what changes, and what the host rejects.
func (c *Client) follow(ctx context.Context, l *rl.Instance) {
	seen := int64(-1)
	lastLog := ""
	errCh := c.peer.Errors()
	stCh := make(chan game.State)

	go func() {
		for {
			s, err := c.peer.Wait(ctx, seen)
			if err != nil {
				return
			}
			seen = s.Version
			select {
			case stCh <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case s := <-stCh:
			for _, e := range newLogs(s.Logs, lastLog) {
				fmt.Fprintf(l.Stdout(), "> %s\n", e.Message)
			}
			if len(s.Logs) > 0 {
				lastLog = s.Logs[len(s.Logs)-1].ID
			}
			l.SetPrompt(prompt(s))
			l.Refresh()
		case err := <-errCh:
			fmt.Fprintf(l.Stdout(), "! %v\n", err)
		case <-ctx.Done():
			return
		}
	}
}

// newLogs is everything after the entry with id last.
func newLogs(logs []game.LogEntry, last string) []game.LogEntry {
	if last == "" {
		return logs
	}
	for i := len(logs) - 1; i >= 0; i-- {
		if logs[i].ID == last {
			return logs[i+1:]
		}
	}
	return logs
}

func prompt(s game.State) string {
	cur, ok := s.Current()
	if !ok || s.Phase == game.PhaseLobby {
		return fmt.Sprintf("%s %s» ", s.RoomCode, s.Phase)
	}
	mine := ""
	if cur.ID == s.LocalPlayerID {
		mine = " !"
	}
	return fmt.Sprintf("%s \033%s%s|%s%s»\033[0m ", s.RoomCode, col(cur.Color), cur.Name, s.Phase, mine)
}

func printState(w io.Writer, s game.State) {
	fmt.Fprintf(w, "Room:    %s (v%d)\n", s.RoomCode, s.Version)
	fmt.Fprintf(w, "Phase:   %s\n", s.Phase)
	if s.Dice != [2]int{} {
		fmt.Fprintf(w, "Dice:    %d %d\n", s.Dice[0], s.Dice[1])
	}
	if s.Phase == game.PhaseAction || s.Phase == game.PhaseRoll {
		fmt.Fprintf(w, "Owes:    %s\n", s.Owes())
	}
	for i, p := range s.Players {
		marker := " "
		if i == s.CurrentPlayerIndex && s.Phase != game.PhaseLobby {
			marker = "*"
		}
		jail := ""
		if p.InJail {
			jail = " (jail)"
		}
		fmt.Fprintf(w, "%s \033%s%-10s\033[0m $%-6d %s%s\n", marker, col(p.Color), p.Name, p.Money, board.At(p.Position).Name, jail)
	}
}

func printLog(w io.Writer, logs []game.LogEntry, n int) {
	if n < 0 {
		n = 0
	}
	if n < len(logs) {
		logs = logs[len(logs)-n:]
	}
	for _, e := range logs {
		fmt.Fprintf(w, "[%s] %s\n", e.Kind, e.Message)
	}
}

func printBoard(w io.Writer, s game.State) {
	names := map[string]string{}
	for _, p := range s.Players {
		names[p.ID] = p.Name
	}
	for _, sp := range board.Spaces() {
		if !sp.Type.Ownable() {
			continue
		}
		owner := "-"
		if ps, ok := s.Properties[sp.ID]; ok {
			owner = names[ps.OwnerID]
			if ps.Houses > 0 {
				owner += fmt.Sprintf(" h%d", ps.Houses)
			}
			if ps.IsMortgaged {
				owner += " (m)"
			}
		}
		fmt.Fprintf(w, "%2d %-24s $%-4d %s\n", sp.ID, sp.Name, sp.Price, owner)
	}
}
