// Command banker is the player's terminal. It joins a room on a server,
// hosts one itself, follows one through shared storage, or administers a
// server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/undeconstructed/banker/client"
	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/lobby"
	"github.com/undeconstructed/banker/server"
	"github.com/undeconstructed/banker/session"
	"github.com/undeconstructed/banker/store/backend"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	var (
		connect = flag.String("connect", "127.0.0.1:1234", "server, tcp address or ws:// url")
		room    = flag.String("room", "", "room code")
		ticket  = flag.String("ticket", "", "seat ticket from an earlier join")
		name    = flag.String("name", "", "player name, to join or host")
		host    = flag.Bool("host", false, "host a room in this process")
		listen  = flag.String("listen", "0.0.0.0:1234", "where a hosted room listens")
		follow  = flag.String("follow", "", "watch a room in a store, as kind:target")
		admin   = flag.String("admin", "", "admin grpc address, then list, show CODE or close CODE")
		verbose = flag.Bool("v", false, "log more")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *admin != "":
		err = runAdmin(ctx, *admin, flag.Args())
	case *follow != "":
		err = runFollow(ctx, *follow, *room)
	case *host:
		err = runHost(ctx, *name, *listen)
	default:
		err = runJoin(ctx, *connect, *room, *ticket, *name)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runJoin(ctx context.Context, addr, room, ticket, name string) error {
	if room == "" {
		return fmt.Errorf("need -room")
	}
	conn, err := client.Dial(ctx, addr, room, ticket)
	if err != nil {
		return err
	}
	defer conn.Close()

	peer := session.NewPeer(conn)
	go peer.Run(ctx)

	if ticket == "" && name != "" {
		if _, err := peer.Wait(ctx, -1); err != nil {
			return err
		}
		if err := peer.Send(ctx, game.Join{Player: game.Player{Name: name}}); err != nil {
			return err
		}
		wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		select {
		case err := <-peer.Errors():
			return err
		case <-seated(wctx, peer):
		}
		_, t := peer.Seat()
		fmt.Printf("seated, rejoin with -ticket %s\n", t)
	}

	return client.New(peer).Run(ctx)
}

func seated(ctx context.Context, peer *session.Peer) <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		peer.WaitSeat(ctx)
		close(ch)
	}()
	return ch
}

func runHost(ctx context.Context, name, listen string) error {
	if name == "" {
		return fmt.Errorf("need -name")
	}
	peer, code, err := client.HostRoom(ctx, client.HostOptions{
		Name:   name,
		Listen: listen,
		Rules:  game.DefaultRules(),
	})
	if err != nil {
		return err
	}
	go peer.Run(ctx)
	fmt.Printf("hosting room %s on %s\n", code, listen)

	return client.New(peer).Run(ctx)
}

// followCode turns a typed room into the code snapshots are stored under.
func followCode(room string) (string, error) {
	code := lobby.NormalizeCode(room)
	if code == "" {
		return "", fmt.Errorf("need -room")
	}
	if !lobby.ValidCode(code) {
		return "", fmt.Errorf("bad room code %q", room)
	}
	return code, nil
}

func runFollow(ctx context.Context, where, room string) error {
	code, err := followCode(room)
	if err != nil {
		return err
	}
	st, err := backend.Parse(ctx, where)
	if err != nil {
		return err
	}
	defer st.Close()

	ch, err := st.Watch(ctx, code)
	if err != nil {
		return err
	}
	peer := session.NewPeer(nil)
	go peer.Follow(ctx, ch)

	return client.New(peer).Run(ctx)
}

func runAdmin(ctx context.Context, addr string, args []string) error {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer cc.Close()
	rc := server.NewRoomsClient(cc)

	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		codes, err := rc.ListRooms(ctx)
		if err != nil {
			return err
		}
		for _, c := range codes {
			fmt.Println(c)
		}
		return nil
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("show CODE")
		}
		s, err := rc.GetSnapshot(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s v%d %s\n", s.RoomCode, s.Version, s.Phase)
		for _, p := range s.Players {
			fmt.Printf("  %-10s $%d @%d\n", p.Name, p.Money, p.Position)
		}
		return nil
	case "close":
		if len(args) != 2 {
			return fmt.Errorf("close CODE")
		}
		return rc.CloseRoom(ctx, args[1])
	}
	return fmt.Errorf("unknown admin command %q", args[0])
}
