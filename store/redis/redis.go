// Package redis shares room snapshots through redis. Every save is also
// published, so watchers follow a room without polling.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/undeconstructed/banker/game"
	"github.com/undeconstructed/banker/store"

	"github.com/gomodule/redigo/redis"
	"github.com/rs/zerolog/log"
)

const roomsKey = "banker:rooms"

// saves only if not older, then announces the new snapshot
var saveScript = redis.NewScript(2, `
local cur = tonumber(redis.call('HGET', KEYS[1], 'version') or '-1')
if tonumber(ARGV[1]) < cur then
  return 0
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'state', ARGV[2])
redis.call('SADD', KEYS[2], ARGV[3])
redis.call('PUBLISH', KEYS[1], ARGV[2])
return 1
`)

type Store struct {
	pool *redis.Pool
}

func New(addr string) *Store {
	return &Store{
		pool: &redis.Pool{
			MaxIdle:     10,
			IdleTimeout: 240 * time.Second,
			Dial:        func() (redis.Conn, error) { return redis.Dial("tcp", addr) },
		},
	}
}

// Ping checks the server is there.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer conn.Close()
	_, err = conn.Do("PING")
	return err
}

func (s *Store) Save(ctx context.Context, st game.State) error {
	data, err := store.Encode(st)
	if err != nil {
		return err
	}
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	defer conn.Close()

	_, err = saveScript.Do(conn, store.Key(st.RoomCode), roomsKey, st.Version, data, st.RoomCode)
	if err != nil {
		return fmt.Errorf("save %s: %w", st.RoomCode, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, code string) (game.State, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return game.State{}, fmt.Errorf("load %s: %w", code, err)
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("HGET", store.Key(code), "state"))
	if errors.Is(err, redis.ErrNil) {
		return game.State{}, store.ErrNotFound
	} else if err != nil {
		return game.State{}, fmt.Errorf("load %s: %w", code, err)
	}
	return store.Decode(data)
}

func (s *Store) Delete(ctx context.Context, code string) error {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("delete %s: %w", code, err)
	}
	defer conn.Close()

	n, err := redis.Int(conn.Do("DEL", store.Key(code)))
	if err != nil {
		return fmt.Errorf("delete %s: %w", code, err)
	}
	if _, err := conn.Do("SREM", roomsKey, code); err != nil {
		return fmt.Errorf("delete %s: %w", code, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer conn.Close()

	codes, err := redis.Strings(conn.Do("SMEMBERS", roomsKey))
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	sort.Strings(codes)
	return codes, nil
}

// Watch subscribes to the room's key and sends whatever is stored now,
// followed by every newer snapshot published.
func (s *Store) Watch(ctx context.Context, code string) (<-chan game.State, error) {
	conn, err := s.pool.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", code, err)
	}
	psc := redis.PubSubConn{Conn: conn}
	if err := psc.Subscribe(store.Key(code)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("watch %s: %w", code, err)
	}

	log := log.With().Str("room", code).Logger()
	ch := make(chan game.State, 1)
	seen := int64(-1)

	send := func(st game.State) bool {
		if st.Version <= seen {
			return true
		}
		seen = st.Version
		select {
		case ch <- st:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		<-ctx.Done()
		_ = psc.Unsubscribe()
		_ = conn.Close()
	}()

	go func() {
		defer close(ch)

		if st, err := s.Load(ctx, code); err == nil {
			if !send(st) {
				return
			}
		}

		for {
			switch m := psc.Receive().(type) {
			case redis.Message:
				st, err := store.Decode(m.Data)
				if err != nil {
					log.Warn().Err(err).Msg("bad published snapshot")
					continue
				}
				if !send(st) {
					return
				}
			case redis.Subscription:
				if m.Count == 0 {
					return
				}
			case error:
				if ctx.Err() == nil {
					log.Warn().Err(m).Msg("watch lost")
				}
				return
			}
		}
	}()

	return ch, nil
}

func (s *Store) Close() error {
	return s.pool.Close()
}
