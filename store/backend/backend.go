// Package backend picks a store implementation by name.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/undeconstructed/banker/config"
	"github.com/undeconstructed/banker/store"
	"github.com/undeconstructed/banker/store/file"
	"github.com/undeconstructed/banker/store/redis"
	"github.com/undeconstructed/banker/store/sqlite"
)

// Open makes a store of kind, which is none, file, sqlite or redis. target
// is the directory, database path or redis address.
func Open(ctx context.Context, kind, target string) (store.Store, error) {
	switch kind {
	case "", "none":
		return store.Nop{}, nil
	case "file":
		return file.New(target)
	case "sqlite":
		return sqlite.Open(target)
	case "redis":
		s := redis.New(target)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("redis %s: %w", target, err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store %q", kind)
}

// FromConfig opens whichever store the config names.
func FromConfig(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case "file":
		return Open(ctx, cfg.Store, cfg.StateDir)
	case "sqlite":
		return Open(ctx, cfg.Store, cfg.SQLitePath)
	case "redis":
		return Open(ctx, cfg.Store, cfg.RedisAddr)
	}
	return Open(ctx, cfg.Store, "")
}

// Parse opens a store from "kind:target", as in "file:/var/banker".
func Parse(ctx context.Context, s string) (store.Store, error) {
	kind, target, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("store %q is not kind:target", s)
	}
	return Open(ctx, kind, target)
}
