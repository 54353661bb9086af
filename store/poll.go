package store

import (
	"context"
	"errors"
	"time"

	"github.com/undeconstructed/banker/game"

	"github.com/rs/zerolog/log"
)

// Poll builds a Watch out of Load for backends that can't push changes.
func Poll(ctx context.Context, every time.Duration, code string, load func(context.Context, string) (game.State, error)) <-chan game.State {
	ch := make(chan game.State, 1)
	log := log.With().Str("room", code).Logger()

	go func() {
		defer close(ch)
		t := time.NewTicker(every)
		defer t.Stop()

		seen := int64(-1)
		for {
			s, err := load(ctx, code)
			switch {
			case err == nil && s.Version > seen:
				seen = s.Version
				select {
				case ch <- s:
				case <-ctx.Done():
					return
				}
			case err != nil && !errors.Is(err, ErrNotFound) && ctx.Err() == nil:
				log.Warn().Err(err).Msg("poll failed")
			}

			select {
			case <-t.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
