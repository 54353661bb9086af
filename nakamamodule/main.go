// Command nakamamodule is built as a nakama plugin.
package main

import (
	"context"
	"database/sql"

	"github.com/undeconstructed/banker/nakama"

	"github.com/heroiclabs/nakama-common/runtime"
)

// InitModule proxies nakama initialization to the nakama package.
func InitModule(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, initializer runtime.Initializer) error {
	return nakama.InitModule(ctx, logger, db, nk, initializer)
}

func main() {}
