package transport

import (
	"context"

	"github.com/l3montree-dev/lowpot/packages/types"
)

type Transport interface {
	// Listen starts serving and returns the channel to feed attempts into.
	Listen(ctx context.Context) (chan<- types.AttemptRecord, error)
}
