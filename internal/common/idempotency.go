package common

import (
	"context"

	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/peerquest-lab/backend/pkg/xredis"
)

// IdempotencyGuard deduplicates retried caller requests. The first invocation
// with a key executes and caches its response for the configured TTL; any
// duplicate within the TTL gets the cached response back without re-executing
// side effects.
//
// The cache is an optimization layer: every operation behind the guard is
// itself a conditional write, so a lost cache entry degrades to a Conflict on
// replay, never to a double effect.
type IdempotencyGuard struct {
	redisClient xredis.Client
}

func NewIdempotencyGuard(redisClient xredis.Client) *IdempotencyGuard {
	return &IdempotencyGuard{redisClient: redisClient}
}

func DoIdempotent[T any](
	ctx context.Context,
	guard *IdempotencyGuard,
	key string,
	fn func(context.Context) (*T, error),
) (*T, error) {
	fullKey := "idempotency:" + key

	var cached T
	err := guard.redisClient.GetObj(ctx, fullKey, &cached)
	if err == nil {
		return &cached, nil
	}

	if err != xredis.ErrNotFound {
		// An unreachable cache must not block the operation.
		xcontext.Logger(ctx).Warnf("Cannot read idempotency cache of %s: %v", fullKey, err)
	}

	resp, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	ttl := xcontext.Configs(ctx).Idempotency.TTL
	if err := guard.redisClient.SetObj(ctx, fullKey, resp, ttl); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache idempotent response of %s: %v", fullKey, err)
	}

	return resp, nil
}
