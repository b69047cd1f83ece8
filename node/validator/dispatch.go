package validator

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/blockchain-insights/insights/api/types"
)

// discover queries every sampled miner for its coverage claim with bounded
// fan-out and waits for the whole batch before returning
func (v *Validator) discover(ctx context.Context, targets []types.MinerTarget) []*minerRound {
	rounds := make([]*minerRound, len(targets))
	for i, target := range targets {
		rounds[i] = &minerRound{target: target}
	}

	timeout := time.Duration(v.cfg.DiscoveryTimeout)
	v.forEachBounded(ctx, len(rounds), func(i int) {
		rounds[i].resp = v.transport.Discovery(ctx, rounds[i].target, timeout)
	})

	return rounds
}

// forEachBounded runs fn(0..n-1) through a worker pool capped at the
// configured outbound concurrency and waits for all of them
func (v *Validator) forEachBounded(ctx context.Context, n int, fn func(i int)) {
	if n == 0 {
		return
	}

	concurrency := v.cfg.QueryConcurrency
	if concurrency <= 0 {
		concurrency = 3
	}

	pool := pond.NewPool(concurrency)
	group := pool.NewGroupContext(ctx)

	for i := 0; i < n; i++ {
		i := i
		group.Submit(func() {
			fn(i)
		})
	}

	if err := group.Wait(); err != nil {
		log.Warnf("bounded dispatch: %s", err.Error())
	}
	pool.StopAndWait()
}
