package validator

import (
	"context"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/blockchain-insights/insights/api/types"
)

// fetchMetadata retrieves the committed metadata for every sampled miner.
// Lookups run through a small worker pool and transient errors are retried
// with a fixed backoff; a miner whose metadata cannot be fetched is simply
// absent from the result and gets filtered later in the round.
func (v *Validator) fetchMetadata(ctx context.Context, targets []types.MinerTarget) map[string]*types.MinerMetadata {
	log.Infof("getting miner metadata for %d miners", len(targets))

	collected := make([]*types.MinerMetadata, len(targets))

	workers := v.cfg.MetadataWorkers
	if workers <= 0 {
		workers = 3
	}

	pool := pond.NewPool(workers)
	group := pool.NewGroupContext(ctx)

	for i, target := range targets {
		i, target := i, target
		group.Submit(func() {
			collected[i] = v.fetchMinerMetadata(ctx, target.Hotkey)
		})
	}

	if err := group.Wait(); err != nil {
		log.Warnf("metadata dispatch: %s", err.Error())
	}
	pool.StopAndWait()

	metadata := make(map[string]*types.MinerMetadata)
	for i, target := range targets {
		if collected[i] != nil {
			metadata[target.Hotkey] = collected[i]
		}
	}

	log.Infof("got miner metadata for %d/%d miners", len(metadata), len(targets))
	return metadata
}

func (v *Validator) fetchMinerMetadata(ctx context.Context, hotkey string) *types.MinerMetadata {
	retries := v.cfg.MetadataRetries
	if retries <= 0 {
		retries = 1
	}
	backoff := time.Duration(v.cfg.MetadataBackoff)

	for attempt := 0; attempt < retries; attempt++ {
		metadata, err := v.registry.MinerMetadata(ctx, hotkey)
		if err == nil {
			return metadata
		}

		log.Debugf("error while getting miner metadata for %s: %v, retrying", hotkey, err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil
		}
	}

	log.Warnf("error while getting miner metadata for %s, skipping", hotkey)
	return nil
}
