package validator

import (
	"context"
	"sync"

	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api/types"
)

// WeightUpdater folds round rewards into exponential moving averages per
// miner. It is the default reward sink when no external weight setter is
// wired in.
type WeightUpdater struct {
	alpha float64

	mu      sync.Mutex
	weights map[string]float64
}

// NewWeightUpdater returns an updater with the given ema factor
func NewWeightUpdater(alpha float64) *WeightUpdater {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.9
	}

	return &WeightUpdater{
		alpha:   alpha,
		weights: make(map[string]float64),
	}
}

// UpdateScores folds one round of rewards into the moving averages.
// Rejects the whole batch when any score leaves [0,1].
func (w *WeightUpdater) UpdateScores(ctx context.Context, rewards []*types.Reward) error {
	for _, reward := range rewards {
		if reward.Score < 0 || reward.Score > 1 {
			return xerrors.Errorf("score %f for miner %s is outside [0,1]", reward.Score, reward.MinerID)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, reward := range rewards {
		previous := w.weights[reward.MinerID]
		w.weights[reward.MinerID] = w.alpha*previous + (1-w.alpha)*reward.Score
	}

	return nil
}

// Weights returns a copy of the current moving averages
func (w *WeightUpdater) Weights() map[string]float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]float64, len(w.weights))
	for minerID, weight := range w.weights {
		out[minerID] = weight
	}

	return out
}

var _ RewardSink = &WeightUpdater{}
