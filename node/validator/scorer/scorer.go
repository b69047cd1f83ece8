package scorer

import (
	"math"

	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/node/config"
)

// Scorer converts the round's signals for one miner into a single reward in
// [0,1]. It is a pure function of its inputs; callers only invoke it after
// the response filter and cross validation gates passed.
//
// The score is non decreasing in uptime and claimed coverage width and non
// increasing in response time and over representation. Exact coefficients
// are tuning, not contract, and live in config.
type Scorer struct {
	cfg config.ScorerCfg
}

// New returns a scorer with the given weights
func New(cfg config.ScorerCfg) *Scorer {
	return &Scorer{cfg: cfg}
}

// CalculateScore computes the final reward for one miner
func (s *Scorer) CalculateScore(network types.Network, responseTime float64, start, end, currentHeight int64, distribution map[types.Network]int, multipleIPs, multipleRunIDs bool, uptimeAverage float64) float64 {
	base := s.cfg.BlockHeightWeight*s.coverageScore(start, end, currentHeight) +
		s.cfg.ResponseTimeWeight*s.timeScore(responseTime) +
		s.cfg.DistributionWeight*s.distributionScore(network, distribution)

	weightSum := s.cfg.BlockHeightWeight + s.cfg.ResponseTimeWeight + s.cfg.DistributionWeight
	if weightSum > 0 {
		base /= weightSum
	}

	score := base * s.uptimeFactor(uptimeAverage)

	if multipleIPs {
		score *= s.cfg.MultiplicityPenalty
	}
	if multipleRunIDs {
		score *= s.cfg.MultiplicityPenalty
	}

	return clamp01(score)
}

// coverageScore rewards wide claimed ranges relative to the chain tip
func (s *Scorer) coverageScore(start, end, currentHeight int64) float64 {
	if currentHeight <= 0 || end < start {
		return 0
	}

	width := end - start + 1
	return clamp01(float64(width) / float64(currentHeight))
}

// timeScore decays exponentially with the adjusted response time
func (s *Scorer) timeScore(responseTime float64) float64 {
	if responseTime < 0 {
		responseTime = 0
	}

	decay := s.cfg.ResponseTimeDecay
	if decay <= 0 {
		decay = 1
	}

	return math.Exp(-responseTime / decay)
}

// distributionScore rewards miners on under represented networks
func (s *Scorer) distributionScore(network types.Network, distribution map[types.Network]int) float64 {
	total := 0
	for _, count := range distribution {
		total += count
	}
	if total <= 0 {
		return 1
	}

	share := float64(distribution[network]) / float64(total)
	return clamp01(1 - share)
}

// uptimeFactor scales the score by long term reliability, keeping a floor
// so one good round after downtime still earns something
func (s *Scorer) uptimeFactor(uptimeAverage float64) float64 {
	floor := clamp01(s.cfg.UptimeFloor)
	return floor + (1-floor)*clamp01(uptimeAverage)
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}

	return value
}
