package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/node/config"
)

func testCfg() config.ScorerCfg {
	return config.ScorerCfg{
		BlockHeightWeight:   0.5,
		ResponseTimeWeight:  0.2,
		DistributionWeight:  0.3,
		ResponseTimeDecay:   10,
		UptimeFloor:         0.2,
		MultiplicityPenalty: 0.25,
	}
}

func defaultDistribution() map[types.Network]int {
	return map[types.Network]int{
		types.NetworkBitcoin:  10,
		types.NetworkEthereum: 30,
	}
}

func TestCalculateScoreIdempotent(t *testing.T) {
	s := New(testCfg())

	first := s.CalculateScore(types.NetworkBitcoin, 1.5, 100, 500000, 800000, defaultDistribution(), false, false, 0.9)
	for i := 0; i < 10; i++ {
		again := s.CalculateScore(types.NetworkBitcoin, 1.5, 100, 500000, 800000, defaultDistribution(), false, false, 0.9)
		assert.Equal(t, first, again)
	}
}

func TestCalculateScoreBounded(t *testing.T) {
	s := New(testCfg())

	inputs := []struct {
		responseTime float64
		start, end   int64
		height       int64
		uptime       float64
	}{
		{0, 1, 800000, 800000, 1},
		{1e9, 1, 2, 800000, 0},
		{-5, -10, -1, 0, 2},
		{0.1, 1, 1 << 40, 100, 0.5},
	}

	for _, in := range inputs {
		score := s.CalculateScore(types.NetworkBitcoin, in.responseTime, in.start, in.end, in.height, defaultDistribution(), true, true, in.uptime)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestCalculateScoreMonotoneInUptime(t *testing.T) {
	s := New(testCfg())

	previous := -1.0
	for _, uptime := range []float64{0, 0.25, 0.5, 0.75, 1} {
		score := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, defaultDistribution(), false, false, uptime)
		assert.GreaterOrEqual(t, score, previous)
		previous = score
	}
}

func TestCalculateScoreMonotoneInCoverage(t *testing.T) {
	s := New(testCfg())

	previous := -1.0
	for _, end := range []int64{1000, 100000, 400000, 799999} {
		score := s.CalculateScore(types.NetworkBitcoin, 1, 100, end, 800000, defaultDistribution(), false, false, 0.8)
		assert.GreaterOrEqual(t, score, previous)
		previous = score
	}
}

func TestCalculateScoreMonotoneInResponseTime(t *testing.T) {
	s := New(testCfg())

	previous := 2.0
	for _, responseTime := range []float64{0, 0.5, 2, 10, 120} {
		score := s.CalculateScore(types.NetworkBitcoin, responseTime, 100, 500000, 800000, defaultDistribution(), false, false, 0.8)
		assert.LessOrEqual(t, score, previous)
		previous = score
	}
}

func TestCalculateScorePenalizesOverRepresentation(t *testing.T) {
	s := New(testCfg())

	sparse := map[types.Network]int{types.NetworkBitcoin: 5, types.NetworkEthereum: 35}
	crowded := map[types.Network]int{types.NetworkBitcoin: 35, types.NetworkEthereum: 5}

	sparseScore := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, sparse, false, false, 0.8)
	crowdedScore := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, crowded, false, false, 0.8)

	assert.Greater(t, sparseScore, crowdedScore)
}

func TestCalculateScorePenalizesMultiplicity(t *testing.T) {
	s := New(testCfg())

	clean := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, defaultDistribution(), false, false, 0.8)
	multiIP := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, defaultDistribution(), true, false, 0.8)
	multiBoth := s.CalculateScore(types.NetworkBitcoin, 1, 100, 500000, 800000, defaultDistribution(), true, true, 0.8)

	assert.Greater(t, clean, multiIP)
	assert.Greater(t, multiIP, multiBoth)
}
