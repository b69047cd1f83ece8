package uptime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRollingScoresEmptyHistory(t *testing.T) {
	scores := rollingScores(nil)

	assert.Equal(t, 0.0, scores.Average)
	assert.Equal(t, 0, scores.Window)
}

func TestRollingScoresAverages(t *testing.T) {
	scores := rollingScores([]int{1, 1, 0, 1})

	assert.Equal(t, 0.75, scores.Average)
	assert.Equal(t, 4, scores.Window)
	assert.Equal(t, 3, scores.Ups)
	assert.Equal(t, 1, scores.Downs)
}

func TestRollingScoresAlwaysBounded(t *testing.T) {
	histories := [][]int{
		{},
		{1},
		{0},
		make([]int, 10000),
	}

	allUp := make([]int, 10000)
	for i := range allUp {
		allUp[i] = 1
	}
	histories = append(histories, allUp)

	for _, history := range histories {
		scores := rollingScores(history)
		assert.GreaterOrEqual(t, scores.Average, 0.0)
		assert.LessOrEqual(t, scores.Average, 1.0)
	}
}
