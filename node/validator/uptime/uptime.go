package uptime

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/blockchain-insights/insights/api/types"
)

const (
	// redisKeyMinerHistory miner id
	redisKeyMinerHistory = "Insights:MinerUptime:%s"
	// redisKeyMinerInfo miner id
	redisKeyMinerInfo = "Insights:MinerInfo:%s"
)

// Store records one up/down observation per miner per round and derives a
// rolling availability score from the bounded recent history. Records are
// keyed per miner, concurrent updates for different miners need no shared
// lock.
type Store interface {
	Up(ctx context.Context, minerID string) error
	Down(ctx context.Context, minerID string) error
	Scores(ctx context.Context, minerID string) (*types.UptimeScores, error)
}

// RedisStore durable uptime store
type RedisStore struct {
	client *redis.Client
	window int
}

// NewRedisStore connects to redis and returns a store keeping window rounds
// of history per miner
func NewRedisStore(addr string, window int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}

	if window <= 0 {
		window = 100
	}

	return &RedisStore{client: client, window: window}, nil
}

// Up records a successful round
func (s *RedisStore) Up(ctx context.Context, minerID string) error {
	return s.record(ctx, minerID, 1)
}

// Down records a failing or non participating round
func (s *RedisStore) Down(ctx context.Context, minerID string) error {
	return s.record(ctx, minerID, 0)
}

func (s *RedisStore) record(ctx context.Context, minerID string, observation int) error {
	historyKey := fmt.Sprintf(redisKeyMinerHistory, minerID)
	infoKey := fmt.Sprintf(redisKeyMinerInfo, minerID)

	_, err := s.client.Pipelined(ctx, func(pipeliner redis.Pipeliner) error {
		pipeliner.LPush(ctx, historyKey, observation)
		pipeliner.LTrim(ctx, historyKey, 0, int64(s.window)-1)
		pipeliner.HSet(ctx, infoKey, "LastSeen", time.Now().Unix())
		if observation == 1 {
			pipeliner.HSet(ctx, infoKey, "LastUp", time.Now().Unix())
		}
		return nil
	})

	return err
}

// Scores returns the rolling availability derived from the stored history.
// A miner never observed before scores zero with an empty window.
func (s *RedisStore) Scores(ctx context.Context, minerID string) (*types.UptimeScores, error) {
	historyKey := fmt.Sprintf(redisKeyMinerHistory, minerID)

	entries, err := s.client.LRange(ctx, historyKey, 0, -1).Result()
	if err != nil {
		if err == redis.Nil {
			return &types.UptimeScores{}, nil
		}
		return nil, err
	}

	history := make([]int, 0, len(entries))
	for _, entry := range entries {
		if entry == "1" {
			history = append(history, 1)
		} else {
			history = append(history, 0)
		}
	}

	return rollingScores(history), nil
}

// rollingScores averages a bounded up/down history. The average is always
// within [0,1] regardless of history length.
func rollingScores(history []int) *types.UptimeScores {
	scores := &types.UptimeScores{Window: len(history)}
	if len(history) == 0 {
		return scores
	}

	for _, observation := range history {
		if observation == 1 {
			scores.Ups++
		} else {
			scores.Downs++
		}
	}

	scores.Average = float64(scores.Ups) / float64(len(history))
	if scores.Average < 0 {
		scores.Average = 0
	}
	if scores.Average > 1 {
		scores.Average = 1
	}

	return scores
}

var _ Store = &RedisStore{}
