package api

import (
	"context"

	"github.com/blockchain-insights/insights/api/types"
)

// Miner is the rpc interface a miner exposes to validators
type Miner interface {
	// Discovery returns the miner's self reported coverage claim
	Discovery(ctx context.Context) (*types.DiscoveryOutput, error) //perm:read
	// BlockCheck returns the miner's view of the requested blocks
	BlockCheck(ctx context.Context, heights []int64) ([]types.DataSample, error) //perm:read
	// Benchmark executes one graph query and returns its raw output
	Benchmark(ctx context.Context, query string) (string, error) //perm:read
}

// MinerStruct rpc proxy for Miner
type MinerStruct struct {
	Internal struct {
		Discovery  func(ctx context.Context) (*types.DiscoveryOutput, error)
		BlockCheck func(ctx context.Context, heights []int64) ([]types.DataSample, error)
		Benchmark  func(ctx context.Context, query string) (string, error)
	}
}

func (s *MinerStruct) Discovery(ctx context.Context) (*types.DiscoveryOutput, error) {
	return s.Internal.Discovery(ctx)
}

func (s *MinerStruct) BlockCheck(ctx context.Context, heights []int64) ([]types.DataSample, error) {
	return s.Internal.BlockCheck(ctx, heights)
}

func (s *MinerStruct) Benchmark(ctx context.Context, query string) (string, error) {
	return s.Internal.Benchmark(ctx, query)
}

var _ Miner = &MinerStruct{}
