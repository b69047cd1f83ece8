package api

import (
	"context"
	"net/http"
	"time"

	"github.com/blockchain-insights/insights/api/types"
)

// ResponseStatus transport level outcome of one query to a miner.
// Absence of output is never treated as a wrong answer by callers.
type ResponseStatus struct {
	ProcessTime   float64
	StatusCode    int
	StatusMessage string
	IsTimeout     bool
	IsBlacklist   bool
	IsFailure     bool
}

// Succeeded reports whether the miner answered cleanly
func (s ResponseStatus) Succeeded() bool {
	return !s.IsTimeout && !s.IsBlacklist && !s.IsFailure && s.StatusCode == http.StatusOK
}

// DiscoveryResponse envelope for a discovery query
type DiscoveryResponse struct {
	ResponseStatus
	Target types.MinerTarget
	Output *types.DiscoveryOutput
}

// BlockCheckResponse envelope for a cross validation challenge
type BlockCheckResponse struct {
	ResponseStatus
	Samples []types.DataSample
}

// BenchmarkResponse envelope for a consensus benchmark query
type BenchmarkResponse struct {
	ResponseStatus
	Output string
}

// Transport sends queries to miners with bounded timeouts.
// Implementations must return an envelope for every call, never panic the
// round; transport trouble is reported through the status fields.
type Transport interface {
	Discovery(ctx context.Context, target types.MinerTarget, timeout time.Duration) *DiscoveryResponse
	BlockCheck(ctx context.Context, target types.MinerTarget, heights []int64, timeout time.Duration) *BlockCheckResponse
	Benchmark(ctx context.Context, target types.MinerTarget, query string, timeout time.Duration) *BenchmarkResponse
}
