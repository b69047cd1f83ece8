package benchmark

import (
	"context"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
)

// scriptedTransport answers benchmark queries with a fixed output per miner
type scriptedTransport struct {
	mu      sync.Mutex
	outputs map[string]string
	queries []string
}

func (s *scriptedTransport) Discovery(ctx context.Context, target types.MinerTarget, timeout time.Duration) *api.DiscoveryResponse {
	return &api.DiscoveryResponse{}
}

func (s *scriptedTransport) BlockCheck(ctx context.Context, target types.MinerTarget, heights []int64, timeout time.Duration) *api.BlockCheckResponse {
	return &api.BlockCheckResponse{}
}

func (s *scriptedTransport) Benchmark(ctx context.Context, target types.MinerTarget, query string, timeout time.Duration) *api.BenchmarkResponse {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	output, ok := s.outputs[target.MinerID]
	s.mu.Unlock()

	if !ok {
		return &api.BenchmarkResponse{
			ResponseStatus: api.ResponseStatus{IsTimeout: true, StatusCode: http.StatusRequestTimeout},
		}
	}

	return &api.BenchmarkResponse{
		ResponseStatus: api.ResponseStatus{StatusCode: http.StatusOK, ProcessTime: 0.1},
		Output:         output,
	}
}

func claimsAndTargets(ids []string) ([]*types.MinerClaim, map[string]types.MinerTarget) {
	claims := make([]*types.MinerClaim, 0, len(ids))
	targets := make(map[string]types.MinerTarget, len(ids))
	for _, id := range ids {
		claims = append(claims, &types.MinerClaim{
			MinerID:     id,
			Hotkey:      id,
			Network:     types.NetworkBitcoin,
			StartHeight: 100,
			EndHeight:   50000,
		})
		targets[id] = types.MinerTarget{MinerID: id, Hotkey: id}
	}

	return claims, targets
}

func testOptions(clusters int) Options {
	return Options{
		Clusters:  clusters,
		ChunkSize: 10,
		Timeout:   time.Second,
		DiffMin:   1,
		DiffMax:   100,
		Templates: map[types.Network]string{
			types.NetworkBitcoin:  "funds_flow(start={start}, end={end}, diff={diff})",
			types.NetworkEthereum: "funds_flow(start={start}, end={end}, diff={diff})",
		},
	}
}

func TestRunOutvotesLoneDissenter(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1", "m2", "m3", "m4", "m5"})

	transport := &scriptedTransport{outputs: map[string]string{
		"m1": "A", "m2": "A", "m3": "B", "m4": "A", "m5": "A",
	}}
	engine := NewEngine(transport, testOptions(1))

	outcomes := engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	require.Len(t, outcomes, 5)
	agreed := 0
	for _, outcome := range outcomes {
		if outcome.AgreesWithMajority {
			agreed++
		}
	}
	assert.Equal(t, 4, agreed)
	assert.False(t, outcomes["m3"].AgreesWithMajority)
}

func TestRunNonResponderDisagrees(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1", "m2", "m3"})

	// m3 times out
	transport := &scriptedTransport{outputs: map[string]string{"m1": "A", "m2": "A"}}
	engine := NewEngine(transport, testOptions(1))

	outcomes := engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	require.Len(t, outcomes, 3)
	assert.True(t, outcomes["m1"].AgreesWithMajority)
	assert.True(t, outcomes["m2"].AgreesWithMajority)
	assert.False(t, outcomes["m3"].AgreesWithMajority)
	assert.Empty(t, outcomes["m3"].Output)
}

func TestRunSingleResponderAgreesWithItself(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1"})

	transport := &scriptedTransport{outputs: map[string]string{"m1": "A"}}
	engine := NewEngine(transport, testOptions(1))

	outcomes := engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes["m1"].AgreesWithMajority)
}

func TestRunZeroRespondersYieldsNoOutcomes(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1", "m2"})

	transport := &scriptedTransport{outputs: map[string]string{}}
	engine := NewEngine(transport, testOptions(1))

	outcomes := engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	assert.Empty(t, outcomes)
}

func TestRunSkipsNetworkWithTooFewClaims(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1", "m2"})

	transport := &scriptedTransport{outputs: map[string]string{"m1": "A", "m2": "A"}}
	engine := NewEngine(transport, testOptions(5))

	outcomes := engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	assert.Empty(t, outcomes)
	assert.Empty(t, transport.queries)
}

func TestRunRendersCommonRangeIntoQuery(t *testing.T) {
	claims, targets := claimsAndTargets([]string{"m1", "m2", "m3"})
	claims[1].StartHeight = 90
	claims[1].EndHeight = 40000

	transport := &scriptedTransport{outputs: map[string]string{"m1": "A", "m2": "A", "m3": "A"}}
	engine := NewEngine(transport, testOptions(1))

	engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(1)))

	require.NotEmpty(t, transport.queries)
	// common range is the min start and min end across the cluster
	assert.True(t, strings.HasPrefix(transport.queries[0], "funds_flow(start=90, end=40000, diff="))
}

func TestRunReplaysFromSeedAcrossNetworks(t *testing.T) {
	claims := make([]*types.MinerClaim, 0, 6)
	targets := make(map[string]types.MinerTarget, 6)
	outputs := make(map[string]string, 6)
	for i, network := range []types.Network{
		types.NetworkBitcoin, types.NetworkBitcoin, types.NetworkBitcoin,
		types.NetworkEthereum, types.NetworkEthereum, types.NetworkEthereum,
	} {
		id := "m" + strconv.Itoa(i+1)
		claims = append(claims, &types.MinerClaim{
			MinerID:     id,
			Hotkey:      id,
			Network:     network,
			StartHeight: 100,
			EndHeight:   50000,
		})
		targets[id] = types.MinerTarget{MinerID: id, Hotkey: id}
		outputs[id] = "A"
	}

	replay := func() []string {
		transport := &scriptedTransport{outputs: outputs}
		engine := NewEngine(transport, testOptions(1))

		engine.Run(context.Background(), claims, targets, rand.New(rand.NewSource(42)))

		queries := append([]string(nil), transport.queries...)
		sort.Strings(queries)
		return queries
	}

	first := replay()
	require.NotEmpty(t, first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, replay())
	}
}

func TestChunkClaims(t *testing.T) {
	claims, _ := claimsAndTargets([]string{"m1", "m2", "m3", "m4", "m5"})

	chunks := chunkClaims(claims, 2)

	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 2)
	assert.Len(t, chunks[1], 2)
	assert.Len(t, chunks[2], 1)
}
