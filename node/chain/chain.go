package chain

import (
	"context"
	"math/rand"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api/types"
)

var log = logging.Logger("chain")

// Node is an authoritative blockchain client. It is the only collaborator
// the validator trusts as ground truth: it can compute the correct answer
// to a challenge from its own ledger view.
type Node interface {
	Network() types.Network
	CurrentBlockHeight(ctx context.Context) (int64, error)
	// CreateChallenge samples count heights from [start,end] and computes
	// the expected answer for each from the node's own ledger.
	CreateChallenge(ctx context.Context, start, end int64, count int, r *rand.Rand) (*types.Challenge, error)
	// ValidateChallengeResponse decides whether the miner's samples answer
	// the challenge. Representations are normalized before comparison.
	ValidateChallengeResponse(challenge *types.Challenge, samples []types.DataSample) bool
}

// NewNode returns the client for the given network
func NewNode(network types.Network, rpcURL string) (Node, error) {
	switch network {
	case types.NetworkBitcoin:
		return NewBitcoinNode(rpcURL), nil
	case types.NetworkEthereum:
		return NewEthereumNode(rpcURL), nil
	default:
		return nil, xerrors.Errorf("unsupported network %s", network)
	}
}

// NewNodes builds one client per configured network
func NewNodes(urls map[types.Network]string) (map[types.Network]Node, error) {
	nodes := make(map[types.Network]Node, len(urls))
	for network, url := range urls {
		node, err := NewNode(network, url)
		if err != nil {
			return nil, err
		}
		nodes[network] = node
	}

	return nodes, nil
}

// sampleHeights picks count distinct heights from [start,end]
func sampleHeights(start, end int64, count int, r *rand.Rand) []int64 {
	width := end - start + 1
	if int64(count) >= width {
		out := make([]int64, 0, width)
		for h := start; h <= end; h++ {
			out = append(out, h)
		}
		return out
	}

	seen := make(map[int64]struct{}, count)
	out := make([]int64, 0, count)
	for len(out) < count {
		h := start + r.Int63n(width)
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	return out
}

// validateSamples checks every challenged height against the expected answer
func validateSamples(challenge *types.Challenge, samples []types.DataSample) bool {
	if len(samples) != len(challenge.Heights) {
		return false
	}

	answered := make(map[int64]string, len(samples))
	for _, sample := range samples {
		answered[sample.BlockHeight] = normalizeHash(sample.BlockHash)
	}

	for _, height := range challenge.Heights {
		expected, ok := challenge.Expected[height]
		if !ok {
			return false
		}
		if answered[height] != normalizeHash(expected) {
			return false
		}
	}

	return true
}

// normalizeHash strips representation differences between clients
func normalizeHash(hash string) string {
	hash = strings.TrimSpace(strings.ToLower(hash))
	return strings.TrimPrefix(hash, "0x")
}
