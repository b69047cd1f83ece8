package chain

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/httpclient"
)

// EthereumNode authoritative client backed by an execution layer rpc
type EthereumNode struct {
	url    string
	client *http.Client
}

// NewEthereumNode returns a new ethereum client
func NewEthereumNode(url string) *EthereumNode {
	return &EthereumNode{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *EthereumNode) Network() types.Network {
	return types.NetworkEthereum
}

func (e *EthereumNode) CurrentBlockHeight(ctx context.Context) (int64, error) {
	var hex string
	if err := httpclient.CallRPC(ctx, e.client, e.url, "eth_blockNumber", nil, &hex); err != nil {
		return 0, xerrors.Errorf("eth_blockNumber: %w", err)
	}

	return parseHexUint(hex)
}

func (e *EthereumNode) CreateChallenge(ctx context.Context, start, end int64, count int, r *rand.Rand) (*types.Challenge, error) {
	heights := sampleHeights(start, end, count, r)

	expected := make(map[int64]string, len(heights))
	for _, height := range heights {
		var block struct {
			Hash string `json:"hash"`
		}
		params := []interface{}{"0x" + strconv.FormatInt(height, 16), false}
		if err := httpclient.CallRPC(ctx, e.client, e.url, "eth_getBlockByNumber", params, &block); err != nil {
			return nil, xerrors.Errorf("eth_getBlockByNumber %d: %w", height, err)
		}
		if block.Hash == "" {
			return nil, xerrors.Errorf("block %d not found", height)
		}
		expected[height] = block.Hash
	}

	return &types.Challenge{
		Network:  types.NetworkEthereum,
		Heights:  heights,
		Expected: expected,
	}, nil
}

func (e *EthereumNode) ValidateChallengeResponse(challenge *types.Challenge, samples []types.DataSample) bool {
	return validateSamples(challenge, samples)
}

func parseHexUint(hex string) (int64, error) {
	hex = strings.TrimPrefix(hex, "0x")
	value, err := strconv.ParseInt(hex, 16, 64)
	if err != nil {
		return 0, xerrors.Errorf("parse hex %q: %w", hex, err)
	}

	return value, nil
}

var _ Node = &EthereumNode{}
