package chain

import (
	"context"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/httpclient"
)

// BitcoinNode authoritative client backed by a bitcoind compatible rpc
type BitcoinNode struct {
	url    string
	client *http.Client
}

// NewBitcoinNode returns a new bitcoin client
func NewBitcoinNode(url string) *BitcoinNode {
	return &BitcoinNode{
		url:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *BitcoinNode) Network() types.Network {
	return types.NetworkBitcoin
}

func (b *BitcoinNode) CurrentBlockHeight(ctx context.Context) (int64, error) {
	var height int64
	if err := httpclient.CallRPC(ctx, b.client, b.url, "getblockcount", nil, &height); err != nil {
		return 0, xerrors.Errorf("getblockcount: %w", err)
	}

	return height, nil
}

func (b *BitcoinNode) CreateChallenge(ctx context.Context, start, end int64, count int, r *rand.Rand) (*types.Challenge, error) {
	heights := sampleHeights(start, end, count, r)

	expected := make(map[int64]string, len(heights))
	for _, height := range heights {
		var hash string
		if err := httpclient.CallRPC(ctx, b.client, b.url, "getblockhash", []interface{}{height}, &hash); err != nil {
			return nil, xerrors.Errorf("getblockhash %d: %w", height, err)
		}
		expected[height] = hash
	}

	return &types.Challenge{
		Network:  types.NetworkBitcoin,
		Heights:  heights,
		Expected: expected,
	}, nil
}

func (b *BitcoinNode) ValidateChallengeResponse(challenge *types.Challenge, samples []types.DataSample) bool {
	return validateSamples(challenge, samples)
}

var _ Node = &BitcoinNode{}
