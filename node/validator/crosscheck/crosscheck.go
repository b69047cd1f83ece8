package crosscheck

import (
	"context"
	"math/rand"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/node/chain"
)

var log = logging.Logger("validator/crosscheck")

// CrossValidator checks one sampled sub range of a miner's claimed coverage
// against the authoritative client. It is the only check in the round with
// an externally verifiable ground truth, so it runs cheap: a single sampled
// challenge per miner per round.
type CrossValidator struct {
	transport api.Transport
	timeout   time.Duration
	lookahead int64
}

// New returns a new cross validator
func New(transport api.Transport, timeout time.Duration, lookahead int64) *CrossValidator {
	return &CrossValidator{
		transport: transport,
		timeout:   timeout,
		lookahead: lookahead,
	}
}

// ValidateRange checks the claimed range against the authoritative height.
// A claim running more than the lookahead tolerance ahead of the tip is
// rejected, miners cannot claim blocks that do not exist yet.
func (cv *CrossValidator) ValidateRange(start, end int64, minWidth int, currentHeight int64) bool {
	if start <= 0 || end <= 0 {
		log.Debug("non positive block heights provided to cross validate")
		return false
	}
	if start >= end {
		log.Debug("start block height is greater than or equal to last block height in cross validate")
		return false
	}
	if minWidth <= 0 {
		log.Debug("min sample width is not set in cross validate")
		return false
	}
	if end > currentHeight+cv.lookahead {
		log.Debug("last block height provided is larger than current block height")
		return false
	}
	if end+1-start < int64(minWidth) {
		log.Debug("claimed block range is too narrow")
		return false
	}

	return true
}

// Validate issues a challenge over the claimed range and compares the
// miner's answer against the authoritative client. The returned error is
// reserved for authoritative client trouble; every miner side failure mode
// maps onto the tri-state outcome.
func (cv *CrossValidator) Validate(ctx context.Context, target types.MinerTarget, node chain.Node, start, end int64, minWidth int, r *rand.Rand) (types.CrossCheckResult, error) {
	currentHeight, err := node.CurrentBlockHeight(ctx)
	if err != nil {
		return types.CrossCheckResult{}, xerrors.Errorf("current block height: %w", err)
	}

	if !cv.ValidateRange(start, end, minWidth, currentHeight) {
		return types.CrossCheckResult{Outcome: types.CrossCheckFail}, nil
	}

	challenge, err := node.CreateChallenge(ctx, start, end, minWidth, r)
	if err != nil {
		return types.CrossCheckResult{}, xerrors.Errorf("create challenge: %w", err)
	}

	resp := cv.transport.BlockCheck(ctx, target, challenge.Heights, cv.timeout)
	if !resp.Succeeded() || len(resp.Samples) == 0 {
		log.Debugf("no challenge answer from %s, skipping response", target.Hotkey)
		return types.CrossCheckResult{
			Outcome:     types.CrossCheckIndeterminate,
			ElapsedTime: resp.ProcessTime,
		}, nil
	}

	outcome := types.CrossCheckFail
	if node.ValidateChallengeResponse(challenge, resp.Samples) {
		outcome = types.CrossCheckPass
	}

	return types.CrossCheckResult{
		Outcome:     outcome,
		ElapsedTime: resp.ProcessTime,
	}, nil
}
