package client

import (
	"context"
	"net/http"
	"strings"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/time/rate"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
)

var log = logging.Logger("api/client")

// Dendrite is the rpc backed transport used to reach miners. Every call
// dials the target, runs one query under the given timeout and maps the
// failure mode into the response status. Outbound calls share one rate
// limiter so a large batch cannot flood the network.
type Dendrite struct {
	limiter *rate.Limiter
}

// NewDendrite returns a transport limited to qps outbound queries per second
func NewDendrite(qps int) *Dendrite {
	if qps <= 0 {
		qps = 50
	}
	return &Dendrite{
		limiter: rate.NewLimiter(rate.Limit(qps), qps),
	}
}

func (d *Dendrite) Discovery(ctx context.Context, target types.MinerTarget, timeout time.Duration) *api.DiscoveryResponse {
	out := &api.DiscoveryResponse{Target: target}

	err := d.call(ctx, target, timeout, &out.ResponseStatus, func(ctx context.Context, miner api.Miner) error {
		output, err := miner.Discovery(ctx)
		if err != nil {
			return err
		}
		out.Output = output
		return nil
	})
	if err != nil {
		log.Debugf("discovery %s: %s", target.MinerID, err.Error())
	}

	return out
}

func (d *Dendrite) BlockCheck(ctx context.Context, target types.MinerTarget, heights []int64, timeout time.Duration) *api.BlockCheckResponse {
	out := &api.BlockCheckResponse{}

	err := d.call(ctx, target, timeout, &out.ResponseStatus, func(ctx context.Context, miner api.Miner) error {
		samples, err := miner.BlockCheck(ctx, heights)
		if err != nil {
			return err
		}
		out.Samples = samples
		return nil
	})
	if err != nil {
		log.Debugf("block check %s: %s", target.MinerID, err.Error())
	}

	return out
}

func (d *Dendrite) Benchmark(ctx context.Context, target types.MinerTarget, query string, timeout time.Duration) *api.BenchmarkResponse {
	out := &api.BenchmarkResponse{}

	err := d.call(ctx, target, timeout, &out.ResponseStatus, func(ctx context.Context, miner api.Miner) error {
		output, err := miner.Benchmark(ctx, query)
		if err != nil {
			return err
		}
		out.Output = output
		return nil
	})
	if err != nil {
		log.Debugf("benchmark %s: %s", target.MinerID, err.Error())
	}

	return out
}

func (d *Dendrite) call(ctx context.Context, target types.MinerTarget, timeout time.Duration, status *api.ResponseStatus, fn func(context.Context, api.Miner) error) error {
	if err := d.limiter.Wait(ctx); err != nil {
		setStatus(status, err, 0)
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		status.ProcessTime = time.Since(start).Seconds()
	}()

	miner, closer, err := NewMiner(ctx, target.RPCURL, nil)
	if err != nil {
		setStatus(status, err, time.Since(start).Seconds())
		return err
	}
	defer closer()

	if err := fn(ctx, miner); err != nil {
		setStatus(status, err, time.Since(start).Seconds())
		return err
	}

	status.StatusCode = http.StatusOK
	return nil
}

func setStatus(status *api.ResponseStatus, err error, elapsed float64) {
	status.ProcessTime = elapsed
	status.StatusMessage = err.Error()

	switch {
	case strings.Contains(err.Error(), "blacklist"):
		status.IsBlacklist = true
		status.StatusCode = http.StatusForbidden
	case isTimeout(err):
		status.IsTimeout = true
		status.StatusCode = http.StatusRequestTimeout
	default:
		status.IsFailure = true
		status.StatusCode = http.StatusInternalServerError
	}
}

func isTimeout(err error) bool {
	if err == context.DeadlineExceeded {
		return true
	}
	return strings.Contains(err.Error(), context.DeadlineExceeded.Error())
}

var _ api.Transport = &Dendrite{}
