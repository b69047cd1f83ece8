package benchmark

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	logging "github.com/ipfs/go-log/v2"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
)

var log = logging.Logger("validator/benchmark")

// Options engine tuning, loaded from config
type Options struct {
	Clusters  int
	ChunkSize int
	Timeout   time.Duration
	DiffMin   int
	DiffMax   int
	Templates map[types.Network]string
}

// Engine manufactures ground truth for queries that have no independently
// computable answer: miners claiming near identical coverage are clustered,
// each cluster answers one shared randomized query, and the majority output
// is taken as the correct answer.
type Engine struct {
	transport api.Transport
	opts      Options
}

// NewEngine returns a new consensus benchmark engine
func NewEngine(transport api.Transport, opts Options) *Engine {
	return &Engine{
		transport: transport,
		opts:      opts,
	}
}

// Run benchmarks every claim and returns per miner outcomes keyed by miner
// id. Miners in a network that could not be clustered get no outcome; the
// caller decides what a missing outcome means for scoring and uptime.
func (e *Engine) Run(ctx context.Context, claims []*types.MinerClaim, targets map[string]types.MinerTarget, r *rand.Rand) map[string]*types.BenchmarkOutcome {
	outcomes := make(map[string]*types.BenchmarkOutcome)

	grouped := groupByNetwork(claims)

	// networks drain the shared rand in a fixed order so a round replays
	// from its seed
	networks := make([]types.Network, 0, len(grouped))
	for network := range grouped {
		networks = append(networks, network)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })

	for _, network := range networks {
		group := grouped[network]
		template, ok := e.opts.Templates[network]
		if !ok {
			log.Warnf("no benchmark query template for network %s, skipping", network)
			continue
		}

		clusters, err := e.cluster(network, group, r)
		if err != nil {
			log.Infof("skipping benchmark for network %s: %s", network, err.Error())
			continue
		}

		for _, cluster := range clusters {
			for _, chunk := range cluster.Chunks {
				query := renderQuery(template, cluster.CommonStart, cluster.CommonEnd, e.diff(r))
				e.runChunk(ctx, chunk, targets, query, outcomes)
			}
		}
	}

	return outcomes
}

// cluster partitions a network's claims by their coverage pair and derives
// each cluster's common range, the widest range every member claims to hold
func (e *Engine) cluster(network types.Network, claims []*types.MinerClaim, r *rand.Rand) ([]*types.ClusterGroup, error) {
	points := make([]point, len(claims))
	for i, claim := range claims {
		points[i] = point{float64(claim.StartHeight), float64(claim.EndHeight)}
	}

	labels, err := kmeans(points, e.opts.Clusters, r)
	if err != nil {
		return nil, err
	}

	members := make(map[int][]*types.MinerClaim)
	for i, label := range labels {
		members[label] = append(members[label], claims[i])
	}

	labelsInOrder := make([]int, 0, len(members))
	for label := range members {
		labelsInOrder = append(labelsInOrder, label)
	}
	sort.Ints(labelsInOrder)

	groups := make([]*types.ClusterGroup, 0, len(members))
	for _, label := range labelsInOrder {
		clusterClaims := members[label]

		commonStart := clusterClaims[0].StartHeight
		commonEnd := clusterClaims[0].EndHeight
		for _, claim := range clusterClaims[1:] {
			if claim.StartHeight < commonStart {
				commonStart = claim.StartHeight
			}
			if claim.EndHeight < commonEnd {
				commonEnd = claim.EndHeight
			}
		}

		r.Shuffle(len(clusterClaims), func(i, j int) {
			clusterClaims[i], clusterClaims[j] = clusterClaims[j], clusterClaims[i]
		})

		groups = append(groups, &types.ClusterGroup{
			Network:     network,
			Label:       label,
			CommonStart: commonStart,
			CommonEnd:   commonEnd,
			Chunks:      chunkClaims(clusterClaims, e.opts.ChunkSize),
		})
	}

	return groups, nil
}

// runChunk sends the identical query to every chunk member concurrently and
// marks agreement against the majority answer. Members that returned no
// output disagree by definition.
func (e *Engine) runChunk(ctx context.Context, chunk []*types.MinerClaim, targets map[string]types.MinerTarget, query string, outcomes map[string]*types.BenchmarkOutcome) {
	collected := make([]*memberOutput, len(chunk))

	pool := pond.NewPool(len(chunk))
	group := pool.NewGroupContext(ctx)

	for i, claim := range chunk {
		i, claim := i, claim
		group.Submit(func() {
			target, ok := targets[claim.MinerID]
			if !ok {
				return
			}

			resp := e.transport.Benchmark(ctx, target, query, e.opts.Timeout)
			if !resp.Succeeded() || resp.Output == "" {
				return
			}

			collected[i] = &memberOutput{
				minerID:      claim.MinerID,
				output:       resp.Output,
				responseTime: resp.ProcessTime,
			}
		})
	}

	if err := group.Wait(); err != nil {
		log.Warnf("benchmark chunk dispatch: %s", err.Error())
	}
	pool.StopAndWait()

	responders := make([]memberOutput, 0, len(chunk))
	for _, output := range collected {
		if output != nil {
			responders = append(responders, *output)
		}
	}

	// zero responders means no ground truth: the chunk yields no outcomes
	// at all rather than marking everyone wrong
	majority, ok := majorityOutput(responders)
	if !ok {
		log.Debugf("benchmark chunk of %d miners had no responders", len(chunk))
		return
	}

	responded := make(map[string]*memberOutput, len(responders))
	for i := range responders {
		responded[responders[i].minerID] = &responders[i]
	}

	for _, claim := range chunk {
		output, ok := responded[claim.MinerID]
		if !ok {
			outcomes[claim.MinerID] = &types.BenchmarkOutcome{MinerID: claim.MinerID}
			continue
		}

		outcomes[claim.MinerID] = &types.BenchmarkOutcome{
			MinerID:            claim.MinerID,
			ResponseTime:       output.responseTime,
			Output:             output.output,
			AgreesWithMajority: output.output == majority,
		}
	}
}

func (e *Engine) diff(r *rand.Rand) int {
	if e.opts.DiffMax <= e.opts.DiffMin {
		return e.opts.DiffMin
	}

	return e.opts.DiffMin + r.Intn(e.opts.DiffMax-e.opts.DiffMin+1)
}

func groupByNetwork(claims []*types.MinerClaim) map[types.Network][]*types.MinerClaim {
	grouped := make(map[types.Network][]*types.MinerClaim)
	for _, claim := range claims {
		grouped[claim.Network] = append(grouped[claim.Network], claim)
	}

	return grouped
}

func chunkClaims(claims []*types.MinerClaim, size int) [][]*types.MinerClaim {
	if size <= 0 {
		size = len(claims)
	}

	chunks := make([][]*types.MinerClaim, 0, (len(claims)+size-1)/size)
	for start := 0; start < len(claims); start += size {
		end := start + size
		if end > len(claims) {
			end = len(claims)
		}
		chunks = append(chunks, claims[start:end])
	}

	return chunks
}

func renderQuery(template string, start, end int64, diff int) string {
	replacer := strings.NewReplacer(
		"{start}", strconv.FormatInt(start, 10),
		"{end}", strconv.FormatInt(end, 10),
		"{diff}", strconv.Itoa(diff),
	)

	return replacer.Replace(template)
}
