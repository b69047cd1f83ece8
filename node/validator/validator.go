package validator

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/node/chain"
	"github.com/blockchain-insights/insights/node/config"
	"github.com/blockchain-insights/insights/node/validator/benchmark"
	"github.com/blockchain-insights/insights/node/validator/crosscheck"
	"github.com/blockchain-insights/insights/node/validator/db"
	"github.com/blockchain-insights/insights/node/validator/filter"
	"github.com/blockchain-insights/insights/node/validator/scorer"
	"github.com/blockchain-insights/insights/node/validator/uptime"
)

var log = logging.Logger("validator")

// RewardSink receives the round's (miner, score) pairs. Scores outside
// [0,1] are a contract violation.
type RewardSink interface {
	UpdateScores(ctx context.Context, rewards []*types.Reward) error
}

// Validator drives the per round validation pipeline: discovery, response
// filtering, cross validation, consensus benchmarking and scoring. Stages
// are barrier synchronized, every sampled miner finishes a stage before any
// miner enters the next one, so clustering always sees a consistent
// snapshot of claims.
type Validator struct {
	cfg *config.ValidatorCfg

	transport api.Transport
	registry  api.Registry
	nodes     map[types.Network]chain.Node

	uptimeStore uptime.Store
	results     *db.SqlDB
	sink        RewardSink

	filter *filter.Filter
	cross  *crosscheck.CrossValidator
	engine *benchmark.Engine
	scorer *scorer.Scorer

	minWidths   map[types.Network]int
	heightCache map[types.Network]int64

	close chan struct{}
}

// New builds a validator from its collaborators. Fails when this validator
// itself runs a stale protocol version under the enforced upgrade policy.
func New(cfg *config.ValidatorCfg, transport api.Transport, registry api.Registry, nodes map[types.Network]chain.Node, uptimeStore uptime.Store, results *db.SqlDB, sink RewardSink) (*Validator, error) {
	if cfg.ProtocolVersion < cfg.MinProtocolVersion && !cfg.GracePeriod {
		return nil, xerrors.Errorf("protocol version %d is older than enforced minimum %d, upgrade required", cfg.ProtocolVersion, cfg.MinProtocolVersion)
	}

	networks := make([]types.Network, 0, len(cfg.Networks))
	templates := make(map[types.Network]string, len(cfg.Networks))
	minWidths := make(map[types.Network]int, len(cfg.Networks))
	for _, networkCfg := range cfg.Networks {
		network := types.Network(networkCfg.Name)
		if _, ok := nodes[network]; !ok {
			return nil, xerrors.Errorf("no authoritative client for network %s", network)
		}
		networks = append(networks, network)
		templates[network] = networkCfg.QueryTemplate
		minWidths[network] = networkCfg.MinSampleWidth
	}

	return &Validator{
		cfg:         cfg,
		transport:   transport,
		registry:    registry,
		nodes:       nodes,
		uptimeStore: uptimeStore,
		results:     results,
		sink:        sink,
		filter:      filter.New(cfg.MaxMultipleIPs, cfg.MaxMultipleRunIDs, networks),
		cross:       crosscheck.New(transport, time.Duration(cfg.ChallengeTimeout), cfg.BlockLookaheadTolerance),
		engine: benchmark.NewEngine(transport, benchmark.Options{
			Clusters:  cfg.BenchmarkClusters,
			ChunkSize: cfg.BenchmarkChunkSize,
			Timeout:   time.Duration(cfg.BenchmarkTimeout),
			DiffMin:   cfg.BenchmarkDiffMin,
			DiffMax:   cfg.BenchmarkDiffMax,
			Templates: templates,
		}),
		scorer:      scorer.New(cfg.Scorer),
		minWidths:   minWidths,
		heightCache: make(map[types.Network]int64),
		close:       make(chan struct{}),
	}, nil
}

// Start runs rounds until Stop is called
func (v *Validator) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(v.cfg.RoundInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := v.RunRound(ctx); err != nil {
				log.Errorf("run round: %v", err)
			}
		case <-v.close:
			return
		}
	}
}

// Stop stops the round loop
func (v *Validator) Stop(ctx context.Context) error {
	close(v.close)
	return nil
}

// minerRound accumulates one miner's results as it moves through the
// pipeline within a single round
type minerRound struct {
	target  types.MinerTarget
	resp    *api.DiscoveryResponse
	claim   *types.MinerClaim
	verdict types.ValidationVerdict
	cross   types.CrossCheckResult
	skipped bool
	bench   *types.BenchmarkOutcome
	score   float64
	scored  bool
}

// RunRound executes one complete validation round
func (v *Validator) RunRound(ctx context.Context) error {
	roundID := uuid.NewString()
	seed := time.Now().UnixNano()
	r := rand.New(rand.NewSource(seed))
	startTime := time.Now()

	targets, err := v.registry.SampleMiners(ctx, v.cfg.SampleSize)
	if err != nil {
		return xerrors.Errorf("sample miners: %w", err)
	}
	if len(targets) == 0 {
		log.Info("no miners registered, skipping round")
		return nil
	}

	log.Infof("round %s started with %d miners", roundID, len(targets))

	metadata := v.fetchMetadata(ctx, targets)
	v.refreshHeights(ctx)

	snapshot := buildSnapshot(targets, metadata)
	distribution := minerDistribution(metadata)

	rounds := v.discover(ctx, targets)

	survivors := v.filterStage(rounds, snapshot)
	passed := v.crossStage(ctx, survivors, seed)
	v.benchmarkStage(ctx, passed, r)
	v.scoreStage(passed, snapshot, distribution)

	rewards := v.applyRound(ctx, rounds)

	if v.results != nil {
		if err := v.results.InsertValidationResults(resultRows(roundID, rounds, startTime)); err != nil {
			log.Errorf("persist round %s results: %v", roundID, err)
		}
	}

	if len(rewards) == 0 {
		log.Info("skipping score update as no responses were valid")
		return nil
	}

	if err := v.sink.UpdateScores(ctx, rewards); err != nil {
		return xerrors.Errorf("update scores: %w", err)
	}

	log.Infof("round %s finished: %d/%d miners rewarded", roundID, len(rewards), len(targets))
	return nil
}

// filterStage applies the response filter and builds claims for survivors
func (v *Validator) filterStage(rounds []*minerRound, snapshot *filter.Snapshot) []*minerRound {
	survivors := make([]*minerRound, 0, len(rounds))
	for _, round := range rounds {
		round.verdict = v.filter.Validate(round.resp, snapshot)
		if !round.verdict.Valid() {
			continue
		}

		output := round.resp.Output
		claim := &types.MinerClaim{
			MinerID:     round.target.MinerID,
			Hotkey:      round.target.Hotkey,
			Coldkey:     round.target.Coldkey,
			IP:          round.target.IP,
			Network:     output.Network,
			ModelType:   output.ModelType,
			StartHeight: output.StartBlockHeight,
			EndHeight:   output.BlockHeight,
			Version:     output.Version,
			RunID:       output.RunID,
		}
		if md := snapshot.Metadata[round.target.Hotkey]; md != nil && claim.RunID == "" {
			claim.RunID = md.RunID
		}

		round.claim = claim
		survivors = append(survivors, round)
	}

	return survivors
}

// crossStage cross validates every surviving claim against its network's
// authoritative client. Claims on a network whose client is unreachable are
// skipped for the round, never given a fabricated verdict.
func (v *Validator) crossStage(ctx context.Context, survivors []*minerRound, seed int64) []*minerRound {
	v.forEachBounded(ctx, len(survivors), func(i int) {
		round := survivors[i]
		node := v.nodes[round.claim.Network]
		minWidth := v.minWidths[round.claim.Network]

		// rand.Rand is not safe for concurrent use; derive one per miner
		// from the round seed
		rr := rand.New(rand.NewSource(seed + int64(i)))

		result, err := v.cross.Validate(ctx, round.target, node, round.claim.StartHeight, round.claim.EndHeight, minWidth, rr)
		if err != nil {
			log.Errorf("cross validation: hotkey=%s %v, skipping response", round.claim.Hotkey, err)
			round.skipped = true
			return
		}

		round.cross = result

		switch result.Outcome {
		case types.CrossCheckPass:
			log.Infof("cross validation: hotkey=%s test passed", round.claim.Hotkey)
		case types.CrossCheckFail:
			log.Infof("cross validation: hotkey=%s test failed", round.claim.Hotkey)
			round.score = 0
			round.scored = true
		case types.CrossCheckIndeterminate:
			log.Debugf("cross validation: hotkey=%s timeout, skipping response", round.claim.Hotkey)
		}
	})

	passed := make([]*minerRound, 0, len(survivors))
	for _, round := range survivors {
		if !round.skipped && round.cross.Outcome == types.CrossCheckPass {
			passed = append(passed, round)
		}
	}

	return passed
}

// benchmarkStage runs the consensus benchmark over cross validated claims
func (v *Validator) benchmarkStage(ctx context.Context, passed []*minerRound, r *rand.Rand) {
	if len(passed) == 0 {
		return
	}

	claims := make([]*types.MinerClaim, 0, len(passed))
	targetMap := make(map[string]types.MinerTarget, len(passed))
	for _, round := range passed {
		claims = append(claims, round.claim)
		targetMap[round.claim.MinerID] = round.target
	}

	outcomes := v.engine.Run(ctx, claims, targetMap, r)
	for _, round := range passed {
		round.bench = outcomes[round.claim.MinerID]
	}
}

// scoreStage computes the final reward for miners that agreed with their
// cluster's majority. The response time fed to the scorer is the benchmark
// time with the discovery round trip subtracted, approximating time spent
// on the query itself rather than on the network.
func (v *Validator) scoreStage(passed []*minerRound, snapshot *filter.Snapshot, distribution map[types.Network]int) {
	for _, round := range passed {
		if round.bench == nil {
			// no ground truth this round, not scored
			continue
		}

		if !round.bench.AgreesWithMajority {
			round.score = 0
			round.scored = true
			continue
		}

		if v.cfg.GracePeriod && round.claim.Version != v.cfg.ProtocolVersion {
			log.Infof("miner version: %d, setting score to: %f", round.claim.Version, v.cfg.GraceScore)
			round.score = v.cfg.GraceScore
			round.scored = true
			continue
		}

		adjustedTime := round.bench.ResponseTime - round.resp.ProcessTime
		if adjustedTime < 0 {
			adjustedTime = 0
		}

		uptimeAverage := v.uptimeAverage(round.claim.MinerID)

		multipleIPs := snapshot.HotkeysPerIP[round.claim.IP] > v.cfg.MaxMultipleIPs
		multipleRunIDs := snapshot.RunIDsPerHotkey[round.claim.Hotkey] > v.cfg.MaxMultipleRunIDs

		round.score = v.scorer.CalculateScore(
			round.claim.Network,
			adjustedTime,
			round.claim.StartHeight,
			round.claim.EndHeight,
			v.heightCache[round.claim.Network],
			distribution,
			multipleIPs,
			multipleRunIDs,
			uptimeAverage,
		)
		round.scored = true
	}
}

// applyRound records one uptime transition per miner and collects rewards.
// A miner is up only when it survived every gate and agreed with its
// cluster; everything else is a down round, except miners skipped because
// the authoritative client was unreachable, which keep their state.
func (v *Validator) applyRound(ctx context.Context, rounds []*minerRound) []*types.Reward {
	rewards := make([]*types.Reward, 0, len(rounds))

	for _, round := range rounds {
		up := round.verdict.Valid() &&
			round.cross.Outcome == types.CrossCheckPass &&
			round.bench != nil && round.bench.AgreesWithMajority

		if round.skipped {
			// authoritative client failure is not the miner's fault
		} else if up {
			if err := v.uptimeStore.Up(ctx, round.target.MinerID); err != nil {
				log.Errorf("uptime up %s: %v", round.target.MinerID, err)
			}
		} else {
			if err := v.uptimeStore.Down(ctx, round.target.MinerID); err != nil {
				log.Errorf("uptime down %s: %v", round.target.MinerID, err)
			}
		}

		if round.scored {
			rewards = append(rewards, &types.Reward{
				MinerID: round.target.MinerID,
				Hotkey:  round.target.Hotkey,
				Score:   round.score,
			})
		}
	}

	return rewards
}

// uptimeAverage reads the rolling score, treating a read failure as zero
// history rather than aborting the miner's round
func (v *Validator) uptimeAverage(minerID string) float64 {
	scores, err := v.uptimeStore.Scores(context.Background(), minerID)
	if err != nil {
		log.Warnf("uptime scores %s: %v", minerID, err)
		return 0
	}

	return scores.Average
}

// refreshHeights updates the per network authoritative height cache; a
// network whose client cannot be reached keeps its previous height
func (v *Validator) refreshHeights(ctx context.Context) {
	for network, node := range v.nodes {
		height, err := node.CurrentBlockHeight(ctx)
		if err != nil {
			log.Errorf("current block height for %s: %v", network, err)
			continue
		}
		v.heightCache[network] = height
	}
}

// resultRows converts the round state into durable ledger rows
func resultRows(roundID string, rounds []*minerRound, startTime time.Time) []*types.ValidationResultInfo {
	endTime := time.Now()

	rows := make([]*types.ValidationResultInfo, 0, len(rounds))
	for _, round := range rounds {
		row := &types.ValidationResultInfo{
			RoundID:      roundID,
			MinerID:      round.target.MinerID,
			Hotkey:       round.target.Hotkey,
			Verdict:      int(round.verdict.Code),
			CrossCheck:   int(round.cross.Outcome),
			Score:        round.score,
			ResponseTime: round.cross.ElapsedTime,
			StartTime:    startTime,
			EndTime:      endTime,
		}
		if round.claim != nil {
			row.Network = round.claim.Network
		}
		if round.bench != nil {
			row.Agreed = round.bench.AgreesWithMajority
			row.ResponseTime = round.bench.ResponseTime
		}
		rows = append(rows, row)
	}

	return rows
}
