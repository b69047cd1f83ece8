package config

// // NOTE: ONLY PUT STRUCT DEFINITIONS IN THIS FILE

// NetworkCfg per network settings
type NetworkCfg struct {
	// network name, one of: bitcoin, ethereum
	Name string
	// authoritative client rpc address
	RPCURL string
	// benchmark query template, rendered with {start} {end} {diff}
	QueryTemplate string
	// minimum claimed range width eligible for cross validation
	MinSampleWidth int
}

// ScorerCfg weights of the reward function. Weights of the three quality
// terms should sum to 1; the score is clamped to [0,1] either way.
type ScorerCfg struct {
	// weight of the claimed coverage term
	BlockHeightWeight float64
	// weight of the response time term
	ResponseTimeWeight float64
	// weight of the network distribution term
	DistributionWeight float64
	// seconds over which the response time term decays by 1/e
	ResponseTimeDecay float64
	// fraction of the score kept at zero uptime
	UptimeFloor float64
	// multiplier applied when one operator runs too many miners
	MultiplicityPenalty float64
}

// ValidatorCfg validator config
type ValidatorCfg struct {
	// host address and port the validator api will listen on
	ListenAddress string
	// miner registry rpc address
	RegistryAddress string
	// mysql address for the validation result ledger
	DatabaseAddress string
	// redis address for the uptime store
	RedisAddress string
	// networks to validate
	Networks []NetworkCfg
	// miners sampled per round
	SampleSize int
	// time between rounds
	RoundInterval Duration
	// timeout of the discovery query
	DiscoveryTimeout Duration
	// timeout of the cross validation challenge
	ChallengeTimeout Duration
	// timeout of one benchmark query
	BenchmarkTimeout Duration
	// blocks a claim may run ahead of the authoritative tip
	BlockLookaheadTolerance int64
	// max distinct miners per source address
	MaxMultipleIPs int
	// max distinct run ids per hotkey
	MaxMultipleRunIDs int
	// benchmark cluster count per network
	BenchmarkClusters int
	// max miners queried per benchmark chunk
	BenchmarkChunkSize int
	// lower bound of the per round query diff perturbation
	BenchmarkDiffMin int
	// upper bound of the per round query diff perturbation
	BenchmarkDiffMax int
	// outbound queries per second across the whole round
	QueryRateLimit int
	// concurrent outbound calls per pipeline stage
	QueryConcurrency int
	// concurrent metadata lookups
	MetadataWorkers int
	// metadata fetch attempts before the miner is skipped for the round
	MetadataRetries int
	// wait between metadata fetch attempts
	MetadataBackoff Duration
	// rounds kept in the rolling uptime window
	UptimeWindow int
	// protocol version this validator speaks
	ProtocolVersion int
	// oldest miner protocol version accepted outside a grace period
	MinProtocolVersion int
	// accept stale miner versions with a reduced score
	GracePeriod bool
	// score handed to stale miners during a grace period
	GraceScore float64
	// ema factor of the weight updater
	Alpha float64
	// scoring weights
	Scorer ScorerCfg
}
