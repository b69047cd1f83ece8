package types

import (
	"time"
)

// Network blockchain network served by miners
type Network string

const (
	// NetworkBitcoin Bitcoin
	NetworkBitcoin Network = "bitcoin"
	// NetworkEthereum Ethereum
	NetworkEthereum Network = "ethereum"
)

// ModelType graph model served by a miner
type ModelType string

const (
	// ModelFundsFlow funds flow graph
	ModelFundsFlow ModelType = "funds_flow"
)

// MinerTarget where a miner can be reached
type MinerTarget struct {
	MinerID string
	Hotkey  string
	Coldkey string
	IP      string
	Port    int
	RPCURL  string
}

// MinerMetadata metadata a miner committed to the registry
type MinerMetadata struct {
	Block     int64     `json:"block"`
	Version   int       `json:"version"`
	Network   Network   `json:"network"`
	ModelType ModelType `json:"model_type"`
	RunID     string    `json:"run_id"`
	Image     string    `json:"image"`
}

// DiscoveryOutput a miner's self reported coverage
type DiscoveryOutput struct {
	Network          Network   `json:"network"`
	ModelType        ModelType `json:"model_type"`
	StartBlockHeight int64     `json:"start_block_height"`
	BlockHeight      int64     `json:"block_height"`
	Version          int       `json:"version"`
	RunID            string    `json:"run_id"`
}

// MinerClaim discovery output bound to the identity that produced it.
// Built per round and discarded after scoring.
type MinerClaim struct {
	MinerID     string
	Hotkey      string
	Coldkey     string
	IP          string
	Network     Network
	ModelType   ModelType
	StartHeight int64
	EndHeight   int64
	Version     int
	RunID       string
}

// VerdictCode response validation verdict
type VerdictCode int

const (
	// VerdictValid response passed all structural and anti-abuse checks
	VerdictValid VerdictCode = iota
	// VerdictInvalid response is malformed or violates an anti-abuse cap
	VerdictInvalid
	// VerdictTransportError the miner could not be reached cleanly
	VerdictTransportError
)

// ValidationVerdict outcome of the response filter
type ValidationVerdict struct {
	Code       VerdictCode
	StatusCode int
	Reason     string
}

// Valid reports whether the response may be trusted further
func (v ValidationVerdict) Valid() bool {
	return v.Code == VerdictValid
}

// CrossCheckOutcome outcome of a ground truth comparison
type CrossCheckOutcome int

const (
	// CrossCheckNone the claim never reached cross validation
	CrossCheckNone CrossCheckOutcome = iota
	// CrossCheckPass the miner's answer matched the authoritative client
	CrossCheckPass
	// CrossCheckFail the miner's answer or claimed range was wrong
	CrossCheckFail
	// CrossCheckIndeterminate no answer arrived before the deadline
	CrossCheckIndeterminate
)

// CrossCheckResult outcome plus the time the miner took to answer
type CrossCheckResult struct {
	Outcome     CrossCheckOutcome
	ElapsedTime float64
}

// DataSample one sampled block answered by a miner
type DataSample struct {
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
}

// Challenge a question whose answer the authoritative client computed from
// its own ledger view
type Challenge struct {
	Network  Network
	Heights  []int64
	Expected map[int64]string
}

// ClusterGroup miners believed to share overlapping coverage
type ClusterGroup struct {
	Network     Network
	Label       int
	CommonStart int64
	CommonEnd   int64
	Chunks      [][]*MinerClaim
}

// BenchmarkOutcome per miner result of the shared consensus query
type BenchmarkOutcome struct {
	MinerID            string
	ResponseTime       float64
	Output             string
	AgreesWithMajority bool
}

// UptimeScores rolling availability derived from up/down history
type UptimeScores struct {
	Average float64 `redis:"Average"`
	Window  int     `redis:"Window"`
	Ups     int     `redis:"Ups"`
	Downs   int     `redis:"Downs"`
}

// Reward final score handed to the weight updater, always within [0,1]
type Reward struct {
	MinerID string
	Hotkey  string
	Score   float64
}

// ValidationResultInfo durable per round per miner record
type ValidationResultInfo struct {
	ID           int64     `db:"id"`
	RoundID      string    `db:"round_id"`
	MinerID      string    `db:"miner_id"`
	Hotkey       string    `db:"hotkey"`
	Network      Network   `db:"network"`
	Verdict      int       `db:"verdict"`
	CrossCheck   int       `db:"cross_check"`
	Agreed       bool      `db:"agreed"`
	Score        float64   `db:"score"`
	ResponseTime float64   `db:"response_time"`
	StartTime    time.Time `db:"start_time"`
	EndTime      time.Time `db:"end_time"`
}

// ListValidationResultsRsp paged result listing
type ListValidationResultsRsp struct {
	Total                 int                    `json:"total"`
	ValidationResultInfos []ValidationResultInfo `json:"validation_result_infos"`
}
