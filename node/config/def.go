package config

import (
	"encoding"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultValidatorCfg returns the default validator config
func DefaultValidatorCfg() *ValidatorCfg {
	return &ValidatorCfg{
		ListenAddress:   "0.0.0.0:4567",
		RegistryAddress: "ws://127.0.0.1:9944/rpc/v0",
		DatabaseAddress: "user:passwd@tcp(127.0.0.1:3306)/insights",
		RedisAddress:    "127.0.0.1:6379",
		Networks: []NetworkCfg{
			{
				Name:           "bitcoin",
				RPCURL:         "http://127.0.0.1:8332",
				QueryTemplate:  "funds_flow(start={start}, end={end}, diff={diff})",
				MinSampleWidth: 20,
			},
		},
		SampleSize:              32,
		RoundInterval:           Duration(5 * time.Minute),
		DiscoveryTimeout:        Duration(30 * time.Second),
		ChallengeTimeout:        Duration(30 * time.Second),
		BenchmarkTimeout:        Duration(60 * time.Second),
		BlockLookaheadTolerance: 3,
		MaxMultipleIPs:          9,
		MaxMultipleRunIDs:       9,
		BenchmarkClusters:       5,
		BenchmarkChunkSize:      8,
		BenchmarkDiffMin:        1,
		BenchmarkDiffMax:        100,
		QueryRateLimit:          50,
		QueryConcurrency:        3,
		MetadataWorkers:         3,
		MetadataRetries:         3,
		MetadataBackoff:         Duration(12 * time.Second),
		UptimeWindow:            100,
		ProtocolVersion:         5,
		MinProtocolVersion:      5,
		GracePeriod:             false,
		GraceScore:              0.1,
		Alpha:                   0.9,
		Scorer: ScorerCfg{
			BlockHeightWeight:   0.5,
			ResponseTimeWeight:  0.2,
			DistributionWeight:  0.3,
			ResponseTimeDecay:   10,
			UptimeFloor:         0.2,
			MultiplicityPenalty: 0.25,
		},
	}
}

// FromFile loads a validator config from a toml file
func FromFile(path string) (*ValidatorCfg, error) {
	cfg := DefaultValidatorCfg()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

var (
	_ encoding.TextMarshaler   = (*Duration)(nil)
	_ encoding.TextUnmarshaler = (*Duration)(nil)
)

// Duration is a wrapper type for time.Duration
// for decoding and encoding from/to TOML
type Duration time.Duration

// UnmarshalText implements interface for TOML decoding
func (dur *Duration) UnmarshalText(text []byte) error {
	d, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*dur = Duration(d)
	return err
}

func (dur Duration) MarshalText() ([]byte, error) {
	d := time.Duration(dur)
	return []byte(d.String()), nil
}
