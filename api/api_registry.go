package api

import (
	"context"

	"github.com/blockchain-insights/insights/api/types"
)

// Registry is the on-chain registration surface the validator consumes.
// It answers which miners exist and what metadata they committed.
type Registry interface {
	// SampleMiners returns up to count registered miner targets
	SampleMiners(ctx context.Context, count int) ([]types.MinerTarget, error) //perm:read
	// MinerMetadata returns the metadata committed for a hotkey
	MinerMetadata(ctx context.Context, hotkey string) (*types.MinerMetadata, error) //perm:read
}

// RegistryStruct rpc proxy for Registry
type RegistryStruct struct {
	Internal struct {
		SampleMiners  func(ctx context.Context, count int) ([]types.MinerTarget, error)
		MinerMetadata func(ctx context.Context, hotkey string) (*types.MinerMetadata, error)
	}
}

func (s *RegistryStruct) SampleMiners(ctx context.Context, count int) ([]types.MinerTarget, error) {
	return s.Internal.SampleMiners(ctx, count)
}

func (s *RegistryStruct) MinerMetadata(ctx context.Context, hotkey string) (*types.MinerMetadata, error) {
	return s.Internal.MinerMetadata(ctx, hotkey)
}

var _ Registry = &RegistryStruct{}
