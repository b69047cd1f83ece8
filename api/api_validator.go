package api

import (
	"context"
	"time"

	"github.com/blockchain-insights/insights/api/types"
)

// Validator is the rpc interface the validator exposes, serving the durable
// result ledger to operators and dashboards.
type Validator interface {
	// Version returns the validator build version
	Version(ctx context.Context) (string, error) //perm:read
	// ListValidationResults returns result rows in a time range, paged
	ListValidationResults(ctx context.Context, startTime, endTime time.Time, pageNumber, pageSize int) (*types.ListValidationResultsRsp, error) //perm:read
	// LoadMinerResults returns the most recent result rows for one miner
	LoadMinerResults(ctx context.Context, minerID string, limit int) ([]types.ValidationResultInfo, error) //perm:read
}

// ValidatorStruct rpc proxy for Validator
type ValidatorStruct struct {
	Internal struct {
		Version               func(ctx context.Context) (string, error)
		ListValidationResults func(ctx context.Context, startTime, endTime time.Time, pageNumber, pageSize int) (*types.ListValidationResultsRsp, error)
		LoadMinerResults      func(ctx context.Context, minerID string, limit int) ([]types.ValidationResultInfo, error)
	}
}

func (s *ValidatorStruct) Version(ctx context.Context) (string, error) {
	return s.Internal.Version(ctx)
}

func (s *ValidatorStruct) ListValidationResults(ctx context.Context, startTime, endTime time.Time, pageNumber, pageSize int) (*types.ListValidationResultsRsp, error) {
	return s.Internal.ListValidationResults(ctx, startTime, endTime, pageNumber, pageSize)
}

func (s *ValidatorStruct) LoadMinerResults(ctx context.Context, minerID string, limit int) ([]types.ValidationResultInfo, error) {
	return s.Internal.LoadMinerResults(ctx, minerID, limit)
}

var _ Validator = &ValidatorStruct{}
