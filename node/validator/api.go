package validator

import (
	"context"
	"time"

	"golang.org/x/xerrors"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/build"
)

// Version returns the validator build version
func (v *Validator) Version(ctx context.Context) (string, error) {
	return build.UserVersion(), nil
}

// ListValidationResults serves ledger rows in a time range, paged
func (v *Validator) ListValidationResults(ctx context.Context, startTime, endTime time.Time, pageNumber, pageSize int) (*types.ListValidationResultsRsp, error) {
	if v.results == nil {
		return nil, xerrors.New("result ledger is not configured")
	}

	return v.results.ListValidationResults(startTime, endTime, pageNumber, pageSize)
}

// LoadMinerResults serves the most recent ledger rows for one miner
func (v *Validator) LoadMinerResults(ctx context.Context, minerID string, limit int) ([]types.ValidationResultInfo, error) {
	if v.results == nil {
		return nil, xerrors.New("result ledger is not configured")
	}

	return v.results.LoadMinerResults(minerID, limit)
}

var _ api.Validator = &Validator{}
