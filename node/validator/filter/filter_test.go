package filter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
)

func okResponse(hotkey, ip string) *api.DiscoveryResponse {
	return &api.DiscoveryResponse{
		ResponseStatus: api.ResponseStatus{StatusCode: http.StatusOK},
		Target:         types.MinerTarget{MinerID: hotkey, Hotkey: hotkey, IP: ip},
		Output: &types.DiscoveryOutput{
			Network:          types.NetworkBitcoin,
			ModelType:        types.ModelFundsFlow,
			StartBlockHeight: 1,
			BlockHeight:      800000,
			Version:          5,
			RunID:            "run-1",
		},
	}
}

func snapshotFor(resp *api.DiscoveryResponse) *Snapshot {
	return &Snapshot{
		Metadata: map[string]*types.MinerMetadata{
			resp.Target.Hotkey: {Network: types.NetworkBitcoin, RunID: "run-1", Version: 5},
		},
		HotkeysPerIP:    map[string]int{resp.Target.IP: 1},
		RunIDsPerHotkey: map[string]int{resp.Target.Hotkey: 1},
	}
}

func TestValidateAccepts(t *testing.T) {
	f := New(9, 9, []types.Network{types.NetworkBitcoin})

	resp := okResponse("hk1", "1.2.3.4")
	verdict := f.Validate(resp, snapshotFor(resp))

	assert.True(t, verdict.Valid())
}

func TestValidateTransportErrors(t *testing.T) {
	f := New(9, 9, []types.Network{types.NetworkBitcoin})

	tests := []struct {
		name   string
		status api.ResponseStatus
	}{
		{"timeout", api.ResponseStatus{IsTimeout: true, StatusCode: http.StatusRequestTimeout}},
		{"blacklist", api.ResponseStatus{IsBlacklist: true, StatusCode: http.StatusForbidden}},
		{"failure", api.ResponseStatus{IsFailure: true, StatusCode: http.StatusInternalServerError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := okResponse("hk1", "1.2.3.4")
			resp.ResponseStatus = tt.status

			verdict := f.Validate(resp, snapshotFor(resp))

			assert.Equal(t, types.VerdictTransportError, verdict.Code)
			assert.Equal(t, tt.status.StatusCode, verdict.StatusCode)
		})
	}
}

func TestValidateMalformedOutput(t *testing.T) {
	f := New(9, 9, []types.Network{types.NetworkBitcoin})

	mutate := map[string]func(*api.DiscoveryResponse){
		"no output":        func(r *api.DiscoveryResponse) { r.Output = nil },
		"unknown network":  func(r *api.DiscoveryResponse) { r.Output.Network = "dogecoin" },
		"negative start":   func(r *api.DiscoveryResponse) { r.Output.StartBlockHeight = -5 },
		"zero end":         func(r *api.DiscoveryResponse) { r.Output.BlockHeight = 0 },
		"inverted range":   func(r *api.DiscoveryResponse) { r.Output.StartBlockHeight = 900000 },
		"missing version":  func(r *api.DiscoveryResponse) { r.Output.Version = 0 },
	}

	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			resp := okResponse("hk1", "1.2.3.4")
			fn(resp)

			verdict := f.Validate(resp, snapshotFor(resp))

			assert.Equal(t, types.VerdictInvalid, verdict.Code)
		})
	}
}

func TestValidateMissingMetadata(t *testing.T) {
	f := New(9, 9, []types.Network{types.NetworkBitcoin})

	resp := okResponse("hk1", "1.2.3.4")
	snapshot := snapshotFor(resp)
	delete(snapshot.Metadata, "hk1")

	verdict := f.Validate(resp, snapshot)

	assert.Equal(t, types.VerdictInvalid, verdict.Code)
}

func TestValidateMultiplicityCaps(t *testing.T) {
	f := New(2, 2, []types.Network{types.NetworkBitcoin})

	t.Run("too many miners per address", func(t *testing.T) {
		resp := okResponse("hk1", "1.2.3.4")
		snapshot := snapshotFor(resp)
		snapshot.HotkeysPerIP["1.2.3.4"] = 3

		verdict := f.Validate(resp, snapshot)
		assert.Equal(t, types.VerdictInvalid, verdict.Code)
	})

	t.Run("too many run ids per hotkey", func(t *testing.T) {
		resp := okResponse("hk1", "1.2.3.4")
		snapshot := snapshotFor(resp)
		snapshot.RunIDsPerHotkey["hk1"] = 3

		verdict := f.Validate(resp, snapshot)
		assert.Equal(t, types.VerdictInvalid, verdict.Code)
	})

	t.Run("at the cap is fine", func(t *testing.T) {
		resp := okResponse("hk1", "1.2.3.4")
		snapshot := snapshotFor(resp)
		snapshot.HotkeysPerIP["1.2.3.4"] = 2
		snapshot.RunIDsPerHotkey["hk1"] = 2

		verdict := f.Validate(resp, snapshot)
		assert.True(t, verdict.Valid())
	})
}
