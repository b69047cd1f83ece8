package filter

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"

	"github.com/blockchain-insights/insights/api"
	"github.com/blockchain-insights/insights/api/types"
)

var log = logging.Logger("validator/filter")

// Snapshot is the round scoped view of miner metadata the filter judges
// against. It is assembled once per round so every response is filtered
// against the same counts.
type Snapshot struct {
	Metadata        map[string]*types.MinerMetadata
	HotkeysPerIP    map[string]int
	RunIDsPerHotkey map[string]int
}

// Filter rejects discovery responses before any further round trip is spent
// on them. It is a pure function of the response and the snapshot.
type Filter struct {
	maxMultipleIPs    int
	maxMultipleRunIDs int
	networks          map[types.Network]struct{}
}

// New returns a filter accepting the given networks
func New(maxMultipleIPs, maxMultipleRunIDs int, networks []types.Network) *Filter {
	known := make(map[types.Network]struct{}, len(networks))
	for _, network := range networks {
		known[network] = struct{}{}
	}

	return &Filter{
		maxMultipleIPs:    maxMultipleIPs,
		maxMultipleRunIDs: maxMultipleRunIDs,
		networks:          known,
	}
}

// Validate runs the checks in order, short circuiting on the first failure
func (f *Filter) Validate(resp *api.DiscoveryResponse, snapshot *Snapshot) types.ValidationVerdict {
	if verdict, ok := f.checkTransport(resp); !ok {
		return verdict
	}

	if verdict, ok := f.checkStructure(resp); !ok {
		return verdict
	}

	return f.checkAbuse(resp, snapshot)
}

func (f *Filter) checkTransport(resp *api.DiscoveryResponse) (types.ValidationVerdict, bool) {
	if resp.Succeeded() {
		return types.ValidationVerdict{}, true
	}

	reason := "failure"
	switch {
	case resp.IsTimeout:
		reason = "timeout"
	case resp.IsBlacklist:
		reason = "blacklist"
	}

	log.Infof("skipping response: %s, miner %s returned status_code=%d: %s",
		reason, resp.Target.Hotkey, resp.StatusCode, resp.StatusMessage)

	return types.ValidationVerdict{
		Code:       types.VerdictTransportError,
		StatusCode: resp.StatusCode,
		Reason:     reason,
	}, false
}

func (f *Filter) checkStructure(resp *api.DiscoveryResponse) (types.ValidationVerdict, bool) {
	output := resp.Output
	if output == nil {
		return invalid("no output"), false
	}

	if _, ok := f.networks[output.Network]; !ok {
		return invalid(fmt.Sprintf("unknown network %s", output.Network)), false
	}

	if output.StartBlockHeight <= 0 || output.BlockHeight <= 0 {
		return invalid("non positive block height"), false
	}

	if output.BlockHeight < output.StartBlockHeight {
		return invalid("inverted block range"), false
	}

	if output.Version <= 0 {
		return invalid("missing protocol version"), false
	}

	return types.ValidationVerdict{}, true
}

func (f *Filter) checkAbuse(resp *api.DiscoveryResponse, snapshot *Snapshot) types.ValidationVerdict {
	hotkey := resp.Target.Hotkey

	if snapshot.Metadata[hotkey] == nil {
		return invalid("no committed metadata")
	}

	if snapshot.HotkeysPerIP[resp.Target.IP] > f.maxMultipleIPs {
		log.Infof("miner %s shares address %s beyond the multiplicity cap", hotkey, resp.Target.IP)
		return invalid("too many miners per address")
	}

	if snapshot.RunIDsPerHotkey[hotkey] > f.maxMultipleRunIDs {
		log.Infof("miner %s runs too many instances", hotkey)
		return invalid("too many run ids per hotkey")
	}

	return types.ValidationVerdict{Code: types.VerdictValid}
}

func invalid(reason string) types.ValidationVerdict {
	return types.ValidationVerdict{
		Code:   types.VerdictInvalid,
		Reason: reason,
	}
}
