package validator

import (
	"github.com/blockchain-insights/insights/api/types"
	"github.com/blockchain-insights/insights/node/validator/filter"
)

// buildSnapshot assembles the round scoped metadata view the filter and
// scorer judge against
func buildSnapshot(targets []types.MinerTarget, metadata map[string]*types.MinerMetadata) *filter.Snapshot {
	return &filter.Snapshot{
		Metadata:        metadata,
		HotkeysPerIP:    countHotkeysPerIP(targets),
		RunIDsPerHotkey: countRunIDsPerHotkey(metadata),
	}
}

// countHotkeysPerIP counts how many distinct hotkeys serve from each address
func countHotkeysPerIP(targets []types.MinerTarget) map[string]int {
	hotkeysByIP := make(map[string]map[string]struct{})
	for _, target := range targets {
		if hotkeysByIP[target.IP] == nil {
			hotkeysByIP[target.IP] = make(map[string]struct{})
		}
		hotkeysByIP[target.IP][target.Hotkey] = struct{}{}
	}

	counts := make(map[string]int, len(hotkeysByIP))
	for ip, hotkeys := range hotkeysByIP {
		counts[ip] = len(hotkeys)
	}

	return counts
}

// countRunIDsPerHotkey maps each hotkey to the number of hotkeys sharing
// its run id, exposing one operator running many nominally independent
// miners
func countRunIDsPerHotkey(metadata map[string]*types.MinerMetadata) map[string]int {
	byRunID := make(map[string]int)
	for _, md := range metadata {
		if md.RunID != "" {
			byRunID[md.RunID]++
		}
	}

	counts := make(map[string]int, len(metadata))
	for hotkey, md := range metadata {
		counts[hotkey] = byRunID[md.RunID]
	}

	return counts
}

// minerDistribution counts committed miners per network
func minerDistribution(metadata map[string]*types.MinerMetadata) map[types.Network]int {
	distribution := make(map[types.Network]int)
	for _, md := range metadata {
		distribution[md.Network]++
	}

	return distribution
}
