package benchmark

// memberOutput one responder's answer to the shared query
type memberOutput struct {
	minerID      string
	output       string
	responseTime float64
}

// majorityOutput returns the most common output among responders. On an
// exact tie the value encountered first wins, so the vote is deterministic
// for a given response ordering. Returns false when there are no responders.
func majorityOutput(outputs []memberOutput) (string, bool) {
	if len(outputs) == 0 {
		return "", false
	}

	counts := make(map[string]int, len(outputs))
	order := make([]string, 0, len(outputs))
	for _, o := range outputs {
		if _, seen := counts[o.output]; !seen {
			order = append(order, o.output)
		}
		counts[o.output]++
	}

	best := order[0]
	for _, value := range order[1:] {
		if counts[value] > counts[best] {
			best = value
		}
	}

	return best, true
}
