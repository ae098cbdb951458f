package main

// maxBarriers bounds the 2^n outcome enumeration.
const maxBarriers = 16

type Barrier struct {
	ID          string  `json:"id"`
	Name        string  `json:"name" validate:"required"`
	SuccessRate float64 `json:"success_rate" validate:"min=0,max=1"`
}

type EventOutcome struct {
	Path      []bool  `json:"path"`
	Frequency float64 `json:"frequency"`
	Severity  string  `json:"severity"`
}

// EnumerateOutcomes lists every success/fail combination of the barriers.
// Outcome k sets path[j] when bit j of k is set, so k=0 is the all-fail
// branch and k=2^n-1 the all-success branch.
func EnumerateOutcomes(barriers []Barrier) []EventOutcome {
	n := len(barriers)
	total := 1 << n
	outcomes := make([]EventOutcome, 0, total)
	for k := 0; k < total; k++ {
		path := make([]bool, n)
		for j := 0; j < n; j++ {
			path[j] = k&(1<<j) != 0
		}
		outcomes = append(outcomes, EventOutcome{
			Path:      path,
			Frequency: pathFrequency(barriers, path),
			Severity:  pathSeverity(path),
		})
	}
	return outcomes
}

func pathFrequency(barriers []Barrier, path []bool) float64 {
	freq := 1.0
	for j, success := range path {
		if success {
			freq *= barriers[j].SuccessRate
		} else {
			freq *= 1 - barriers[j].SuccessRate
		}
	}
	return freq
}

func pathSeverity(path []bool) string {
	succeeded := 0
	for _, ok := range path {
		if ok {
			succeeded++
		}
	}
	switch succeeded {
	case len(path):
		return RiskLow
	case 0:
		return RiskHigh
	default:
		return RiskMedium
	}
}
