package rank

import (
	"strings"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

const (
	consistencyWindow    = 6
	consistencyMinScores = 3
)

// Highlights are the two featured brands shown above the ranked table.
type Highlights struct {
	// Hottest has the highest latest heat score.
	Hottest *score.BrandMetrics
	// MostConsistent has the least (non-zero) variance in recent growth.
	MostConsistent *score.BrandMetrics
}

// Highlights picks the featured brands. Ties go to the earlier brand.
func (a *Aggregator) Highlights(all []score.BrandMetrics) Highlights {
	var h Highlights
	bestHeat := -1
	bestVariance := -1.0

	for i := range all {
		m := &all[i]
		if strings.TrimSpace(m.BrandName) == "" {
			continue
		}
		set := a.calc.ComputeAll(*m)

		if heat := set.Heat.Latest(); heat != nil && *heat > bestHeat {
			bestHeat = *heat
			h.Hottest = m
		}

		v, ok := recentVariance(set.Growth)
		if ok && v > 0 && (bestVariance < 0 || v < bestVariance) {
			bestVariance = v
			h.MostConsistent = m
		}
	}

	if h.MostConsistent == nil && len(all) > 1 {
		h.MostConsistent = &all[1]
	}
	return h
}

// recentVariance is the population variance of the defined scores among the
// last consistencyWindow months.
func recentVariance(s score.Series) (float64, bool) {
	start := len(s.Scores) - consistencyWindow
	if start < 0 {
		start = 0
	}

	var vals []float64
	for _, v := range s.Scores[start:] {
		if v != nil {
			vals = append(vals, float64(*v))
		}
	}
	if len(vals) < consistencyMinScores {
		return 0, false
	}

	var mean float64
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	var variance float64
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	return variance / float64(len(vals)), true
}
