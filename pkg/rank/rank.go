// Package rank derives the ranked brand listing from computed health scores.
package rank

import (
	"sort"
	"strings"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

// Row is one brand in the ranked listing.
type Row struct {
	BrandName   string `json:"brand_name"`
	TopCategory string `json:"top_category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
	Logo        string `json:"logo,omitempty"`

	CurrentTotal  *int `json:"current_total"`
	PreviousTotal *int `json:"previous_total"`
	CurrentGrowth *int `json:"current_growth"`
	CurrentHeat   *int `json:"current_heat"`

	CurrentRank  *int `json:"current_rank"`
	PreviousRank *int `json:"previous_rank"`
	// RankChange is PreviousRank-CurrentRank; positive means the brand moved
	// up. Nil marks a new entrant.
	RankChange *int `json:"rank_change"`
}

// IsNew reports whether the brand has no rank change to show.
func (r Row) IsNew() bool { return r.RankChange == nil }

// Aggregator builds ranked rows with a shared score calculator.
type Aggregator struct {
	calc *score.Calculator
}

// NewAggregator creates an aggregator. A nil calculator uses default params.
func NewAggregator(calc *score.Calculator) *Aggregator {
	if calc == nil {
		calc = score.NewCalculator(score.DefaultParams(), nil)
	}
	return &Aggregator{calc: calc}
}

// BuildRows scores every named brand and ranks them by current and previous
// total score. Row order follows the input order.
func (a *Aggregator) BuildRows(all []score.BrandMetrics) []Row {
	rows := make([]Row, 0, len(all))
	for _, m := range all {
		if strings.TrimSpace(m.BrandName) == "" {
			continue
		}
		set := a.calc.ComputeAll(m)
		rows = append(rows, Row{
			BrandName:     m.BrandName,
			TopCategory:   m.TopCategory,
			SubCategory:   m.SubCategory,
			Logo:          m.Logo,
			CurrentTotal:  set.Total.Latest(),
			PreviousTotal: set.Total.Previous(),
			CurrentGrowth: set.Growth.Latest(),
			CurrentHeat:   set.Heat.Latest(),
		})
	}

	current := RankMap(rows, func(r Row) *int { return r.CurrentTotal })
	previous := RankMap(rows, func(r Row) *int { return r.PreviousTotal })

	for i := range rows {
		rows[i].CurrentRank = lookup(current, rows[i].BrandName)
		rows[i].PreviousRank = lookup(previous, rows[i].BrandName)
		if rows[i].CurrentRank != nil && rows[i].PreviousRank != nil {
			change := *rows[i].PreviousRank - *rows[i].CurrentRank
			rows[i].RankChange = &change
		}
	}
	return rows
}

// RankMap assigns 1-based ranks by descending value to rows with a non-nil
// value. Ties keep input order. A repeated brand name keeps its first rank.
func RankMap(rows []Row, value func(Row) *int) map[string]int {
	ranked := make([]Row, 0, len(rows))
	for _, r := range rows {
		if value(r) != nil {
			ranked = append(ranked, r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *value(ranked[i]) > *value(ranked[j])
	})

	ranks := make(map[string]int, len(ranked))
	for i, r := range ranked {
		if _, seen := ranks[r.BrandName]; !seen {
			ranks[r.BrandName] = i + 1
		}
	}
	return ranks
}

func lookup(ranks map[string]int, name string) *int {
	r, ok := ranks[name]
	if !ok {
		return nil
	}
	return &r
}

// Categories returns the distinct non-empty top categories, sorted.
func Categories(all []score.BrandMetrics) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range all {
		if m.TopCategory == "" || seen[m.TopCategory] {
			continue
		}
		seen[m.TopCategory] = true
		out = append(out, m.TopCategory)
	}
	sort.Strings(out)
	return out
}

// Movers returns rows whose rank moved by at least threshold places, largest
// moves first.
func Movers(rows []Row, threshold int) []Row {
	if threshold < 1 {
		threshold = 1
	}
	var out []Row
	for _, r := range rows {
		if r.RankChange != nil && abs(*r.RankChange) >= threshold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return abs(*out[i].RankChange) > abs(*out[j].RankChange)
	})
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
