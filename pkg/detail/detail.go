// Package detail assembles the per-brand detail view: current scores with
// their month-over-month change, the full score history and the latest raw
// activity figures.
package detail

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

// Band classifies a score for display.
type Band string

const (
	BandNone     Band = "none"
	BandNegative Band = "negative"
	BandWarm     Band = "warm"
	BandMid      Band = "mid"
	BandPositive Band = "positive"
)

// BandFor returns the display band of a 0-100 score.
func BandFor(v *int) Band {
	switch {
	case v == nil:
		return BandNone
	case *v >= 75:
		return BandPositive
	case *v >= 50:
		return BandMid
	case *v >= 25:
		return BandWarm
	}
	return BandNegative
}

// Score is the headline figure for one score type.
type Score struct {
	Type    score.Type `json:"type"`
	Current *int       `json:"current"`
	Change  *int       `json:"change"`
	Band    Band       `json:"band"`
}

// Metric is the latest reading of one raw activity metric.
type Metric struct {
	Name  string   `json:"name"`
	YoY   *float64 `json:"yoy"`
	Index *float64 `json:"index"`
	// IndexChange is the percentage change of the index against the previous
	// reading. Nil when there is no usable previous reading.
	IndexChange *float64 `json:"index_change"`
}

// Detail is everything the brand page shows.
type Detail struct {
	BrandName   string    `json:"brand_name"`
	Slug        string    `json:"slug"`
	TopCategory string    `json:"top_category,omitempty"`
	SubCategory string    `json:"sub_category,omitempty"`
	Logo        string    `json:"logo,omitempty"`
	LatestMonth string    `json:"latest_month"`
	Months      []string  `json:"months"`
	Scores      []Score   `json:"scores"`
	Metrics     []Metric  `json:"metrics"`
	Series      score.Set `json:"series"`
}

// Build computes the detail view for m. now anchors month labels: the last
// month of the series is taken to be the month of now.
func Build(m score.BrandMetrics, calc *score.Calculator, now time.Time) Detail {
	if calc == nil {
		calc = score.NewCalculator(score.DefaultParams(), nil)
	}
	set := calc.ComputeAll(m)
	n := m.Length()

	d := Detail{
		BrandName:   m.BrandName,
		Slug:        Slug(m.BrandName),
		TopCategory: m.TopCategory,
		SubCategory: m.SubCategory,
		Logo:        m.Logo,
		LatestMonth: MonthLabel(n, -1, now),
		Months:      MonthLabels(n, now),
		Series:      set,
	}

	for _, t := range score.AllTypes() {
		s := set.Get(t)
		d.Scores = append(d.Scores, Score{
			Type:    t,
			Current: s.Latest(),
			Change:  s.LatestChange(),
			Band:    BandFor(s.Latest()),
		})
	}

	d.Metrics = []Metric{
		metric("visits", m.VisitsYoY, m.VisitsIndex),
		metric("spend", m.SpendYoY, m.SpendIndex),
		metric("transactions", m.TxnsYoY, m.TxnsIndex),
	}
	return d
}

// Score returns the headline score of type t.
func (d Detail) Score(t score.Type) Score {
	for _, s := range d.Scores {
		if s.Type == t {
			return s
		}
	}
	return Score{Type: t, Band: BandNone}
}

func metric(name string, yoy, index score.Values) Metric {
	out := Metric{Name: name}
	if last := LastNumbers(yoy, 1); len(last) == 1 {
		out.YoY = &last[0]
	}

	last := LastNumbers(index, 2)
	if len(last) > 0 {
		out.Index = &last[len(last)-1]
	}
	if len(last) == 2 && last[0] != 0 {
		change := (last[1] - last[0]) / last[0] * 100
		out.IndexChange = &change
	}
	return out
}

// LastNumbers returns up to n of the most recent usable values, skipping
// gaps.
func LastNumbers(v score.Values, n int) []float64 {
	if n <= 0 {
		return nil
	}
	var out []float64
	for i := len(v) - 1; i >= 0 && len(out) < n; i-- {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			continue
		}
		out = append(out, v[i])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MonthLabel names month index of a series of length n whose last month is
// the month of now, e.g. "Mar '25". Negative indexes count from the end.
func MonthLabel(n, index int, now time.Time) string {
	if index < 0 {
		index += n
	}
	if n == 0 || index < 0 || index >= n {
		return "N/A"
	}
	t := monthOffset(now, index-(n-1))
	return fmt.Sprintf("%s '%02d", t.Format("Jan"), t.Year()%100)
}

// MonthLabels names every month of a series of length n, oldest first.
func MonthLabels(n int, now time.Time) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = monthOffset(now, i-(n-1)).Format("Jan")
	}
	return out
}

func monthOffset(now time.Time, months int) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, months, 0)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a brand name into a URL path segment.
func Slug(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
