package score

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Type selects which health score a series holds.
type Type string

const (
	Growth Type = "growth"
	Heat   Type = "heat"
	Total  Type = "total"
)

// ErrUnknownType is returned by ParseType for names outside growth/heat/total.
var ErrUnknownType = errors.New("unknown score type")

// AllTypes returns the score types in display order.
func AllTypes() []Type {
	return []Type{Growth, Heat, Total}
}

// ParseType converts a user-supplied name into a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Growth, Heat, Total:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// Series is a monthly score sequence aligned with the input months.
// Scores are 0-100 or nil; Changes[i] is Scores[i]-Scores[i-1] when both
// exist, otherwise nil.
type Series struct {
	Scores  []*int `json:"scores"`
	Changes []*int `json:"changes"`
}

// Len returns the number of months in the series.
func (s Series) Len() int { return len(s.Scores) }

// Latest returns the most recent score.
func (s Series) Latest() *int { return s.at(len(s.Scores) - 1) }

// Previous returns the score one month before the most recent.
func (s Series) Previous() *int { return s.at(len(s.Scores) - 2) }

// LatestChange returns the most recent month-over-month change.
func (s Series) LatestChange() *int {
	if len(s.Changes) == 0 {
		return nil
	}
	return s.Changes[len(s.Changes)-1]
}

func (s Series) at(i int) *int {
	if i < 0 || i >= len(s.Scores) {
		return nil
	}
	return s.Scores[i]
}

// Set bundles the three series computed for one brand.
type Set struct {
	Growth Series `json:"growth"`
	Heat   Series `json:"heat"`
	Total  Series `json:"total"`
}

// Get returns the series for t.
func (s Set) Get(t Type) Series {
	switch t {
	case Growth:
		return s.Growth
	case Heat:
		return s.Heat
	case Total:
		return s.Total
	}
	return Series{}
}

// Calculator turns raw brand metrics into score series. It holds no state
// between calls and is safe for concurrent use.
type Calculator struct {
	params Params
	logger *zap.Logger
}

// NewCalculator creates a calculator. A nil logger disables fault logging.
func NewCalculator(params Params, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{params: params, logger: logger}
}

var defaultCalculator = NewCalculator(DefaultParams(), nil)

// Compute runs the default calculator.
func Compute(m BrandMetrics, t Type) Series {
	return defaultCalculator.Compute(m, t)
}

// Params returns the constants the calculator scores with.
func (c *Calculator) Params() Params { return c.params }

type scoreFunc func(m BrandMetrics, i int) *int

// Compute returns the series of type t for m. It never fails: months that
// cannot be scored are nil.
func (c *Calculator) Compute(m BrandMetrics, t Type) Series {
	a := m.Aligned()
	switch t {
	case Growth:
		return c.build(a, Growth, c.growthAt)
	case Heat:
		return c.build(a, Heat, c.heatAt)
	case Total:
		growth := c.build(a, Growth, c.growthAt)
		heat := c.build(a, Heat, c.heatAt)
		return c.build(a, Total, c.totalFrom(growth, heat))
	}
	c.logger.Warn("unknown score type", zap.String("brand", m.BrandName), zap.String("type", string(t)))
	return c.build(a, t, func(BrandMetrics, int) *int { return nil })
}

// ComputeAll returns growth, heat and total for m, deriving total from the
// same growth and heat series.
func (c *Calculator) ComputeAll(m BrandMetrics) Set {
	a := m.Aligned()
	growth := c.build(a, Growth, c.growthAt)
	heat := c.build(a, Heat, c.heatAt)
	return Set{
		Growth: growth,
		Heat:   heat,
		Total:  c.build(a, Total, c.totalFrom(growth, heat)),
	}
}

func (c *Calculator) build(m BrandMetrics, t Type, at scoreFunc) Series {
	n := m.Length()
	s := Series{Scores: make([]*int, n), Changes: make([]*int, n)}
	for i := 0; i < n; i++ {
		s.Scores[i] = c.safeAt(m, t, i, at)
		if i > 0 && s.Scores[i] != nil && s.Scores[i-1] != nil {
			s.Changes[i] = intPtr(*s.Scores[i] - *s.Scores[i-1])
		}
	}
	return s
}

// safeAt confines a fault to the month being scored.
func (c *Calculator) safeAt(m BrandMetrics, t Type, i int, at scoreFunc) (score *int) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("score computation failed",
				zap.String("brand", m.BrandName),
				zap.String("type", string(t)),
				zap.Int("index", i),
				zap.Any("panic", r))
			score = nil
		}
	}()
	return at(m, i)
}

func (c *Calculator) growthAt(m BrandMetrics, i int) *int {
	r := c.params.GrowthRange
	visits := r.Normalize(m.VisitsYoY.At(i))
	spend := r.Normalize(m.SpendYoY.At(i))
	txns := r.Normalize(m.TxnsYoY.At(i))
	if visits == nil || spend == nil || txns == nil {
		return nil
	}
	return weigh(c.params.GrowthWeights, *visits, *spend, *txns)
}

func (c *Calculator) heatAt(m BrandMetrics, i int) *int {
	if i == 0 {
		return nil
	}
	visits, ok1 := c.momChange(m.VisitsIndex, i)
	spend, ok2 := c.momChange(m.SpendIndex, i)
	txns, ok3 := c.momChange(m.TxnsIndex, i)
	if !ok1 || !ok2 || !ok3 {
		return nil
	}

	r := c.params.HeatRange
	nv, ns, nt := r.Normalize(visits), r.Normalize(spend), r.Normalize(txns)
	if nv == nil || ns == nil || nt == nil {
		return nil
	}
	return weigh(c.params.HeatWeights, *nv, *ns, *nt)
}

// momChange returns the percentage change of v between month i-1 and i,
// capped to ±HeatCap when the change is unbounded.
func (c *Calculator) momChange(v Values, i int) (float64, bool) {
	curr, prev := v.At(i), v.At(i-1)
	if math.IsNaN(curr) || math.IsNaN(prev) {
		return 0, false
	}

	var change float64
	switch {
	case prev != 0:
		change = (curr - prev) / prev * 100
	case curr > 0:
		change = math.Inf(1)
	}

	if math.IsInf(change, 1) {
		change = c.params.HeatCap
	} else if math.IsInf(change, -1) {
		change = -c.params.HeatCap
	}
	return change, true
}

func (c *Calculator) totalFrom(growth, heat Series) scoreFunc {
	return func(_ BrandMetrics, i int) *int {
		g, h := growth.at(i), heat.at(i)
		if g == nil || h == nil {
			return nil
		}
		v := c.params.TotalGrowthWeight*float64(*g) + c.params.TotalHeatWeight*float64(*h)
		return intPtr(clampScore(v))
	}
}

func weigh(w Weights, visits, spend, txns int) *int {
	v := w.Visits*float64(visits) + w.Spend*float64(spend) + w.Txns*float64(txns)
	return intPtr(clampScore(v))
}
