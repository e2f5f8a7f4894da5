package score

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
)

var nan = math.NaN()

func assertScores(t *testing.T, label string, got []*int, want []*int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: len = %d, want %d", label, len(got), len(want))
	}
	for i := range want {
		switch {
		case want[i] == nil && got[i] != nil:
			t.Errorf("%s[%d] = %d, want nil", label, i, *got[i])
		case want[i] != nil && got[i] == nil:
			t.Errorf("%s[%d] = nil, want %d", label, i, *want[i])
		case want[i] != nil && *got[i] != *want[i]:
			t.Errorf("%s[%d] = %d, want %d", label, i, *got[i], *want[i])
		}
	}
}

func ints(vals ...any) []*int {
	out := make([]*int, len(vals))
	for i, v := range vals {
		if n, ok := v.(int); ok {
			out[i] = intPtr(n)
		}
	}
	return out
}

func TestGrowthSeries(t *testing.T) {
	m := BrandMetrics{
		BrandName: "Acme",
		VisitsYoY: Values{10, 12, -5},
		SpendYoY:  Values{10, 12, -5},
		TxnsYoY:   Values{10, 12, -5},
	}

	s := Compute(m, Growth)
	assertScores(t, "scores", s.Scores, ints(75, 80, 38))
	assertScores(t, "changes", s.Changes, ints(nil, 5, -42))
}

func TestGrowthMissingMetricIsNull(t *testing.T) {
	m := BrandMetrics{
		VisitsYoY: Values{10, nan, 30},
		SpendYoY:  Values{10, 5, 30},
		TxnsYoY:   Values{10, 5, 30},
	}

	s := Compute(m, Growth)
	assertScores(t, "scores", s.Scores, ints(75, nil, 100))
	assertScores(t, "changes", s.Changes, ints(nil, nil, nil))
}

func TestHeatSeries(t *testing.T) {
	m := BrandMetrics{
		VisitsIndex: Values{100, 110, 0, 5, 0},
		SpendIndex:  Values{100, 110, 0, 5, 0},
		TxnsIndex:   Values{100, 110, 0, 5, 0},
	}

	s := Compute(m, Heat)
	// 110 vs 100 is +10% -> 83; 0 vs 110 is -100% -> 0;
	// 5 vs 0 is unbounded growth -> capped -> 100; 0 vs 5 is -100% -> 0.
	assertScores(t, "scores", s.Scores, ints(nil, 83, 0, 100, 0))
	assertScores(t, "changes", s.Changes, ints(nil, nil, -83, 100, -100))
}

func TestHeatFlatFromZero(t *testing.T) {
	m := BrandMetrics{
		VisitsIndex: Values{0, 0},
		SpendIndex:  Values{0, -3},
		TxnsIndex:   Values{0, 0},
	}

	s := Compute(m, Heat)
	assertScores(t, "scores", s.Scores, ints(nil, 50))
}

func TestHeatFirstMonthAlwaysNull(t *testing.T) {
	inputs := []BrandMetrics{
		{VisitsIndex: Values{1}, SpendIndex: Values{1}, TxnsIndex: Values{1}},
		{VisitsIndex: Values{5, 6, 7}, SpendIndex: Values{5, 6, 7}, TxnsIndex: Values{5, 6, 7}},
		{VisitsYoY: Values{1, 2}, VisitsIndex: Values{0, 1}, SpendIndex: Values{0, 1}, TxnsIndex: Values{0, 1}},
	}
	for _, m := range inputs {
		s := Compute(m, Heat)
		if s.Len() == 0 || s.Scores[0] != nil {
			t.Fatalf("heat[0] should be nil, got %+v", s.Scores)
		}
	}
}

func TestTotalSeries(t *testing.T) {
	m := BrandMetrics{
		VisitsYoY:   Values{10, 12, nan},
		SpendYoY:    Values{10, 12, 0},
		TxnsYoY:     Values{10, 12, 0},
		VisitsIndex: Values{100, 110, 110},
		SpendIndex:  Values{100, 110, 110},
		TxnsIndex:   Values{100, 110, 110},
	}

	set := NewCalculator(DefaultParams(), zap.NewNop()).ComputeAll(m)
	assertScores(t, "growth", set.Growth.Scores, ints(75, 80, nil))
	assertScores(t, "heat", set.Heat.Scores, ints(nil, 83, 50))
	// (80 + 83) / 2 = 81.5 rounds to 82.
	assertScores(t, "total", set.Total.Scores, ints(nil, 82, nil))

	direct := Compute(m, Total)
	assertScores(t, "direct total", direct.Scores, set.Total.Scores)

	for i := range set.Total.Scores {
		defined := set.Growth.Scores[i] != nil && set.Heat.Scores[i] != nil
		if (set.Total.Scores[i] != nil) != defined {
			t.Errorf("total[%d] defined = %v, want %v", i, set.Total.Scores[i] != nil, defined)
		}
	}
}

func TestSeriesLengthsMatchLongestInput(t *testing.T) {
	m := BrandMetrics{
		VisitsYoY:   Values{1, 2},
		SpendYoY:    Values{1, 2, 3, 4},
		TxnsIndex:   Values{1},
		VisitsIndex: Values{1, 2, 3, 4, 5},
	}

	for _, typ := range AllTypes() {
		s := Compute(m, typ)
		if s.Len() != 5 || len(s.Changes) != 5 {
			t.Errorf("%s: lengths %d/%d, want 5", typ, s.Len(), len(s.Changes))
		}
		if s.Changes[0] != nil {
			t.Errorf("%s: changes[0] should be nil", typ)
		}
	}
}

func TestEmptyMetrics(t *testing.T) {
	s := Compute(BrandMetrics{BrandName: "Empty"}, Total)
	if s.Len() != 0 || len(s.Changes) != 0 {
		t.Fatalf("expected empty series, got %+v", s)
	}
	if s.Latest() != nil || s.Previous() != nil || s.LatestChange() != nil {
		t.Fatal("accessors on empty series should be nil")
	}
}

func TestShorterSeriesAreRightAligned(t *testing.T) {
	m := BrandMetrics{
		VisitsYoY: Values{-20, 10, 10},
		SpendYoY:  Values{10, 10},
		TxnsYoY:   Values{10, 10},
	}

	s := Compute(m, Growth)
	assertScores(t, "scores", s.Scores, ints(nil, 75, 75))
}

func TestUnknownTypeYieldsNullSeries(t *testing.T) {
	m := BrandMetrics{VisitsYoY: Values{1, 2, 3}}
	s := Compute(m, Type("velocity"))
	assertScores(t, "scores", s.Scores, ints(nil, nil, nil))
}

func TestComputationFaultIsConfinedToOneMonth(t *testing.T) {
	c := NewCalculator(DefaultParams(), zap.NewNop())
	m := BrandMetrics{BrandName: "Faulty", VisitsYoY: Values{1, 2, 3, 4}}

	s := c.build(m, Growth, func(_ BrandMetrics, i int) *int {
		if i == 2 {
			var values []int
			_ = values[i]
		}
		return intPtr(10 * i)
	})

	assertScores(t, "scores", s.Scores, ints(0, 10, nil, 30))
	assertScores(t, "changes", s.Changes, ints(nil, 10, nil, nil))
}

func TestChangesInvariant(t *testing.T) {
	m := BrandMetrics{
		VisitsYoY: Values{1, nan, 3, 4, 5, nan},
		SpendYoY:  Values{1, 2, 3, 4, 5, 6},
		TxnsYoY:   Values{1, 2, 3, 4, 5, 6},
	}
	s := Compute(m, Growth)
	for i := 1; i < s.Len(); i++ {
		want := s.Scores[i] != nil && s.Scores[i-1] != nil
		if (s.Changes[i] != nil) != want {
			t.Fatalf("changes[%d] defined = %v, want %v", i, s.Changes[i] != nil, want)
		}
		if want && *s.Changes[i] != *s.Scores[i]-*s.Scores[i-1] {
			t.Fatalf("changes[%d] = %d, want %d", i, *s.Changes[i], *s.Scores[i]-*s.Scores[i-1])
		}
	}
}

func TestCustomParams(t *testing.T) {
	p := DefaultParams()
	p.TotalGrowthWeight, p.TotalHeatWeight = 0.6, 0.4
	c := NewCalculator(p, nil)

	m := BrandMetrics{
		VisitsYoY:   Values{0, 20},
		SpendYoY:    Values{0, 20},
		TxnsYoY:     Values{0, 20},
		VisitsIndex: Values{10, 10},
		SpendIndex:  Values{10, 10},
		TxnsIndex:   Values{10, 10},
	}
	s := c.Compute(m, Total)
	// growth 100, heat 50 -> 0.6*100 + 0.4*50 = 80.
	assertScores(t, "total", s.Scores, ints(nil, 80))
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"growth", "HEAT", " total "} {
		if _, err := ParseType(name); err != nil {
			t.Errorf("ParseType(%q): %v", name, err)
		}
	}
	if _, err := ParseType("velocity"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("expected ErrUnknownType, got %v", err)
	}
}

func TestValuesUnmarshal(t *testing.T) {
	var m BrandMetrics
	doc := `{
		"brand_name": "Acme",
		"visits_yoy_array": [1.5, "2.5", "", null, "n/a", true, " 7 "],
		"spend_yoy_array": null,
		"txns_yoy_array": "oops"
	}`
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []float64{1.5, 2.5, nan, nan, nan, nan, 7}
	if len(m.VisitsYoY) != len(want) {
		t.Fatalf("len = %d, want %d", len(m.VisitsYoY), len(want))
	}
	for i, w := range want {
		got := m.VisitsYoY[i]
		if math.IsNaN(w) != math.IsNaN(got) || (!math.IsNaN(w) && got != w) {
			t.Errorf("visits[%d] = %v, want %v", i, got, w)
		}
	}
	if len(m.SpendYoY) != 0 || len(m.TxnsYoY) != 0 {
		t.Errorf("non-array sequences should decode empty, got %v / %v", m.SpendYoY, m.TxnsYoY)
	}

	out, err := json.Marshal(m.VisitsYoY)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[1.5,2.5,null,null,null,null,7]" {
		t.Errorf("marshal = %s", out)
	}
}
