package detail

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

func intPtr(v int) *int { return &v }

var now = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	m := score.BrandMetrics{
		BrandName:   "7-Eleven",
		TopCategory: "Convenience",
		VisitsYoY:   score.Values{10, 12},
		SpendYoY:    score.Values{10, 12},
		TxnsYoY:     score.Values{10, 12},
		VisitsIndex: score.Values{100, 110},
		SpendIndex:  score.Values{100, 110},
		TxnsIndex:   score.Values{100, 110},
	}

	d := Build(m, nil, now)

	if d.Slug != "7-eleven" {
		t.Errorf("Slug = %q", d.Slug)
	}
	if d.LatestMonth != "Mar '25" {
		t.Errorf("LatestMonth = %q", d.LatestMonth)
	}
	if !reflect.DeepEqual(d.Months, []string{"Feb", "Mar"}) {
		t.Errorf("Months = %v", d.Months)
	}

	growth := d.Score(score.Growth)
	if growth.Current == nil || *growth.Current != 80 || growth.Change == nil || *growth.Change != 5 {
		t.Errorf("growth = %+v", growth)
	}
	if growth.Band != BandPositive {
		t.Errorf("growth band = %s", growth.Band)
	}

	heat := d.Score(score.Heat)
	if heat.Current == nil || *heat.Current != 83 || heat.Change != nil {
		t.Errorf("heat = %+v", heat)
	}

	total := d.Score(score.Total)
	if total.Current == nil || *total.Current != 82 {
		t.Errorf("total = %+v", total)
	}

	visits := d.Metrics[0]
	if visits.YoY == nil || *visits.YoY != 12 {
		t.Errorf("visits yoy = %v", visits.YoY)
	}
	if visits.IndexChange == nil || math.Abs(*visits.IndexChange-10) > 1e-9 {
		t.Errorf("visits index change = %v", visits.IndexChange)
	}
}

func TestBuildEmpty(t *testing.T) {
	d := Build(score.BrandMetrics{BrandName: "Ghost"}, nil, now)
	if d.LatestMonth != "N/A" {
		t.Errorf("LatestMonth = %q", d.LatestMonth)
	}
	for _, s := range d.Scores {
		if s.Current != nil || s.Band != BandNone {
			t.Errorf("%s = %+v, want empty", s.Type, s)
		}
	}
	for _, m := range d.Metrics {
		if m.YoY != nil || m.Index != nil || m.IndexChange != nil {
			t.Errorf("%s = %+v, want empty", m.Name, m)
		}
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		in   *int
		want Band
	}{
		{nil, BandNone},
		{intPtr(0), BandNegative},
		{intPtr(24), BandNegative},
		{intPtr(25), BandWarm},
		{intPtr(50), BandMid},
		{intPtr(74), BandMid},
		{intPtr(75), BandPositive},
		{intPtr(100), BandPositive},
	}
	for _, tt := range tests {
		if got := BandFor(tt.in); got != tt.want {
			t.Errorf("BandFor(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestLastNumbers(t *testing.T) {
	nan := math.NaN()
	v := score.Values{1, 2, nan, 3, nan}

	if got := LastNumbers(v, 2); !reflect.DeepEqual(got, []float64{2, 3}) {
		t.Errorf("LastNumbers(2) = %v", got)
	}
	if got := LastNumbers(v, 10); !reflect.DeepEqual(got, []float64{1, 2, 3}) {
		t.Errorf("LastNumbers(10) = %v", got)
	}
	if got := LastNumbers(v, 0); got != nil {
		t.Errorf("LastNumbers(0) = %v", got)
	}
}

func TestMonthLabel(t *testing.T) {
	tests := []struct {
		n, index int
		want     string
	}{
		{3, -1, "Mar '25"},
		{3, 2, "Mar '25"},
		{3, 0, "Jan '25"},
		{5, 0, "Nov '24"},
		{15, 0, "Jan '24"},
		{3, 3, "N/A"},
		{3, -4, "N/A"},
		{0, -1, "N/A"},
	}
	for _, tt := range tests {
		if got := MonthLabel(tt.n, tt.index, now); got != tt.want {
			t.Errorf("MonthLabel(%d, %d) = %q, want %q", tt.n, tt.index, got, tt.want)
		}
	}

	if got := MonthLabels(4, now); !reflect.DeepEqual(got, []string{"Dec", "Jan", "Feb", "Mar"}) {
		t.Errorf("MonthLabels = %v", got)
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Shell Oil":         "shell-oil",
		"  Dollar General ": "dollar-general",
		"Ben & Jerry's":     "ben-jerry-s",
		"---":               "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}
