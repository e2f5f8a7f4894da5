package rank

import (
	"testing"

	"github.com/jamespassby/retail-dashboard-final/pkg/score"
)

func withIndex(m score.BrandMetrics, index ...float64) score.BrandMetrics {
	v := score.Values(index)
	m.VisitsIndex, m.SpendIndex, m.TxnsIndex = v, v, v
	return m
}

func TestHighlights(t *testing.T) {
	all := []score.BrandMetrics{
		// Steady growth 50 every month: zero variance never qualifies.
		withIndex(brand("Flat", "Grocery", 0, 0, 0, 0), 100, 100, 100, 100),
		// Latest heat 83 (+10% month over month).
		withIndex(brand("Hot", "Fuel", 0, 20, -20, 0), 100, 100, 100, 110),
		// Small wobble in growth: 50, 53, 50, 53.
		withIndex(brand("Steady", "Fuel", 0, 1, 0, 1), 100, 100, 100, 100),
		// Same latest heat as Hot, but later in the list.
		withIndex(brand("AlsoHot", "Fuel", 0, 0, 0, 0), 100, 100, 100, 110),
	}

	h := NewAggregator(nil).Highlights(all)
	if h.Hottest == nil || h.Hottest.BrandName != "Hot" {
		t.Fatalf("Hottest = %+v, want Hot", h.Hottest)
	}
	if h.MostConsistent == nil || h.MostConsistent.BrandName != "Steady" {
		t.Fatalf("MostConsistent = %+v, want Steady", h.MostConsistent)
	}
}

func TestHighlightsFallback(t *testing.T) {
	all := []score.BrandMetrics{
		brand("One", "Grocery", 0),
		brand("Two", "Grocery", 0),
	}

	h := NewAggregator(nil).Highlights(all)
	if h.Hottest != nil {
		t.Errorf("Hottest = %+v, want nil (no heat history)", h.Hottest)
	}
	if h.MostConsistent == nil || h.MostConsistent.BrandName != "Two" {
		t.Errorf("MostConsistent = %+v, want fallback to second brand", h.MostConsistent)
	}

	if got := NewAggregator(nil).Highlights(all[:1]); got.MostConsistent != nil {
		t.Errorf("single brand should have no fallback, got %+v", got.MostConsistent)
	}
}

func TestRecentVariance(t *testing.T) {
	s := score.Series{Scores: []*int{intPtr(100), intPtr(0), intPtr(10), nil, intPtr(20), intPtr(30), intPtr(10), intPtr(20)}}
	// Window keeps the last six: 10, nil, 20, 30, 10, 20 -> mean 18, variance 56.
	v, ok := recentVariance(s)
	if !ok {
		t.Fatal("expected enough scores")
	}
	if v != 56 {
		t.Fatalf("variance = %v, want 56", v)
	}

	if _, ok := recentVariance(score.Series{Scores: []*int{intPtr(1), nil, intPtr(2)}}); ok {
		t.Fatal("two scores should not be enough")
	}
}
