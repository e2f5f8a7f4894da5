package score

import (
	"errors"
	"fmt"
	"math"
)

// Weights splits a composite score across the three activity metrics.
type Weights struct {
	Visits float64
	Spend  float64
	Txns   float64
}

func (w Weights) sum() float64 {
	return w.Visits + w.Spend + w.Txns
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (w Weights) validate(name string) error {
	if !finite(w.Visits, w.Spend, w.Txns) {
		return fmt.Errorf("%s weights must be finite", name)
	}
	if w.Visits < 0 || w.Spend < 0 || w.Txns < 0 {
		return fmt.Errorf("%s weights must not be negative", name)
	}
	if w.sum() <= 0 {
		return fmt.Errorf("%s weights must sum to a positive value", name)
	}
	return nil
}

// Params are the tunable constants of the scoring formulas.
type Params struct {
	GrowthRange   Range
	GrowthWeights Weights

	HeatRange   Range
	HeatWeights Weights
	// HeatCap bounds an infinite month-over-month change (growth from a zero
	// index) before normalization.
	HeatCap float64

	TotalGrowthWeight float64
	TotalHeatWeight   float64
}

// DefaultParams returns the production scoring constants.
func DefaultParams() Params {
	return Params{
		GrowthRange:       Range{Min: -20, Max: 20},
		GrowthWeights:     Weights{Visits: 0.4, Spend: 0.4, Txns: 0.2},
		HeatRange:         Range{Min: -15, Max: 15},
		HeatWeights:       Weights{Visits: 0.35, Spend: 0.40, Txns: 0.25},
		HeatCap:           200,
		TotalGrowthWeight: 0.5,
		TotalHeatWeight:   0.5,
	}
}

// Validate reports the first inconsistent constant.
func (p Params) Validate() error {
	if !finite(p.GrowthRange.Min, p.GrowthRange.Max) {
		return errors.New("growth range must be finite")
	}
	if !finite(p.HeatRange.Min, p.HeatRange.Max) {
		return errors.New("heat range must be finite")
	}
	if p.GrowthRange.Min >= p.GrowthRange.Max {
		return errors.New("growth range min must be below max")
	}
	if p.HeatRange.Min >= p.HeatRange.Max {
		return errors.New("heat range min must be below max")
	}
	if err := p.GrowthWeights.validate("growth"); err != nil {
		return err
	}
	if err := p.HeatWeights.validate("heat"); err != nil {
		return err
	}
	if !finite(p.HeatCap) || p.HeatCap <= 0 {
		return errors.New("heat cap must be positive")
	}
	if !finite(p.TotalGrowthWeight, p.TotalHeatWeight) {
		return errors.New("total weights must be finite")
	}
	if p.TotalGrowthWeight < 0 || p.TotalHeatWeight < 0 || p.TotalGrowthWeight+p.TotalHeatWeight <= 0 {
		return errors.New("total weights must be non-negative with a positive sum")
	}
	return nil
}
