// Package segment classifies enriched crimes into income segments and ranks
// categorical values by frequency.
package segment

import (
	"math"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/stats"
)

// Segment is the income classification of a record.
type Segment string

const (
	Low     Segment = "Low"
	High    Segment = "High"
	Unknown Segment = "Unknown"
)

// Label is the display name used by the dashboard.
func (s Segment) Label() string {
	switch s {
	case Low:
		return "Low Income Areas"
	case High:
		return "High Income Areas"
	default:
		return "Unknown / Missing Income"
	}
}

// Classify returns Unknown for a nil income, Low when income <= threshold
// and High otherwise. The threshold is not validated.
func Classify(income *float64, threshold float64) Segment {
	if income == nil {
		return Unknown
	}
	if *income <= threshold {
		return Low
	}
	return High
}

// Tagged is an enriched crime with its income segment.
type Tagged struct {
	model.EnrichedCrime
	Segment Segment `json:"income_segment"`
}

// ByIncome tags every record with its segment for the given threshold.
func ByIncome(records []model.EnrichedCrime, threshold float64) []Tagged {
	out := make([]Tagged, len(records))
	for i, r := range records {
		out[i] = Tagged{EnrichedCrime: r, Segment: Classify(r.PerCapitaIncome, threshold)}
	}
	return out
}

// Known returns the records classified Low or High.
func Known(records []Tagged) []Tagged {
	out := make([]Tagged, 0, len(records))
	for _, r := range records {
		if r.Segment != Unknown {
			out = append(out, r)
		}
	}
	return out
}

// ThresholdRange bounds an income threshold selector over the data.
type ThresholdRange struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// DefaultThreshold derives selector bounds from the known incomes: whole-dollar
// min and max, the median as the default, and a step of at least 100. With no
// known income it falls back to 0..10000 around 5000.
func DefaultThreshold(records []model.EnrichedCrime) ThresholdRange {
	incomes := make([]*float64, len(records))
	for i, r := range records {
		incomes[i] = r.PerCapitaIncome
	}
	known := stats.Known(incomes)
	if len(known) == 0 {
		return ThresholdRange{Min: 0, Max: 10000, Default: 5000, Step: 100}
	}

	lo, hi := known[0], known[0]
	for _, v := range known[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	r := ThresholdRange{
		Min:     math.Trunc(lo),
		Max:     math.Trunc(hi),
		Default: math.Trunc(*stats.Median(known)),
	}
	if r.Min == r.Max {
		r.Max = r.Min + 1
	}
	r.Step = math.Max(100, math.Floor((r.Max-r.Min)/100))
	return r
}
