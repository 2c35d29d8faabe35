package dashboard

import (
	"cmp"
	"slices"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/segment"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/stats"
)

// Correlation labels, in matrix order.
const (
	LabelHardship = "hardship_index"
	LabelPoverty  = "poverty_rate"
	LabelSafety   = "avg_safety_score"
)

// FilterOptions lists selectable filter values and the threshold bounds.
// Bounds come from the unfiltered crime view.
type FilterOptions struct {
	Communities []string               `json:"communities"`
	CrimeTypes  []string               `json:"crime_types"`
	Threshold   segment.ThresholdRange `json:"threshold"`
}

// KPIs are the headline metrics for the filtered view. Averages are null
// when no value contributes.
type KPIs struct {
	Communities    int      `json:"communities"`
	AvgHardship    *float64 `json:"avg_hardship_index"`
	AvgPoverty     *float64 `json:"avg_poverty_rate"`
	AvgSafety      *float64 `json:"avg_safety_score"`
	LowIncomeShare *float64 `json:"low_income_crime_share"`
}

// Overview holds every dashboard panel. When Available is false one of the
// base views is empty and only the options are populated.
type Overview struct {
	Version   int64         `json:"version"`
	Available bool          `json:"available"`
	Filter    Filter        `json:"filter"`
	Options   FilterOptions `json:"options"`
	KPIs      KPIs          `json:"kpis"`

	// Communities with hardship, poverty and safety all known, by hardship descending.
	Socio       []model.CommunityAggregate `json:"socio"`
	Correlation stats.Matrix               `json:"correlation"`

	FilteredCrimes int                   `json:"filtered_crimes"`
	Comparison     segment.Comparison    `json:"comparison"`
	Share          []segment.Share       `json:"share"`
	Hotspots       segment.HotspotReport `json:"hotspots"`
}

func (s *Service) buildOverview(version int64, aggs []model.CommunityAggregate, crimes []model.EnrichedCrime, f Filter) *Overview {
	opts := buildOptions(aggs, crimes)
	if f.Threshold == nil {
		def := opts.Threshold.Default
		f.Threshold = &def
	}
	if f.TopN <= 0 {
		f.TopN = s.opts.TopN
	}

	ov := &Overview{
		Version: version,
		Filter:  f,
		Options: *opts,
		Socio:   []model.CommunityAggregate{},
		Share:   []segment.Share{},
	}
	ov.Comparison.Counts = []segment.TypeCount{}
	ov.Comparison.Types = []string{}
	ov.Hotspots.Rows = []segment.Hotspot{}
	if len(aggs) == 0 || len(crimes) == 0 {
		return ov
	}
	ov.Available = true

	fAggs, fCrimes := applyFilter(aggs, crimes, f)
	threshold := *f.Threshold

	ov.KPIs = kpis(fAggs, fCrimes, threshold)
	ov.Socio, ov.Correlation = socio(fAggs)

	tagged := segment.ByIncome(fCrimes, threshold)
	ov.FilteredCrimes = len(tagged)
	ov.Comparison = segment.CompareCrimeTypes(tagged, f.TopN)
	ov.Share = segment.SegmentShare(tagged)
	ov.Hotspots = segment.Hotspots(tagged, s.opts.HotspotLimit)
	return ov
}

func applyFilter(aggs []model.CommunityAggregate, crimes []model.EnrichedCrime, f Filter) ([]model.CommunityAggregate, []model.EnrichedCrime) {
	if len(f.Communities) == 0 && len(f.CrimeTypes) == 0 {
		return aggs, crimes
	}
	inCommunities := func(name string) bool {
		return len(f.Communities) == 0 || slices.Contains(f.Communities, name)
	}
	inTypes := func(typ string) bool {
		return len(f.CrimeTypes) == 0 || slices.Contains(f.CrimeTypes, typ)
	}

	outAggs := make([]model.CommunityAggregate, 0, len(aggs))
	for _, a := range aggs {
		if inCommunities(a.Name) {
			outAggs = append(outAggs, a)
		}
	}
	outCrimes := make([]model.EnrichedCrime, 0, len(crimes))
	for _, c := range crimes {
		if inCommunities(c.CommunityName) && inTypes(c.PrimaryType) {
			outCrimes = append(outCrimes, c)
		}
	}
	return outAggs, outCrimes
}

func kpis(aggs []model.CommunityAggregate, crimes []model.EnrichedCrime, threshold float64) KPIs {
	names := make(map[string]struct{}, len(aggs))
	hardship := make([]*float64, len(aggs))
	poverty := make([]*float64, len(aggs))
	safety := make([]*float64, len(aggs))
	for i, a := range aggs {
		names[a.Name] = struct{}{}
		hardship[i] = a.HardshipIndex
		poverty[i] = a.PovertyRate
		safety[i] = a.AvgSafetyScore
	}

	k := KPIs{
		Communities: len(names),
		AvgHardship: stats.Mean(hardship),
		AvgPoverty:  stats.Mean(poverty),
		AvgSafety:   stats.Mean(safety),
	}

	var known, low int
	for _, c := range crimes {
		if c.PerCapitaIncome == nil {
			continue
		}
		known++
		if *c.PerCapitaIncome <= threshold {
			low++
		}
	}
	if known > 0 {
		share := 100 * float64(low) / float64(known)
		k.LowIncomeShare = &share
	}
	return k
}

func socio(aggs []model.CommunityAggregate) ([]model.CommunityAggregate, stats.Matrix) {
	rows := make([]model.CommunityAggregate, 0, len(aggs))
	for _, a := range aggs {
		if a.HardshipIndex != nil && a.PovertyRate != nil && a.AvgSafetyScore != nil {
			rows = append(rows, a)
		}
	}
	slices.SortStableFunc(rows, func(a, b model.CommunityAggregate) int {
		return cmp.Compare(*b.HardshipIndex, *a.HardshipIndex)
	})

	cols := make([][]float64, 3)
	for _, r := range rows {
		cols[0] = append(cols[0], *r.HardshipIndex)
		cols[1] = append(cols[1], *r.PovertyRate)
		cols[2] = append(cols[2], *r.AvgSafetyScore)
	}
	return rows, stats.CorrelationMatrix([]string{LabelHardship, LabelPoverty, LabelSafety}, cols)
}
