package segment

// TypeCount is the number of incidents of one crime type in one segment.
type TypeCount struct {
	Segment     Segment `json:"segment"`
	PrimaryType string  `json:"primary_type"`
	Count       int     `json:"count"`
}

// Comparison is a segment by crime type cross tabulation restricted to the
// most frequent types. Types outside the top N are dropped entirely.
type Comparison struct {
	Types  []string    `json:"types"`
	Counts []TypeCount `json:"counts"`
}

type segmentType struct {
	seg Segment
	typ string
}

// CompareCrimeTypes counts Low and High incidents per crime type for the n
// types with the largest combined count. Unknown records are ignored.
func CompareCrimeTypes(records []Tagged, n int) Comparison {
	known := Known(records)
	top := Values(TopNByFrequency(known, func(r Tagged) string { return r.PrimaryType }, n))
	cmp := Comparison{Types: top, Counts: []TypeCount{}}
	if len(top) == 0 {
		return cmp
	}

	counts := GroupCount(known, func(r Tagged) segmentType {
		return segmentType{seg: r.Segment, typ: r.PrimaryType}
	})
	for _, typ := range top {
		for _, seg := range []Segment{Low, High} {
			if c := counts[segmentType{seg: seg, typ: typ}]; c > 0 {
				cmp.Counts = append(cmp.Counts, TypeCount{Segment: seg, PrimaryType: typ, Count: c})
			}
		}
	}
	return cmp
}

// Share is a segment's portion of the Low and High incidents, in percent.
type Share struct {
	Segment Segment `json:"segment"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// SegmentShare splits the Low and High incidents by segment. It is empty
// when no record has a known income.
func SegmentShare(records []Tagged) []Share {
	counts := GroupCount(records, func(r Tagged) Segment { return r.Segment })
	total := counts[Low] + counts[High]
	if total == 0 {
		return []Share{}
	}
	out := make([]Share, 0, 2)
	for _, seg := range []Segment{Low, High} {
		if c := counts[seg]; c > 0 {
			out = append(out, Share{Segment: seg, Count: c, Percent: 100 * float64(c) / float64(total)})
		}
	}
	return out
}

// Hotspot is the incident count of one community in one segment.
type Hotspot struct {
	CommunityName string  `json:"community_name"`
	Segment       Segment `json:"segment"`
	Count         int     `json:"count"`
}

// HotspotReport ranks community and segment pairs by incident count.
// Unknown-income incidents are left out and counted separately.
type HotspotReport struct {
	Rows            []Hotspot `json:"rows"`
	ExcludedUnknown int       `json:"excluded_unknown"`
}

// DefaultHotspotLimit is the number of hotspots reported by default.
const DefaultHotspotLimit = 15

type communitySegment struct {
	name string
	seg  Segment
}

// Hotspots returns at most limit community and segment pairs, busiest first.
func Hotspots(records []Tagged, limit int) HotspotReport {
	rep := HotspotReport{Rows: []Hotspot{}}
	for _, r := range records {
		if r.Segment == Unknown {
			rep.ExcludedUnknown++
		}
	}
	ranked := TopNByFrequency(Known(records), func(r Tagged) communitySegment {
		return communitySegment{name: r.CommunityName, seg: r.Segment}
	}, limit)
	for _, r := range ranked {
		rep.Rows = append(rep.Rows, Hotspot{CommunityName: r.Value.name, Segment: r.Value.seg, Count: r.Count})
	}
	return rep
}
