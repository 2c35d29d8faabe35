// Package views derives the community-level aggregate and the enriched crime
// dataset from a snapshot of the base tables.
package views

import (
	"slices"
	"strings"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
)

// Placeholders for categorical fields missing from a crime record.
const (
	MissingCaseNumber  = "N/A"
	MissingPrimaryType = "UNKNOWN"
	MissingDescription = "No description"
	UnknownCommunity   = "Unknown"
)

// nullableFloat is a comparable stand-in for *float64 in grouping keys.
type nullableFloat struct {
	valid bool
	v     float64
}

func toKey(f *float64) nullableFloat {
	if f == nil {
		return nullableFloat{}
	}
	return nullableFloat{valid: true, v: *f}
}

func (n nullableFloat) ptr() *float64 {
	if !n.valid {
		return nil
	}
	v := n.v
	return &v
}

type aggregateKey struct {
	id       int64
	name     string
	hardship nullableFloat
	poverty  nullableFloat
}

type aggregateAcc struct {
	key     aggregateKey
	order   int
	schools int
	sum     float64
	scored  int
}

// BuildCommunityAggregate joins census rows to schools on community area.
//
// Census rows without a usable identifier or with a blank name are dropped.
// Rows are grouped on (id, name, hardship, poverty), so identical descriptive
// fields under different ids stay separate. The result is ordered by id.
func BuildCommunityAggregate(snap *model.Snapshot) []model.CommunityAggregate {
	if snap == nil || len(snap.Census) == 0 {
		return []model.CommunityAggregate{}
	}

	schoolsByArea := make(map[int64][]*float64)
	for _, s := range snap.Schools {
		if s.CommunityID == nil {
			continue
		}
		schoolsByArea[*s.CommunityID] = append(schoolsByArea[*s.CommunityID], s.SafetyScore)
	}

	groups := make(map[aggregateKey]*aggregateAcc)
	var ordered []*aggregateAcc
	for _, c := range snap.Census {
		if c.CommunityID == nil || c.Name == nil || strings.TrimSpace(*c.Name) == "" {
			continue
		}
		key := aggregateKey{
			id:       *c.CommunityID,
			name:     *c.Name,
			hardship: toKey(c.HardshipIndex),
			poverty:  toKey(c.PovertyRate),
		}
		acc, ok := groups[key]
		if !ok {
			acc = &aggregateAcc{key: key, order: len(ordered)}
			groups[key] = acc
			ordered = append(ordered, acc)
		}
		for _, score := range schoolsByArea[key.id] {
			acc.schools++
			if score != nil {
				acc.sum += *score
				acc.scored++
			}
		}
	}

	slices.SortStableFunc(ordered, func(a, b *aggregateAcc) int {
		switch {
		case a.key.id < b.key.id:
			return -1
		case a.key.id > b.key.id:
			return 1
		}
		return a.order - b.order
	})

	out := make([]model.CommunityAggregate, 0, len(ordered))
	for _, acc := range ordered {
		row := model.CommunityAggregate{
			CommunityID:   acc.key.id,
			Name:          acc.key.name,
			HardshipIndex: acc.key.hardship.ptr(),
			PovertyRate:   acc.key.poverty.ptr(),
			SchoolCount:   acc.schools,
		}
		if acc.scored > 0 {
			avg := acc.sum / float64(acc.scored)
			row.AvgSafetyScore = &avg
		}
		out = append(out, row)
	}
	return out
}

// BuildEnrichedCrime attaches community context to every crime that carries a
// community area. Crimes with no area are dropped; crimes whose area matches
// no census row are kept with an "Unknown" name and nil context. When the
// census has duplicate ids the first row wins. Snapshot order is preserved.
func BuildEnrichedCrime(snap *model.Snapshot) []model.EnrichedCrime {
	if snap == nil || len(snap.Crimes) == 0 {
		return []model.EnrichedCrime{}
	}

	census := make(map[int64]model.CommunityRecord, len(snap.Census))
	for _, c := range snap.Census {
		if c.CommunityID == nil {
			continue
		}
		if _, seen := census[*c.CommunityID]; !seen {
			census[*c.CommunityID] = c
		}
	}

	out := make([]model.EnrichedCrime, 0, len(snap.Crimes))
	for _, cr := range snap.Crimes {
		if cr.CommunityID == nil {
			continue
		}
		row := model.EnrichedCrime{
			CrimeID:       cr.CrimeID,
			CaseNumber:    orDefault(cr.CaseNumber, MissingCaseNumber),
			PrimaryType:   orDefault(cr.PrimaryType, MissingPrimaryType),
			Description:   orDefault(cr.Description, MissingDescription),
			CommunityID:   *cr.CommunityID,
			CommunityName: UnknownCommunity,
			Year:          cr.Year,
		}
		if c, ok := census[*cr.CommunityID]; ok {
			row.CommunityName = orDefault(c.Name, UnknownCommunity)
			row.PerCapitaIncome = c.PerCapitaIncome
			row.PovertyRate = c.PovertyRate
			row.HardshipIndex = c.HardshipIndex
		}
		out = append(out, row)
	}
	return out
}

func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
