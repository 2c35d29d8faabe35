package model

import (
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// DecodeCensus converts rows aligned with schema.Census into records.
func DecodeCensus(rows [][]any) []CommunityRecord {
	t := schema.Census
	out := make([]CommunityRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, CommunityRecord{
			CommunityID:       intAt(t, r, schema.CommunityAreaNumber),
			Name:              textAt(t, r, schema.CommunityAreaName),
			HousingCrowded:    floatAt(t, r, schema.HousingCrowded),
			PovertyRate:       floatAt(t, r, schema.BelowPoverty),
			Unemployed:        floatAt(t, r, schema.Unemployed),
			WithoutDiploma:    floatAt(t, r, schema.WithoutDiploma),
			AgedUnder18Over64: floatAt(t, r, schema.AgedUnder18Over64),
			PerCapitaIncome:   floatAt(t, r, schema.PerCapitaIncome),
			HardshipIndex:     floatAt(t, r, schema.HardshipIndex),
		})
	}
	return out
}

// DecodeSchools converts rows aligned with schema.Schools into records.
func DecodeSchools(rows [][]any) []SchoolRecord {
	t := schema.Schools
	out := make([]SchoolRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, SchoolRecord{
			SchoolID:      intAt(t, r, schema.SchoolID),
			Name:          textAt(t, r, schema.SchoolName),
			SchoolType:    textAt(t, r, schema.SchoolType),
			CommunityID:   intAt(t, r, schema.CommunityAreaNumber),
			CommunityName: textAt(t, r, schema.CommunityAreaName),
			SafetyScore:   floatAt(t, r, schema.SafetyScore),
		})
	}
	return out
}

// DecodeCrimes converts rows aligned with schema.Crime into records.
func DecodeCrimes(rows [][]any) []CrimeRecord {
	t := schema.Crime
	out := make([]CrimeRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, CrimeRecord{
			CrimeID:             intAt(t, r, schema.CrimeID),
			CaseNumber:          textAt(t, r, schema.CaseNumber),
			Date:                textAt(t, r, schema.Date),
			PrimaryType:         textAt(t, r, schema.PrimaryType),
			Description:         textAt(t, r, schema.Description),
			LocationDescription: textAt(t, r, schema.LocationDescription),
			CommunityID:         intAt(t, r, schema.CommunityAreaNumber),
			Year:                intAt(t, r, schema.Year),
		})
	}
	return out
}

func valueAt(t schema.Table, row []any, col string) any {
	i := t.Index(col)
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

func intAt(t schema.Table, row []any, col string) *int64 {
	return schema.CoerceInt(valueAt(t, row, col))
}

func floatAt(t schema.Table, row []any, col string) *float64 {
	return schema.CoerceFloat(valueAt(t, row, col))
}

func textAt(t schema.Table, row []any, col string) *string {
	return schema.CoerceText(valueAt(t, row, col))
}
