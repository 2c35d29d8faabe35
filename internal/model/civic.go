package model

// CommunityRecord is one row of CENSUS_DATA.
type CommunityRecord struct {
	CommunityID       *int64   `json:"community_id"`
	Name              *string  `json:"name"`
	HousingCrowded    *float64 `json:"percent_housing_crowded,omitempty"`
	PovertyRate       *float64 `json:"poverty_rate"`
	Unemployed        *float64 `json:"percent_unemployed,omitempty"`
	WithoutDiploma    *float64 `json:"percent_without_diploma,omitempty"`
	AgedUnder18Over64 *float64 `json:"percent_under_18_or_over_64,omitempty"`
	PerCapitaIncome   *float64 `json:"per_capita_income"`
	HardshipIndex     *float64 `json:"hardship_index"`
}

// SchoolRecord is one row of CHICAGO_PUBLIC_SCHOOLS.
type SchoolRecord struct {
	SchoolID      *int64   `json:"school_id"`
	Name          *string  `json:"name,omitempty"`
	SchoolType    *string  `json:"school_type"`
	CommunityID   *int64   `json:"community_id"`
	CommunityName *string  `json:"community_name,omitempty"`
	SafetyScore   *float64 `json:"safety_score"`
}

// CrimeRecord is one row of CHICAGO_CRIME_DATA.
type CrimeRecord struct {
	CrimeID             *int64  `json:"crime_id"`
	CaseNumber          *string `json:"case_number"`
	Date                *string `json:"date,omitempty"`
	PrimaryType         *string `json:"primary_type"`
	Description         *string `json:"description"`
	LocationDescription *string `json:"location_description,omitempty"`
	CommunityID         *int64  `json:"community_id"`
	Year                *int64  `json:"year"`
}

// Snapshot is an immutable, consistent read of the three base tables.
// Version identifies the ingest that produced it; 0 means the tables were
// not written by a logged ingest.
type Snapshot struct {
	Version int64             `json:"version"`
	Census  []CommunityRecord `json:"census"`
	Schools []SchoolRecord    `json:"schools"`
	Crimes  []CrimeRecord     `json:"crimes"`
}

// Empty reports whether the snapshot holds no base rows at all.
func (s *Snapshot) Empty() bool {
	return s == nil || (len(s.Census) == 0 && len(s.Schools) == 0 && len(s.Crimes) == 0)
}

// CommunityAggregate is the community-level socioeconomic and education view.
type CommunityAggregate struct {
	CommunityID    int64    `json:"community_id"`
	Name           string   `json:"name"`
	HardshipIndex  *float64 `json:"hardship_index"`
	PovertyRate    *float64 `json:"poverty_rate"`
	AvgSafetyScore *float64 `json:"avg_safety_score"`
	SchoolCount    int      `json:"school_count"`
}

// EnrichedCrime is a crime incident with the context of its community area.
type EnrichedCrime struct {
	CrimeID         *int64   `json:"crime_id"`
	CaseNumber      string   `json:"case_number"`
	PrimaryType     string   `json:"primary_type"`
	Description     string   `json:"description"`
	CommunityID     int64    `json:"community_id"`
	CommunityName   string   `json:"community_name"`
	PerCapitaIncome *float64 `json:"per_capita_income"`
	PovertyRate     *float64 `json:"poverty_rate"`
	HardshipIndex   *float64 `json:"hardship_index"`
	Year            *int64   `json:"year"`
}
