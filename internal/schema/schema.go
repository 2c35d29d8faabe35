// Package schema declares the typed layout of the three civic base tables and
// the numeric-or-null coercion applied wherever values cross the storage boundary.
package schema

import (
	"regexp"
	"strings"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindText
)

// String returns the SQL type name used by SQLite.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Column is a single declared column. Required columns must be present in a
// source header (and in a stored table) for the table to be usable.
type Column struct {
	Name     string
	Kind     Kind
	Required bool
}

// Table is an ordered set of declared columns.
type Table struct {
	Name    string
	Columns []Column
}

// Column names shared across tables and queries.
const (
	CommunityAreaNumber = "COMMUNITY_AREA_NUMBER"
	CommunityAreaName   = "COMMUNITY_AREA_NAME"
	HousingCrowded      = "PERCENT_OF_HOUSING_CROWDED"
	BelowPoverty        = "PERCENT_HOUSEHOLDS_BELOW_POVERTY"
	Unemployed          = "PERCENT_AGED_16__UNEMPLOYED"
	WithoutDiploma      = "PERCENT_AGED_25__WITHOUT_HIGH_SCHOOL_DIPLOMA"
	AgedUnder18Over64   = "PERCENT_AGED_UNDER_18_OR_OVER_64"
	PerCapitaIncome     = "PER_CAPITA_INCOME"
	HardshipIndex       = "HARDSHIP_INDEX"

	SchoolID     = "School_ID"
	SchoolName   = "NAME_OF_SCHOOL"
	SchoolType   = "Elementary, Middle, or High School"
	SafetyScore  = "SAFETY_SCORE"
	SafetyIcon   = "Safety_Icon"
	Attendance   = "AVERAGE_STUDENT_ATTENDANCE"
	CollegeEnrol = "COLLEGE_ENROLLMENT"

	CrimeID             = "ID"
	CaseNumber          = "CASE_NUMBER"
	Date                = "DATE"
	PrimaryType         = "PRIMARY_TYPE"
	Description         = "DESCRIPTION"
	LocationDescription = "LOCATION_DESCRIPTION"
	Arrest              = "ARREST"
	Year                = "YEAR"
)

// Census is the CENSUS_DATA table.
var Census = Table{
	Name: "CENSUS_DATA",
	Columns: []Column{
		{Name: CommunityAreaNumber, Kind: KindInt, Required: true},
		{Name: CommunityAreaName, Kind: KindText},
		{Name: HousingCrowded, Kind: KindFloat},
		{Name: BelowPoverty, Kind: KindFloat},
		{Name: Unemployed, Kind: KindFloat},
		{Name: WithoutDiploma, Kind: KindFloat},
		{Name: AgedUnder18Over64, Kind: KindFloat},
		{Name: PerCapitaIncome, Kind: KindFloat},
		{Name: HardshipIndex, Kind: KindFloat},
	},
}

// Schools is the CHICAGO_PUBLIC_SCHOOLS table.
var Schools = Table{
	Name: "CHICAGO_PUBLIC_SCHOOLS",
	Columns: []Column{
		{Name: SchoolID, Kind: KindInt, Required: true},
		{Name: SchoolName, Kind: KindText},
		{Name: SchoolType, Kind: KindText},
		{Name: CommunityAreaNumber, Kind: KindInt, Required: true},
		{Name: CommunityAreaName, Kind: KindText},
		{Name: SafetyScore, Kind: KindFloat},
		{Name: SafetyIcon, Kind: KindText},
		{Name: Attendance, Kind: KindText},
		{Name: CollegeEnrol, Kind: KindInt},
	},
}

// Crime is the CHICAGO_CRIME_DATA table.
var Crime = Table{
	Name: "CHICAGO_CRIME_DATA",
	Columns: []Column{
		{Name: CrimeID, Kind: KindInt, Required: true},
		{Name: CaseNumber, Kind: KindText},
		{Name: Date, Kind: KindText},
		{Name: PrimaryType, Kind: KindText},
		{Name: Description, Kind: KindText},
		{Name: LocationDescription, Kind: KindText},
		{Name: Arrest, Kind: KindText},
		{Name: CommunityAreaNumber, Kind: KindInt, Required: true},
		{Name: Year, Kind: KindInt},
	},
}

// All returns the base tables in load order.
func All() []Table {
	return []Table{Census, Schools, Crime}
}

// Index returns the position of the named column, or -1.
func (t Table) Index(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// ColumnNames returns the declared column names in order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// CoerceRow coerces each value to its column's kind. The row must be aligned
// with t.Columns; missing trailing values become NULL.
func (t Table) CoerceRow(values []any) []any {
	out := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		if i < len(values) {
			out[i] = c.Coerce(values[i])
		}
	}
	return out
}

// Dialect selects identifier rendering for a SQL backend.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

var simpleIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// StoredName is the physical name of a table or column. Postgres folds
// unquoted identifiers to lower case, so simple names are stored lower case
// there to keep hand-written queries like SELECT ... FROM CENSUS_DATA working.
func (d Dialect) StoredName(name string) string {
	if d == Postgres && simpleIdent.MatchString(name) {
		return strings.ToLower(name)
	}
	return name
}

// Ident renders name as a SQL identifier, quoted.
func (d Dialect) Ident(name string) string {
	return `"` + strings.ReplaceAll(d.StoredName(name), `"`, `""`) + `"`
}

// TypeName renders the column type for the dialect.
func (d Dialect) TypeName(k Kind) string {
	if d == Postgres {
		switch k {
		case KindInt:
			return "BIGINT"
		case KindFloat:
			return "DOUBLE PRECISION"
		}
	}
	return k.String()
}

// CreateTable renders a CREATE TABLE statement for t.
func (d Dialect) CreateTable(t Table, ifNotExists bool) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(d.Ident(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Ident(c.Name))
		b.WriteString(" ")
		b.WriteString(d.TypeName(c.Kind))
	}
	b.WriteString(")")
	return b.String()
}
