// Package report runs the fixed battery of analytical queries against the
// base tables.
package report

// Query is one report entry.
type Query struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	SQL   string `json:"sql"`
}

var queries = []Query{
	{
		ID:    1,
		Title: "Total number of crimes recorded",
		SQL:   `SELECT COUNT(*) AS TOTAL_CRIMES FROM CHICAGO_CRIME_DATA`,
	},
	{
		ID:    2,
		Title: "Community areas with per capita income below 11000",
		SQL: `SELECT COMMUNITY_AREA_NUMBER, COMMUNITY_AREA_NAME, PER_CAPITA_INCOME
FROM CENSUS_DATA
WHERE PER_CAPITA_INCOME < 11000
ORDER BY PER_CAPITA_INCOME DESC`,
	},
	{
		ID:    3,
		Title: "Case numbers for crimes involving minors",
		SQL: `SELECT DISTINCT CASE_NUMBER
FROM CHICAGO_CRIME_DATA
WHERE DESCRIPTION LIKE '%MINOR%'
ORDER BY CASE_NUMBER`,
	},
	{
		ID:    4,
		Title: "Kidnapping crimes involving a child",
		SQL: `SELECT CASE_NUMBER, ID, DESCRIPTION
FROM CHICAGO_CRIME_DATA
WHERE PRIMARY_TYPE = 'KIDNAPPING' AND DESCRIPTION LIKE '%CHILD%'
ORDER BY CASE_NUMBER`,
	},
	{
		ID:    5,
		Title: "Kinds of crimes recorded at schools",
		SQL: `SELECT DISTINCT PRIMARY_TYPE
FROM CHICAGO_CRIME_DATA
WHERE LOCATION_DESCRIPTION LIKE '%SCHOOL%'
ORDER BY PRIMARY_TYPE`,
	},
	{
		ID:    6,
		Title: "Average safety score by school type",
		SQL: `SELECT "Elementary, Middle, or High School" AS SCHOOL_TYPE, AVG(SAFETY_SCORE) AS AVG_SAFETY_SCORE
FROM CHICAGO_PUBLIC_SCHOOLS
WHERE SAFETY_SCORE IS NOT NULL
GROUP BY "Elementary, Middle, or High School"
ORDER BY AVG_SAFETY_SCORE DESC`,
	},
	{
		ID:    7,
		Title: "Five communities with the highest share of households below poverty",
		SQL: `SELECT COMMUNITY_AREA_NAME, PERCENT_HOUSEHOLDS_BELOW_POVERTY
FROM CENSUS_DATA
WHERE PERCENT_HOUSEHOLDS_BELOW_POVERTY IS NOT NULL
ORDER BY PERCENT_HOUSEHOLDS_BELOW_POVERTY DESC
LIMIT 5`,
	},
	{
		ID:    8,
		Title: "Most crime-prone community area number",
		SQL: `SELECT COMMUNITY_AREA_NUMBER, COUNT(*) AS CRIME_COUNT
FROM CHICAGO_CRIME_DATA
WHERE COMMUNITY_AREA_NUMBER IS NOT NULL
GROUP BY COMMUNITY_AREA_NUMBER
ORDER BY CRIME_COUNT DESC
LIMIT 1`,
	},
	{
		ID:    9,
		Title: "Community with the highest hardship index",
		SQL: `SELECT COMMUNITY_AREA_NAME
FROM CENSUS_DATA
WHERE HARDSHIP_INDEX = (SELECT MAX(HARDSHIP_INDEX) FROM CENSUS_DATA)`,
	},
	{
		ID:    10,
		Title: "Community with the most crimes",
		SQL: `SELECT COMMUNITY_AREA_NAME
FROM CENSUS_DATA
WHERE COMMUNITY_AREA_NUMBER = (
	SELECT COMMUNITY_AREA_NUMBER
	FROM CHICAGO_CRIME_DATA
	WHERE COMMUNITY_AREA_NUMBER IS NOT NULL
	GROUP BY COMMUNITY_AREA_NUMBER
	ORDER BY COUNT(*) DESC
	LIMIT 1
)`,
	},
}

// Queries returns the report battery in execution order.
func Queries() []Query {
	out := make([]Query, len(queries))
	copy(out, queries)
	return out
}
