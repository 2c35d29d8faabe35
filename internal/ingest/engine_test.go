package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/fetcher"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/store"
)

const censusCSV = `COMMUNITY_AREA_NUMBER,COMMUNITY_AREA_NAME,PERCENT_HOUSEHOLDS_BELOW_POVERTY,PER_CAPITA_INCOME,HARDSHIP_INDEX
1,Rogers Park,23.6,23939,39
2,West Ridge,17.2,23040,46
,CHICAGO,19.7,28202,
`

const schoolsCSV = `School_ID,NAME_OF_SCHOOL,"Elementary, Middle, or High School",COMMUNITY_AREA_NUMBER,COMMUNITY_AREA_NAME,SAFETY_SCORE
610038,Abraham Lincoln Elementary School,ES,1,ROGERS PARK,99
610281,Adam Clayton Powell Paideia,ES,2,WEST RIDGE,NDA
`

const crimeCSV = `ID,CASE_NUMBER,DATE,PRIMARY_TYPE,DESCRIPTION,LOCATION_DESCRIPTION,COMMUNITY_AREA_NUMBER,YEAR
3512276,HK587712,08/28/2004,INTERFERENCE WITH PUBLIC OFFICER,RESIST/OBSTRUCT/DISARM OFFICER,STREET,1,2004
3406613,HK456306,06/26/2004,THEFT,$500 AND UNDER,SCHOOL,,2004
8002131,HT233595,04/04/2011,KIDNAPPING,CHILD ABDUCTION/STRANGER,STREET,2,2011,extra
`

func writeSources(t *testing.T, census, schools, crime string) Sources {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}
	return Sources{
		Census:  write("ChicagoCensusData.csv", census),
		Schools: write("ChicagoPublicSchools.csv", schools),
		Crime:   write("ChicagoCrimeData.csv", crime),
	}
}

func newTestEngine(t *testing.T, src Sources) (*Engine, store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second, MaxRetries: 1})
	return NewEngine(st, f, Options{Sources: src, TempDir: t.TempDir()}), st
}

func TestEngine_Run(t *testing.T) {
	eng, st := newTestEngine(t, writeSources(t, censusCSV, schoolsCSV, crimeCSV))
	ctx := context.Background()

	res, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Sources, 3)
	assert.Equal(t, 3, res.Sources[0].Rows)
	assert.Equal(t, 2, res.Sources[1].Rows)
	assert.Equal(t, 2, res.Sources[2].Rows)
	assert.Equal(t, 1, res.Sources[2].Skipped)
	assert.Contains(t, res.Sources[0].Missing, "PERCENT_OF_HOUSING_CROWDED")

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Version, v)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Census, 3)
	assert.Nil(t, snap.Census[2].CommunityID)
	assert.Nil(t, snap.Census[2].HardshipIndex)
	require.Len(t, snap.Schools, 2)
	assert.Equal(t, 99.0, *snap.Schools[0].SafetyScore)
	assert.Nil(t, snap.Schools[1].SafetyScore)
	require.Len(t, snap.Crimes, 2)
	assert.Nil(t, snap.Crimes[1].CommunityID)
}

func TestEngine_RunReplacesPreviousSnapshot(t *testing.T) {
	src := writeSources(t, censusCSV, schoolsCSV, crimeCSV)
	eng, st := newTestEngine(t, src)
	ctx := context.Background()

	first, err := eng.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src.Crime, []byte("ID,COMMUNITY_AREA_NUMBER\n1,1\n"), 0o644))
	second, err := eng.Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, second.Version, first.Version)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Crimes, 1)
	assert.Len(t, snap.Census, 3)
}

func TestEngine_MissingRequiredColumnFails(t *testing.T) {
	src := writeSources(t, censusCSV, schoolsCSV, crimeCSV)
	eng, st := newTestEngine(t, src)
	ctx := context.Background()

	good, err := eng.Run(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(src.Crime, []byte("CASE_NUMBER,PRIMARY_TYPE\nHK1,THEFT\n"), 0o644))
	_, err = eng.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required column")

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, good.Version, v)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Crimes, 2)

	entries, err := st.ListIngests(ctx, 5)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, store.StatusFailed, entries[0].Status)
	assert.Contains(t, entries[0].Error, "CHICAGO_CRIME_DATA")
}

func TestEngine_UnreachableSourceFails(t *testing.T) {
	src := writeSources(t, censusCSV, schoolsCSV, crimeCSV)
	src.Schools = filepath.Join(t.TempDir(), "nope.csv")
	eng, st := newTestEngine(t, src)
	ctx := context.Background()

	_, err := eng.Run(ctx)
	require.Error(t, err)

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Empty())
}
