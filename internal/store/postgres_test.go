package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ingest_log`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	for _, tbl := range schema.All() {
		mock.ExpectExec(regexp.QuoteMeta(schema.Postgres.CreateTable(tbl, true))).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS ingest_log`).
		WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestPostgresStore_StartIngest(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO ingest_log`).
		WithArgs(pgxmock.AnyArg(), StatusRunning).
		WillReturnRows(pgxmock.NewRows([]string{"id", "started_at"}).AddRow(int64(7), now))

	e, err := s.StartIngest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), e.ID)
	assert.Equal(t, StatusRunning, e.Status)
	assert.Len(t, e.RunID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteIngest(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	load := Load{
		Census: [][]any{row(schema.Census, schema.CommunityAreaNumber, int64(1), schema.CommunityAreaName, "Rogers Park")},
		Crimes: [][]any{
			row(schema.Crime, schema.CrimeID, int64(1), schema.CommunityAreaNumber, "5"),
			row(schema.Crime, schema.CrimeID, int64(2)),
		},
	}

	mock.ExpectBegin()
	for _, tbl := range schema.All() {
		mock.ExpectExec(regexp.QuoteMeta(`DROP TABLE IF EXISTS ` + schema.Postgres.Ident(tbl.Name))).
			WillReturnResult(pgxmock.NewResult("DROP", 0))
		mock.ExpectExec(regexp.QuoteMeta(schema.Postgres.CreateTable(tbl, false))).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))

		cols := make([]string, len(tbl.Columns))
		for i, c := range tbl.Columns {
			cols[i] = schema.Postgres.StoredName(c.Name)
		}
		switch tbl.Name {
		case schema.Census.Name:
			mock.ExpectCopyFrom(pgx.Identifier{"census_data"}, cols).WillReturnResult(1)
		case schema.Crime.Name:
			mock.ExpectCopyFrom(pgx.Identifier{"chicago_crime_data"}, cols).WillReturnResult(2)
		}
	}
	mock.ExpectExec(`UPDATE ingest_log`).
		WithArgs(StatusComplete, int64(1), int64(0), int64(2), int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.CompleteIngest(context.Background(), 7, load))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteIngest_CopyFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "census_data"`).WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectExec(`CREATE TABLE "census_data"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"census_data"}, schemaStoredColumns(schema.Census)).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	load := Load{Census: [][]any{row(schema.Census, schema.CommunityAreaNumber, int64(1))}}
	err := s.CompleteIngest(context.Background(), 3, load)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: load CENSUS_DATA")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailIngest_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE ingest_log SET status`).
		WithArgs(StatusFailed, "boom", int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.FailIngest(context.Background(), 42, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Version(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\) FROM ingest_log`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(3)))

	v, err := s.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListIngests(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	done := started.Add(time.Minute)

	mock.ExpectQuery(`SELECT id, run_id::text, status`).
		WithArgs(100).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "run_id", "status", "started_at", "completed_at", "census_rows", "school_rows", "crime_rows", "error",
		}).
			AddRow(int64(2), "b", StatusFailed, started, &done, int64(0), int64(0), int64(0), "timeout").
			AddRow(int64(1), "a", StatusComplete, started, &done, int64(78), int64(566), int64(533), ""))

	entries, err := s.ListIngests(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "timeout", entries[0].Error)
	assert.Equal(t, int64(533), entries[1].CrimeRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Snapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\) FROM ingest_log`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(5)))

	mock.ExpectQuery(`information_schema.columns`).
		WithArgs("census_data").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("community_area_number").
			AddRow("community_area_name").
			AddRow("per_capita_income"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "community_area_number", "community_area_name", "per_capita_income" FROM "census_data"`)).
		WillReturnRows(pgxmock.NewRows([]string{"community_area_number", "community_area_name", "per_capita_income"}).
			AddRow(int64(1), "Rogers Park", 23939.0).
			AddRow(int64(2), "West Ridge", nil))

	mock.ExpectQuery(`information_schema.columns`).
		WithArgs("chicago_public_schools").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}))

	mock.ExpectQuery(`information_schema.columns`).
		WithArgs("chicago_crime_data").
		WillReturnRows(pgxmock.NewRows([]string{"column_name"}).
			AddRow("id").
			AddRow("community_area_number"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id", "community_area_number" FROM "chicago_crime_data"`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "community_area_number"}).
			AddRow(int64(100), int64(5)))
	mock.ExpectCommit()

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), snap.Version)
	require.Len(t, snap.Census, 2)
	assert.Equal(t, "Rogers Park", *snap.Census[0].Name)
	assert.Nil(t, snap.Census[1].PerCapitaIncome)
	assert.Nil(t, snap.Census[0].HardshipIndex)
	assert.Empty(t, snap.Schools)
	require.Len(t, snap.Crimes, 1)
	assert.Equal(t, int64(5), *snap.Crimes[0].CommunityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Query(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) AS TOTAL_CRIMES`).
		WillReturnRows(pgxmock.NewRows([]string{"total_crimes"}).AddRow(int64(0)))

	tbl, err := s.Query(context.Background(), `SELECT COUNT(*) AS TOTAL_CRIMES FROM CHICAGO_CRIME_DATA`)
	require.NoError(t, err)
	assert.Equal(t, []string{"total_crimes"}, tbl.Columns)
	assert.Equal(t, [][]any{{int64(0)}}, tbl.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Query_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New(`relation "nope" does not exist`))

	_, err := s.Query(context.Background(), `SELECT * FROM nope`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: query")
}

func schemaStoredColumns(t schema.Table) []string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = schema.Postgres.StoredName(c.Name)
	}
	return cols
}
