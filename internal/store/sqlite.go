package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// DefaultSQLitePath is the database file used when no DSN is configured.
const DefaultSQLitePath = "FinalDB.db"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = DefaultSQLitePath
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS ingest_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME,
	census_rows  INTEGER NOT NULL DEFAULT 0,
	school_rows  INTEGER NOT NULL DEFAULT 0,
	crime_rows   INTEGER NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_ingest_log_status ON ingest_log(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	for _, t := range schema.All() {
		if _, err := s.db.ExecContext(ctx, schema.SQLite.CreateTable(t, true)); err != nil {
			return eris.Wrapf(err, "sqlite: migrate %s", t.Name)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StartIngest(ctx context.Context) (*IngestEntry, error) {
	e := &IngestEntry{
		RunID:     uuid.New().String(),
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_log (run_id, status, started_at) VALUES (?, ?, ?)`,
		e.RunID, e.Status, e.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: start ingest")
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, eris.Wrap(err, "sqlite: start ingest id")
	}
	return e, nil
}

func (s *SQLiteStore) CompleteIngest(ctx context.Context, id int64, load Load) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, tr := range load.tables() {
		if err := replaceSQLiteTable(ctx, tx, tr); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE ingest_log
		 SET status = ?, completed_at = ?, census_rows = ?, school_rows = ?, crime_rows = ?
		 WHERE id = ?`,
		StatusComplete, time.Now().UTC(),
		len(load.Census), len(load.Schools), len(load.Crimes), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete ingest %d", id)
	}
	if err := checkRowsAffected(res, "ingest", id); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace")
}

func replaceSQLiteTable(ctx context.Context, tx *sql.Tx, tr tableRows) error {
	d := schema.SQLite
	name := d.Ident(tr.table.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return eris.Wrapf(err, "sqlite: drop %s", tr.table.Name)
	}
	if _, err := tx.ExecContext(ctx, d.CreateTable(tr.table, false)); err != nil {
		return eris.Wrapf(err, "sqlite: create %s", tr.table.Name)
	}
	if len(tr.rows) == 0 {
		return nil
	}

	cols := make([]string, len(tr.table.Columns))
	marks := make([]string, len(tr.table.Columns))
	for i, c := range tr.table.Columns {
		cols[i] = d.Ident(c.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+name+" ("+strings.Join(cols, ", ")+") VALUES ("+strings.Join(marks, ", ")+")",
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert %s", tr.table.Name)
	}
	defer stmt.Close()

	for i, row := range tr.rows {
		if _, err := stmt.ExecContext(ctx, tr.table.CoerceRow(row)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert %s row %d", tr.table.Name, i)
		}
	}
	return nil
}

func (s *SQLiteStore) FailIngest(ctx context.Context, id int64, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		StatusFailed, time.Now().UTC(), errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail ingest %d", id)
	}
	return checkRowsAffected(res, "ingest", id)
}

func (s *SQLiteStore) ListIngests(ctx context.Context, limit int) ([]IngestEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, status, started_at, completed_at, census_rows, school_rows, crime_rows, error
		 FROM ingest_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ingests")
	}
	defer rows.Close()

	var entries []IngestEntry
	for rows.Next() {
		var (
			e         IngestEntry
			completed sql.NullTime
			errMsg    sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Status, &e.StartedAt, &completed,
			&e.CensusRows, &e.SchoolRows, &e.CrimeRows, &errMsg); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ingest")
		}
		if completed.Valid {
			e.CompletedAt = &completed.Time
		}
		e.Error = errMsg.String
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list ingests iterate")
}

const sqliteVersionQuery = `SELECT COALESCE(MAX(id), 0) FROM ingest_log WHERE status = 'complete'`

func (s *SQLiteStore) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := s.db.QueryRowContext(ctx, sqliteVersionQuery).Scan(&v); err != nil {
		return 0, eris.Wrap(err, "sqlite: version")
	}
	return v, nil
}

// Snapshot reads the version and all three tables inside one transaction.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin snapshot")
	}
	defer tx.Rollback() //nolint:errcheck

	snap := &model.Snapshot{}
	if err := tx.QueryRowContext(ctx, sqliteVersionQuery).Scan(&snap.Version); err != nil {
		return nil, eris.Wrap(err, "sqlite: snapshot version")
	}

	loaded := make([][][]any, 0, 3)
	for _, t := range schema.All() {
		rows, err := loadSQLiteTable(ctx, tx, t)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, rows)
	}
	snap.Census = model.DecodeCensus(loaded[0])
	snap.Schools = model.DecodeSchools(loaded[1])
	snap.Crimes = model.DecodeCrimes(loaded[2])
	return snap, nil
}

func loadSQLiteTable(ctx context.Context, tx *sql.Tx, t schema.Table) ([][]any, error) {
	info, err := tx.QueryContext(ctx, "PRAGMA table_info("+schema.SQLite.Ident(t.Name)+")")
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: table info %s", t.Name)
	}
	var stored []string
	for info.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := info.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			info.Close()
			return nil, eris.Wrapf(err, "sqlite: scan table info %s", t.Name)
		}
		stored = append(stored, name)
	}
	info.Close()
	if err := info.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: table info %s", t.Name)
	}

	p := project(t, schema.SQLite, stored)
	if !p.usable {
		return nil, nil
	}

	rows, err := tx.QueryContext(ctx, p.selectSQL(schema.SQLite))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: select %s", t.Name)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := scanAny(rows, len(p.present))
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", t.Name)
		}
		out = append(out, p.row(values))
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: iterate %s", t.Name)
}

// Query runs an arbitrary read query and returns its rows.
func (s *SQLiteStore) Query(ctx context.Context, query string) (*Table, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query columns")
	}
	out := &Table{Columns: cols, Rows: [][]any{}}
	for rows.Next() {
		values, err := scanAny(rows, len(cols))
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: query scan")
		}
		for i := range values {
			values[i] = displayValue(values[i])
		}
		out.Rows = append(out.Rows, values)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: query iterate")
}

// helpers

func scanAny(rows *sql.Rows, n int) ([]any, error) {
	values := make([]any, n)
	ptrs := make([]any, n)
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return values, nil
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}
