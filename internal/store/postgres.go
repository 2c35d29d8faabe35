package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/db"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/model"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/schema"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS ingest_log (
	id           BIGSERIAL PRIMARY KEY,
	run_id       UUID NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	census_rows  BIGINT NOT NULL DEFAULT 0,
	school_rows  BIGINT NOT NULL DEFAULT 0,
	crime_rows   BIGINT NOT NULL DEFAULT 0,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_ingest_log_status ON ingest_log(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	for _, t := range schema.All() {
		if _, err := s.pool.Exec(ctx, schema.Postgres.CreateTable(t, true)); err != nil {
			return eris.Wrapf(err, "postgres: migrate %s", t.Name)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) StartIngest(ctx context.Context) (*IngestEntry, error) {
	e := &IngestEntry{RunID: uuid.New().String(), Status: StatusRunning}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingest_log (run_id, status, started_at)
		 VALUES ($1, $2, now()) RETURNING id, started_at`,
		e.RunID, e.Status,
	).Scan(&e.ID, &e.StartedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: start ingest")
	}
	return e, nil
}

func (s *PostgresStore) CompleteIngest(ctx context.Context, id int64, load Load) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin replace")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	d := schema.Postgres
	for _, tr := range load.tables() {
		name := d.Ident(tr.table.Name)
		if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
			return eris.Wrapf(err, "postgres: drop %s", tr.table.Name)
		}
		if _, err := tx.Exec(ctx, d.CreateTable(tr.table, false)); err != nil {
			return eris.Wrapf(err, "postgres: create %s", tr.table.Name)
		}

		cols := make([]string, len(tr.table.Columns))
		for i, c := range tr.table.Columns {
			cols[i] = d.StoredName(c.Name)
		}
		rows := make([][]any, len(tr.rows))
		for i, r := range tr.rows {
			rows[i] = tr.table.CoerceRow(r)
		}
		if _, err := db.CopyFrom(ctx, tx, d.StoredName(tr.table.Name), cols, rows); err != nil {
			return eris.Wrapf(err, "postgres: load %s", tr.table.Name)
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE ingest_log
		 SET status = $1, completed_at = now(), census_rows = $2, school_rows = $3, crime_rows = $4
		 WHERE id = $5`,
		StatusComplete, int64(len(load.Census)), int64(len(load.Schools)), int64(len(load.Crimes)), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete ingest %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ingest not found: %d", id)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit replace")
}

func (s *PostgresStore) FailIngest(ctx context.Context, id int64, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_log SET status = $1, completed_at = now(), error = $2 WHERE id = $3`,
		StatusFailed, errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail ingest %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("ingest not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) ListIngests(ctx context.Context, limit int) ([]IngestEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, run_id::text, status, started_at, completed_at, census_rows, school_rows, crime_rows, COALESCE(error, '')
		 FROM ingest_log ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ingests")
	}
	defer rows.Close()

	var entries []IngestEntry
	for rows.Next() {
		var e IngestEntry
		if err := rows.Scan(&e.ID, &e.RunID, &e.Status, &e.StartedAt, &e.CompletedAt,
			&e.CensusRows, &e.SchoolRows, &e.CrimeRows, &e.Error); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ingest")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list ingests iterate")
}

const postgresVersionQuery = `SELECT COALESCE(MAX(id), 0) FROM ingest_log WHERE status = 'complete'`

func (s *PostgresStore) Version(ctx context.Context) (int64, error) {
	var v int64
	if err := s.pool.QueryRow(ctx, postgresVersionQuery).Scan(&v); err != nil {
		return 0, eris.Wrap(err, "postgres: version")
	}
	return v, nil
}

// Snapshot reads the version and all three tables in one read-only,
// repeatable-read transaction.
func (s *PostgresStore) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin snapshot")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	snap := &model.Snapshot{}
	if err := tx.QueryRow(ctx, postgresVersionQuery).Scan(&snap.Version); err != nil {
		return nil, eris.Wrap(err, "postgres: snapshot version")
	}

	loaded := make([][][]any, 0, 3)
	for _, t := range schema.All() {
		rows, err := loadPostgresTable(ctx, tx, t)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, rows)
	}
	snap.Census = model.DecodeCensus(loaded[0])
	snap.Schools = model.DecodeSchools(loaded[1])
	snap.Crimes = model.DecodeCrimes(loaded[2])

	return snap, eris.Wrap(tx.Commit(ctx), "postgres: commit snapshot")
}

func loadPostgresTable(ctx context.Context, q db.Querier, t schema.Table) ([][]any, error) {
	d := schema.Postgres
	info, err := q.Query(ctx,
		`SELECT column_name FROM information_schema.columns
		 WHERE table_schema = current_schema() AND table_name = $1
		 ORDER BY ordinal_position`,
		d.StoredName(t.Name),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: columns of %s", t.Name)
	}
	stored, err := pgx.CollectRows(info, pgx.RowTo[string])
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: columns of %s", t.Name)
	}

	p := project(t, d, stored)
	if !p.usable {
		return nil, nil
	}

	rows, err := q.Query(ctx, p.selectSQL(d))
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: select %s", t.Name)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", t.Name)
		}
		out = append(out, p.row(values))
	}
	return out, eris.Wrapf(rows.Err(), "postgres: iterate %s", t.Name)
}

// Query runs an arbitrary read query and returns its rows.
func (s *PostgresStore) Query(ctx context.Context, query string) (*Table, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query")
	}
	defer rows.Close()

	out := &Table{Rows: [][]any{}}
	for _, fd := range rows.FieldDescriptions() {
		out.Columns = append(out.Columns, fd.Name)
	}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "postgres: query scan")
		}
		for i := range values {
			values[i] = displayValue(values[i])
		}
		out.Rows = append(out.Rows, values)
	}
	if err := rows.Err(); err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) {
			return nil, eris.Wrapf(err, "postgres: query failed (sqlstate %s)", pgErr.SQLState())
		}
		return nil, eris.Wrap(err, "postgres: query iterate")
	}
	return out, nil
}
