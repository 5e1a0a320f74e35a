package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS reports (
    id          BIGINT PRIMARY KEY,
    source      TEXT NOT NULL,
    payload     JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS source_stats (
    domain  TEXT NOT NULL,
    label   TEXT NOT NULL,
    count   INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (domain, label)
);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists the report log into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// PostgresStatsRepository persists per-domain label counts into Postgres.
type PostgresStatsRepository struct {
	db *sql.DB
}

var (
	_ ports.ReportRepository      = (*PostgresRepository)(nil)
	_ ports.SourceStatsRepository = (*PostgresStatsRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// NewPostgresStatsRepository shares the report log's connection pool.
func NewPostgresStatsRepository(db *sql.DB) *PostgresStatsRepository {
	return &PostgresStatsRepository{db: db}
}

// OpenPostgres opens and pings a lib/pq connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables when absent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Append takes an exclusive table lock so the count-then-insert pair cannot race.
func (r *PostgresRepository) Append(ctx context.Context, report domain.Report) (domain.Report, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Report{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE reports IN EXCLUSIVE MODE`); err != nil {
		return domain.Report{}, fmt.Errorf("lock reports: %w", err)
	}

	var next int64
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("reports").ToSql()
	if err != nil {
		return domain.Report{}, fmt.Errorf("build count: %w", err)
	}
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&next); err != nil {
		return domain.Report{}, fmt.Errorf("count reports: %w", err)
	}

	report.ID = next
	query, args, err := insertReportQuery(report)
	if err != nil {
		return domain.Report{}, err
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return domain.Report{}, fmt.Errorf("insert report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Report{}, fmt.Errorf("commit report: %w", err)
	}
	return report, nil
}

// All returns every report ordered by id.
func (r *PostgresRepository) All(ctx context.Context) ([]domain.Report, error) {
	return r.queryReports(ctx, psql.Select("payload").From("reports").OrderBy("id ASC"))
}

// Last returns the newest n reports in insertion order.
func (r *PostgresRepository) Last(ctx context.Context, n int) ([]domain.Report, error) {
	if n <= 0 {
		return r.All(ctx)
	}
	reports, err := r.queryReports(ctx, lastReportsQuery(n))
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	return reports, nil
}

// Get returns one report by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (domain.Report, error) {
	reports, err := r.queryReports(ctx, psql.Select("payload").From("reports").Where(sq.Eq{"id": id}))
	if err != nil {
		return domain.Report{}, err
	}
	if len(reports) == 0 {
		return domain.Report{}, domain.ErrReportNotFound
	}
	return reports[0], nil
}

func (r *PostgresRepository) queryReports(ctx context.Context, b sq.SelectBuilder) ([]domain.Report, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}

	var out []domain.Report
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var rep domain.Report
		if err := json.Unmarshal(raw, &rep); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode report: %w", err)
		}
		out = append(out, rep)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// Increment upserts the (domain, label) counter in a single statement.
func (r *PostgresStatsRepository) Increment(ctx context.Context, d, label string) (domain.SourceStats, error) {
	query, args, err := incrementStatsQuery(d, label)
	if err != nil {
		return domain.SourceStats{}, err
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return domain.SourceStats{}, fmt.Errorf("upsert stats: %w", err)
	}

	stats, _, err := r.Get(ctx, d)
	return stats, err
}

// Get returns all label counts of one domain.
func (r *PostgresStatsRepository) Get(ctx context.Context, d string) (domain.SourceStats, bool, error) {
	all, err := r.queryStats(ctx, psql.Select("domain", "label", "count").From("source_stats").Where(sq.Eq{"domain": d}))
	if err != nil {
		return domain.SourceStats{}, false, err
	}
	if len(all) == 0 {
		return domain.SourceStats{}, false, nil
	}
	return all[0], true, nil
}

// All returns every domain ordered by name.
func (r *PostgresStatsRepository) All(ctx context.Context) ([]domain.SourceStats, error) {
	return r.queryStats(ctx, psql.Select("domain", "label", "count").From("source_stats").OrderBy("domain ASC", "label ASC"))
}

func (r *PostgresStatsRepository) queryStats(ctx context.Context, b sq.SelectBuilder) ([]domain.SourceStats, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var (
		out   []domain.SourceStats
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			d, label string
			count    int
		)
		if err := rows.Scan(&d, &label, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		i, ok := index[d]
		if !ok {
			i = len(out)
			index[d] = i
			out = append(out, domain.SourceStats{Domain: d, Counts: map[string]int{}})
		}
		out[i].Counts[label] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func insertReportQuery(report domain.Report) (string, []interface{}, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return "", nil, fmt.Errorf("encode report: %w", err)
	}
	query, args, err := psql.Insert("reports").
		Columns("id", "source", "payload", "created_at").
		Values(report.ID, report.SourceDomain, string(payload), report.CreatedAt).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

func lastReportsQuery(n int) sq.SelectBuilder {
	return psql.Select("payload").From("reports").OrderBy("id DESC").Limit(uint64(n))
}

func incrementStatsQuery(d, label string) (string, []interface{}, error) {
	if d == "" || label == "" {
		return "", nil, errors.New("domain and label are required")
	}
	query, args, err := psql.Insert("source_stats").
		Columns("domain", "label", "count").
		Values(d, label, 1).
		Suffix("ON CONFLICT (domain, label) DO UPDATE SET count = source_stats.count + 1").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert: %w", err)
	}
	return query, args, nil
}
