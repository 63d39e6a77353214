package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/FairForge/harborwatch/internal/sink"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Postgres is a sink backed by the performance_data and
// computation_results tables. The schema is owned elsewhere.
type Postgres struct {
	db *sql.DB
}

var (
	_ sink.Sink      = (*Postgres)(nil)
	_ sink.Inspector = (*Postgres)(nil)
)

// NewPostgres creates a new PostgreSQL connection
func NewPostgres(cfg Config) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Generators append from up to 12 workers at once
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db}, nil
}

// NewPostgresFromDB wraps an existing handle
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ping verifies the database connection
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// AppendMetricRow inserts a performance_data row. The timestamp is taken
// from the database clock.
func (p *Postgres) AppendMetricRow(ctx context.Context, name string, value float64, tags sink.Tags) error {
	if err := sink.ValidateMetric(name, value); err != nil {
		return err
	}
	meta, err := tags.JSON()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	query := `INSERT INTO performance_data (timestamp, metric_name, metric_value, metadata) VALUES (now(), $1, $2, $3::jsonb)`
	if _, err := p.db.ExecContext(ctx, query, name, value, string(meta)); err != nil {
		return fmt.Errorf("insert metric %s {%s}: %w", name, tags.Key(), err)
	}
	return nil
}

// AppendComputationResult inserts a computation_results row
func (p *Postgres) AppendComputationResult(ctx context.Context, r sink.ComputationResult) error {
	query := `INSERT INTO computation_results (computation_type, input_size, result, duration_ms) VALUES ($1, $2, $3, $4)`
	if _, err := p.db.ExecContext(ctx, query, r.Type, r.InputSize, r.Result, r.DurationMillis); err != nil {
		return fmt.Errorf("insert computation result %s: %w", r.Type, err)
	}
	return nil
}

// QueryRecent returns the newest rows of a table, optionally filtered by
// name prefix
func (p *Postgres) QueryRecent(ctx context.Context, q sink.Query) ([]sink.Row, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	var query string
	switch q.Table {
	case sink.TablePerformance:
		query = `SELECT id, timestamp, metric_name FROM performance_data WHERE metric_name LIKE $1 ORDER BY id DESC LIMIT $2`
	case sink.TableComputations:
		query = `SELECT id, timestamp, computation_type FROM computation_results WHERE computation_type LIKE $1 ORDER BY id DESC LIMIT $2`
	}

	rows, err := p.db.QueryContext(ctx, query, q.NamePrefix+"%", q.Limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Table, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]sink.Row, 0, q.Limit)
	for rows.Next() {
		var r sink.Row
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Table, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", q.Table, err)
	}
	return out, nil
}

// Summary counts rows in both tables
func (p *Postgres) Summary(ctx context.Context) (sink.Summary, error) {
	var s sink.Summary
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM performance_data`).Scan(&s.PerformanceData); err != nil {
		return s, fmt.Errorf("count performance_data: %w", err)
	}
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM computation_results`).Scan(&s.ComputationResults); err != nil {
		return s, fmt.Errorf("count computation_results: %w", err)
	}
	return s, nil
}

// Now returns the database clock
func (p *Postgres) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := p.db.QueryRowContext(ctx, `SELECT now()`).Scan(&now); err != nil {
		return time.Time{}, fmt.Errorf("query now: %w", err)
	}
	return now, nil
}
