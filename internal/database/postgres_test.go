package database

import (
	"context"
	"errors"
	"math"
	"net/url"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/FairForge/harborwatch/internal/sink"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresFromDB(db), mock
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5433, Database: "hw", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@db:5433/hw?sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")

	t.Run("escapes credentials", func(t *testing.T) {
		for _, password := range []string{"", "two words", "p@ss/w:rd'"} {
			cfg := Config{Host: "db", Port: 5432, Database: "hw", User: "u", Password: password}

			u, err := url.Parse(cfg.DSN())
			require.NoError(t, err)
			got, _ := u.User.Password()
			assert.Equal(t, password, got)
			assert.Equal(t, "/hw", u.Path)

			opts, err := pq.ParseURL(cfg.DSN())
			require.NoError(t, err, "password %q", password)
			assert.Contains(t, opts, "dbname=hw")
		}
	})
}

func TestPostgres_AppendMetricRow(t *testing.T) {
	p, mock := newMockPostgres(t)
	ctx := context.Background()

	t.Run("serializes tags once as jsonb", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO performance_data (timestamp, metric_name, metric_value, metadata) VALUES (now(), $1, $2, $3::jsonb)`)).
			WithArgs("http_requests_5s", 12.0, `{"source":"scheduler"}`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := p.AppendMetricRow(ctx, "http_requests_5s", 12, sink.Tags{"source": "scheduler"})
		require.NoError(t, err)
	})

	t.Run("empty tags become an empty object", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO performance_data`)).
			WithArgs("test_metric_0", 42.5, `{}`).
			WillReturnResult(sqlmock.NewResult(2, 1))

		require.NoError(t, p.AppendMetricRow(ctx, "test_metric_0", 42.5, nil))
	})

	t.Run("wraps driver errors", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO performance_data`)).
			WillReturnError(errors.New("connection reset"))

		err := p.AppendMetricRow(ctx, "x", 1, sink.Tags{"source": "scheduler", "host": "a"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Contains(t, err.Error(), "{host=a,source=scheduler}")
	})

	t.Run("rejects non-finite without touching the database", func(t *testing.T) {
		err := p.AppendMetricRow(ctx, "x", math.Inf(1), nil)
		assert.ErrorIs(t, err, sink.ErrNonFinite)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendComputationResult(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO computation_results (computation_type, input_size, result, duration_ms) VALUES ($1, $2, $3, $4)`)).
		WithArgs("database_intensive", 200, "reads=8", int64(37)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := p.AppendComputationResult(context.Background(), sink.ComputationResult{
		Type:           "database_intensive",
		InputSize:      200,
		Result:         "reads=8",
		DurationMillis: 37,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_QueryRecent(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("performance data", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, timestamp, metric_name FROM performance_data WHERE metric_name LIKE $1 ORDER BY id DESC LIMIT $2`)).
			WithArgs("test_metric%", 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "metric_name"}).
				AddRow(int64(9), now, "test_metric_8").
				AddRow(int64(8), now, "test_metric_7"))

		rows, err := p.QueryRecent(context.Background(), sink.Query{Table: sink.TablePerformance, NamePrefix: "test_metric", Limit: 10})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, int64(9), rows[0].ID)
		assert.Equal(t, "test_metric_8", rows[0].Name)
	})

	t.Run("computation results default limit", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM computation_results WHERE computation_type LIKE $1`)).
			WithArgs("%", sink.DefaultQueryLimit).
			WillReturnRows(sqlmock.NewRows([]string{"id", "timestamp", "computation_type"}).
				AddRow(int64(1), now, "cpu_intensive"))

		rows, err := p.QueryRecent(context.Background(), sink.Query{Table: sink.TableComputations})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "cpu_intensive", rows[0].Name)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := p.QueryRecent(context.Background(), sink.Query{Table: "tenants"})
		assert.ErrorIs(t, err, sink.ErrUnknownTable)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Summary(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM performance_data`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(120)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM computation_results`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	s, err := p.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(120), s.PerformanceData)
	assert.Equal(t, int64(7), s.ComputationResults)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Now(t *testing.T) {
	p, mock := newMockPostgres(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT now()`)).
		WillReturnRows(sqlmock.NewRows([]string{"now"}).AddRow(now))

	got, err := p.Now(context.Background())
	require.NoError(t, err)
	assert.True(t, now.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Connect(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database tests in short mode")
	}

	db, err := NewPostgres(GetTestConfig())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		t.Skipf("database not reachable: %v", err)
	}
}
