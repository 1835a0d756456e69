package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *int:
			*ptr = r.values[i].(int)
		case *int64:
			*ptr = r.values[i].(int64)
		case *bool:
			*ptr = r.values[i].(bool)
		}
	}
	return nil
}

// fakeDB answers by matching a fragment of the query text.
type fakeDB map[string]fakeRow

func (db fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	for fragment, row := range db {
		if strings.Contains(sql, fragment) {
			return row
		}
	}
	return fakeRow{err: errors.New("unexpected query")}
}

func healthyDB() fakeDB {
	return fakeDB{
		"SELECT 1":          {values: []any{1}},
		"schema_migrations": {values: []any{int64(3), false}},
		"river_job":         {values: []any{int64(2), int64(0)}},
	}
}

func runHealth(t *testing.T, checker *HealthChecker) (int, HealthCheck) {
	t.Helper()
	rec := httptest.NewRecorder()
	checker.Health().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var body HealthCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealthStatusDetermination(t *testing.T) {
	tests := []struct {
		name       string
		db         HealthDB
		jobs       bool
		wantCode   int
		wantStatus string
	}{
		{name: "all healthy", db: healthyDB(), jobs: true, wantCode: http.StatusOK, wantStatus: "healthy"},
		{name: "memory driver degraded", db: nil, jobs: true, wantCode: http.StatusOK, wantStatus: "degraded"},
		{
			name: "database down",
			db: fakeDB{
				"SELECT 1":          {err: errors.New("dial tcp: connection refused")},
				"schema_migrations": {err: errors.New("dial tcp: connection refused")},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
		{
			name: "dirty migrations",
			db: fakeDB{
				"SELECT 1":          {values: []any{1}},
				"schema_migrations": {values: []any{int64(3), true}},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
		{
			name: "retrying jobs degrade",
			db: fakeDB{
				"SELECT 1":          {values: []any{1}},
				"schema_migrations": {values: []any{int64(3), false}},
				"river_job":         {values: []any{int64(0), int64(4)}},
			},
			jobs:       true,
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var db HealthDB
			if tt.db != nil {
				db = tt.db
			}
			code, body := runHealth(t, NewHealthChecker(db, tt.jobs, "0.1.0", "abc"))
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "0.1.0", body.Version)
			assert.Len(t, body.Checks, 3)
		})
	}
}

func TestHealthMessages(t *testing.T) {
	db := fakeDB{
		"SELECT 1":          {err: errors.New("dial tcp: connection refused")},
		"schema_migrations": {err: errors.New(`relation "schema_migrations" does not exist`)},
	}
	_, body := runHealth(t, NewHealthChecker(db, false, "dev", ""))

	assert.Equal(t, "Database connection refused", body.Checks["database"].Message)
	assert.Contains(t, body.Checks["migrations"].Message, "migrate up")
	assert.Equal(t, "pass", body.Checks["job_queue"].Status)
}

func TestHealthShuttingDown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)
	NewHealthChecker(healthyDB(), true, "dev", "").Health().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "shutting_down")
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	Healthz().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("health"),
		tcpostgres.WithUsername("health"),
		tcpostgres.WithPassword("health"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `CREATE TABLE schema_migrations (version BIGINT PRIMARY KEY, dirty BOOLEAN NOT NULL)`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (4, false)`)
	require.NoError(t, err)

	code, body := runHealth(t, NewHealthChecker(pool, false, "dev", ""))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "pass", body.Checks["database"].Status)
	assert.Equal(t, "pass", body.Checks["migrations"].Status)
	assert.Contains(t, body.Checks["database"].Details, "max_connections")
}
