package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/erm/dialect"
)

func TestOpenDB(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{dialect.Postgres, dialect.Postgres},
		{"pgx", dialect.Postgres},
		{dialect.MySQL, dialect.MySQL},
		{dialect.SQLite, dialect.SQLite},
		{"sqlite3", dialect.SQLite},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			drv := OpenDB(tt.name, db)
			assert.Equal(t, tt.want, drv.Dialect())
			assert.Same(t, db, drv.DB())
		})
	}
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open("oracle", "dsn")
	require.EqualError(t, err, `dialect/sql: unsupported driver "oracle"`)
}

func TestDriverQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.Postgres, db)

	t.Run("rows", func(t *testing.T) {
		mock.ExpectQuery(`select name.entity, name.name from name where name.entity = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"entity", "name"}).AddRow(int64(2), "Andrea"))

		rows := &Rows{}
		err := drv.Query(context.Background(), "select name.entity, name.name from name where name.entity = $1", []any{int64(2)}, rows)
		require.NoError(t, err)
		require.True(t, rows.Next())
		c, err := ScanCursor(rows)
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())
		require.NoError(t, rows.Close())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectQuery("select").WillReturnError(errors.New("database error"))
		err := drv.Query(context.Background(), "select", []any{}, &Rows{})
		require.ErrorContains(t, err, "dialect/sql: query: database error")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid args", func(t *testing.T) {
		err := drv.Query(context.Background(), "select", "x", &Rows{})
		require.ErrorContains(t, err, "expect []any for args")
		err = drv.Query(context.Background(), "select", []any{}, nil)
		require.ErrorContains(t, err, "expect *sql.Rows")
	})
}

func TestDriverExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.MySQL, db)

	mock.ExpectExec(`delete from name where entity = \?`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	var res Result
	require.NoError(t, drv.Exec(context.Background(), "delete from name where entity = ?", []any{int64(1)}, &res))
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectExec("insert").WillReturnError(errors.New("duplicate entry"))
	err = drv.Exec(context.Background(), "insert into name(entity, name) values(?, ?)", []any{int64(1), "x"}, nil)
	require.ErrorContains(t, err, "dialect/sql: exec: duplicate entry")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	drv := OpenDB(dialect.SQLite, db)

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("insert into name").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.NoError(t, tx.Exec(context.Background(), "insert into name(entity, name) values(?, ?)", []any{int64(1), "x"}, nil))
		require.NoError(t, tx.Commit())
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("insert into name").WillReturnError(errors.New("error"))
		mock.ExpectRollback()

		tx, err := drv.Tx(context.Background())
		require.NoError(t, err)
		require.Error(t, tx.Exec(context.Background(), "insert into name(entity, name) values(?, ?)", []any{int64(1), "x"}, nil))
		require.NoError(t, tx.Rollback())
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(-1),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("insert").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "select 1", []any{}, rows))
	require.NoError(t, rows.Close())
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.Error(t, tx.Exec(context.Background(), "insert", []any{}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(1), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(2), s.SlowQueries)
	assert.Equal(t, int64(1), s.Rollbacks)
	assert.Equal(t, []string{"select 1", "insert"}, slow)
	assert.Contains(t, s.String(), "queries=1 execs=1")

	reg := prometheus.NewPedanticRegistry()
	c := NewStatsCollector("erm", drv.QueryStats())
	require.NoError(t, reg.Register(c))
	assert.Equal(t, 7, testutil.CollectAndCount(c))
	assert.Equal(t, 1, testutil.CollectAndCount(c, "erm_sql_queries_total"))

	drv.QueryStats().Reset()
	assert.Zero(t, drv.QueryStats().Stats().TotalQueries)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.Postgres, db), DebugWithLogger(logger))

	mock.ExpectBegin()
	mock.ExpectExec("delete").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "delete from name where entity = $1", []any{int64(1)}, nil))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, `msg="begin transaction"`)
	assert.Contains(t, out, `msg="tx exec" query="delete from name where entity = $1"`)
	assert.Contains(t, out, `msg="commit transaction"`)
	assert.Contains(t, out, "dialect=postgres")
}

func TestMsgpack(t *testing.T) {
	v, err := NewMsgpack([]string{"red", "green"}).Value()
	require.NoError(t, err)

	var m Msgpack[[]string]
	require.NoError(t, m.Scan(v))
	assert.Equal(t, []string{"red", "green"}, m.V)

	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m.V)
	require.Error(t, m.Scan(42))

	c := NewCursor([]any{v})
	got, err := TryGet[Msgpack[[]string]](c)
	require.NoError(t, err)
	assert.Equal(t, []string{"red", "green"}, got.V)
}
