package presto_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
	mockpresto "github.com/kube-reporting/billing-ingest/pkg/presto/mock"
)

func TestExecuteSelect(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("SELECT a, b FROM t").WillReturnRows(
		sqlmock.NewRows([]string{"a", "b"}).AddRow("x", int64(1)).AddRow("y", int64(2)),
	)

	rows, err := presto.NewDB(sqlDB).Query(context.Background(), "SELECT a, b FROM t")
	require.NoError(t, err)
	assert.Equal(t, []presto.Row{
		{"a": "x", "b": int64(1)},
		{"a": "y", "b": int64(2)},
	}, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQueryReportsRowErrors(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer sqlDB.Close()

	mock.ExpectQuery("DELETE FROM t").WillReturnRows(
		sqlmock.NewRows([]string{"rows"}).AddRow(int64(1)).RowError(0, errors.New("query failed")),
	)

	err = presto.NewDB(sqlDB).Exec(context.Background(), "DELETE FROM t")
	assert.EqualError(t, err, "presto SQL error: query failed")
}

func TestQueryMetadata(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queryer := mockpresto.NewMockExecQueryer(ctrl)
	queryer.EXPECT().Query(ctx, `DESCRIBE "hive"."ds"."t"`).Return([]presto.Row{
		{"Column": "cost", "Type": "double"},
		{"Column": "date", "Type": "varchar"},
	}, nil)

	cols, err := presto.QueryMetadata(ctx, queryer, "hive", "ds", "t")
	require.NoError(t, err)
	assert.Equal(t, []presto.Column{{Name: "cost", Type: "double"}, {Name: "date", Type: "varchar"}}, cols)
}

func TestCountRows(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	queryer := mockpresto.NewMockExecQueryer(ctrl)
	queryer.EXPECT().Query(ctx, "SELECT count(*) AS total FROM hive.ds.t WHERE x = 1").Return([]presto.Row{{"total": int64(42)}}, nil)

	n, err := presto.CountRows(ctx, queryer, "hive.ds.t", "x = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestStatementHelpers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx := context.Background()
	execer := mockpresto.NewMockExecQueryer(ctrl)
	gomock.InOrder(
		execer.EXPECT().Exec(ctx, `CREATE SCHEMA IF NOT EXISTS "hive"."ds"`).Return(nil),
		execer.EXPECT().Exec(ctx, `CREATE TABLE IF NOT EXISTS "hive"."ds"."t" ("a" varchar, "b" double)`).Return(nil),
		execer.EXPECT().Exec(ctx, `CREATE TABLE IF NOT EXISTS "hive"."ds"."v" ("a" varchar) WITH (format = 'ORC', transactional = true)`).Return(nil),
		execer.EXPECT().Exec(ctx, `CREATE TABLE "hive"."ds"."u" AS SELECT 1`).Return(nil),
		execer.EXPECT().Exec(ctx, `DROP TABLE IF EXISTS "hive"."ds"."t"`).Return(nil),
		execer.EXPECT().Exec(ctx, "DELETE FROM hive.ds.u WHERE a = 'b'").Return(nil),
		execer.EXPECT().Exec(ctx, "INSERT INTO hive.ds.u SELECT 2").Return(nil),
	)

	require.NoError(t, presto.CreateSchema(ctx, execer, "hive", "ds"))
	require.NoError(t, presto.CreateTable(ctx, execer, "hive", "ds", "t", []presto.Column{{Name: "a", Type: "varchar"}, {Name: "b", Type: "double"}}, true))
	require.NoError(t, presto.CreateTransactionalTable(ctx, execer, "hive", "ds", "v", []presto.Column{{Name: "a", Type: "varchar"}}, true))
	require.NoError(t, presto.CreateTableAs(ctx, execer, "hive", "ds", "u", false, "SELECT 1"))
	require.NoError(t, presto.DropTable(ctx, execer, "hive", "ds", "t", true))
	require.NoError(t, presto.DeleteFrom(ctx, execer, "hive.ds.u", "a = 'b'"))
	require.NoError(t, presto.InsertInto(ctx, execer, "hive.ds.u", "SELECT 2"))
}

func TestLiterals(t *testing.T) {
	assert.Equal(t, `'it''s'`, presto.StringLiteral("it's"))
	assert.Equal(t, `"a""b"`, presto.QuoteIdentifier(`a"b`))
	ts := time.Date(2021, 1, 31, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "2021-01-31 13:04:05.000", presto.Timestamp(ts))
	assert.Equal(t, "2021-01-31", presto.Date(ts))
}
