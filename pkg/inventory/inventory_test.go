package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/presto"
	"github.com/kube-reporting/billing-ingest/pkg/presto/mock"
)

var testNow = time.Date(2021, time.March, 1, 12, 0, 0, 0, time.UTC)

var testKind = Kind{
	Name:          "test",
	Table:         "t",
	ShardPrefix:   "t",
	StaleAfter:    time.Hour,
	InsertColumns: []string{"id", "status"},
	UpdateColumns: []string{"status"},
}

const (
	testShowTables = `SHOW TABLES FROM "hive"."BillingReport_acct" LIKE 't\_%' ESCAPE '\'`
	testMerge      = `MERGE INTO "hive"."BillingReport_acct"."t" T
USING (
SELECT "id", "status" FROM "hive"."BillingReport_acct"."t_1"
UNION ALL
SELECT "id", "status" FROM "hive"."BillingReport_acct"."t_2"
) S
ON (T.id = S.id)
WHEN MATCHED THEN
UPDATE SET "status" = S."status", "lastUpdatedAt" = TIMESTAMP '2021-03-01 12:00:00.000'
WHEN NOT MATCHED THEN
INSERT ("id", "status", "lastUpdatedAt")
VALUES (S."id", S."status", TIMESTAMP '2021-03-01 12:00:00.000')`
	testSweep = `UPDATE "hive"."BillingReport_acct"."t"
SET status = 'DELETED'
WHERE status <> 'DELETED'
AND "lastUpdatedAt" < TIMESTAMP '2021-03-01 11:00:00.000'`
)

func newTestSweeper(execer presto.ExecQueryer, c clock.Clock) *MergeSweeper {
	return NewMergeSweeper(execer, c, Config{Catalog: "hive"})
}

func TestMergeSweeperRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	execer := mock.NewMockExecQueryer(ctrl)
	gomock.InOrder(
		execer.EXPECT().Query(ctx, testShowTables).Return([]presto.Row{{"Table": "t_2"}, {"Table": "t_1"}}, nil),
		execer.EXPECT().Exec(ctx, testMerge).Return(nil),
		execer.EXPECT().Exec(ctx, testSweep).Return(nil),
	)

	res, err := newTestSweeper(execer, clock.NewFakeClock(testNow)).Run(ctx, logrus.New(), "ACCT", testKind)
	require.NoError(t, err)
	assert.Equal(t, Result{Shards: []string{"t_1", "t_2"}, Merged: true}, res)
}

func TestMergeSweeperSweepsWithoutShards(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	execer := mock.NewMockExecQueryer(ctrl)
	gomock.InOrder(
		execer.EXPECT().Query(ctx, testShowTables).Return(nil, nil),
		execer.EXPECT().Exec(ctx, testSweep).Return(nil),
	)

	res, err := newTestSweeper(execer, clock.NewFakeClock(testNow)).Run(ctx, logrus.New(), "acct", testKind)
	require.NoError(t, err)
	assert.False(t, res.Merged)
}

func TestMergeSweeperFindsMetastoreShards(t *testing.T) {
	tests := map[string]struct {
		kind          Kind
		expectedLike  string
		shard         string
		expectedMerge string
	}{
		"disks": {
			kind:          Disks,
			expectedLike:  `LIKE 'gcpdiskinventory\_%' ESCAPE '\'`,
			shard:         "gcpdiskinventory_20210301",
			expectedMerge: `MERGE INTO "hive"."BillingReport_acct"."gcpDiskInventory" T`,
		},
		"instances": {
			kind:          Instances,
			expectedLike:  `LIKE 'gcpinstanceinventory\_%' ESCAPE '\'`,
			shard:         "gcpinstanceinventory_20210301",
			expectedMerge: `MERGE INTO "hive"."BillingReport_acct"."gcpInstanceInventory" T`,
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			ctx := context.Background()
			execer := mock.NewMockExecQueryer(ctrl)

			var statements []string
			gomock.InOrder(
				execer.EXPECT().Query(ctx, `SHOW TABLES FROM "hive"."BillingReport_acct" `+tt.expectedLike).
					Return([]presto.Row{{"Table": tt.shard}}, nil),
				execer.EXPECT().Exec(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, query string) error {
					statements = append(statements, query)
					return nil
				}).Times(2),
			)

			res, err := newTestSweeper(execer, clock.NewFakeClock(testNow)).Run(ctx, logrus.New(), "acct", tt.kind)
			require.NoError(t, err)
			assert.True(t, res.Merged)
			require.Len(t, statements, 2)
			assert.Contains(t, statements[0], tt.expectedMerge)
			assert.Contains(t, statements[0], `FROM "hive"."BillingReport_acct".`+presto.QuoteIdentifier(tt.shard))
			assert.Contains(t, statements[1], "SET status = 'DELETED'")
		})
	}
}

func TestMergeSweeperFailures(t *testing.T) {
	tests := map[string]struct {
		expect      func(ctx context.Context, execer *mock.MockExecQueryer)
		expectedErr string
	}{
		"shard listing fails": {
			expect: func(ctx context.Context, execer *mock.MockExecQueryer) {
				execer.EXPECT().Query(ctx, testShowTables).Return(nil, errors.New("boom"))
			},
			expectedErr: "failed to list t shards: boom",
		},
		"merge fails and the sweep is not attempted": {
			expect: func(ctx context.Context, execer *mock.MockExecQueryer) {
				execer.EXPECT().Query(ctx, testShowTables).Return([]presto.Row{{"Table": "t_1"}, {"Table": "t_2"}}, nil)
				execer.EXPECT().Exec(ctx, testMerge).Return(errors.New("boom"))
			},
			expectedErr: "failed to merge into t: boom",
		},
		"sweep fails": {
			expect: func(ctx context.Context, execer *mock.MockExecQueryer) {
				execer.EXPECT().Query(ctx, testShowTables).Return(nil, nil)
				execer.EXPECT().Exec(ctx, testSweep).Return(errors.New("boom"))
			},
			expectedErr: "failed to mark stale t rows as deleted: boom",
		},
		"non string table name": {
			expect: func(ctx context.Context, execer *mock.MockExecQueryer) {
				execer.EXPECT().Query(ctx, testShowTables).Return([]presto.Row{{"Table": 1}}, nil)
			},
			expectedErr: "failed to convert the Presto table name to a string",
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			ctx := context.Background()
			execer := mock.NewMockExecQueryer(ctrl)
			tt.expect(ctx, execer)

			_, err := newTestSweeper(execer, clock.NewFakeClock(testNow)).Run(ctx, logrus.New(), "acct", testKind)
			assert.EqualError(t, err, tt.expectedErr)
		})
	}
}

func TestStalenessWindows(t *testing.T) {
	tests := map[string]struct {
		kind          Kind
		advance       time.Duration
		expectedTable string
		expectedSweep string
	}{
		"disks are stale after two hours": {
			kind:          Disks,
			expectedTable: "gcpDiskInventory",
			expectedSweep: `AND "lastUpdatedAt" < TIMESTAMP '2021-03-01 10:00:00.000'`,
		},
		"instances are stale after a day": {
			kind:          Instances,
			expectedTable: "gcpInstanceInventory",
			expectedSweep: `AND "lastUpdatedAt" < TIMESTAMP '2021-02-28 12:00:00.000'`,
		},
		"the cutoff follows the clock": {
			kind:          Disks,
			advance:       90 * time.Minute,
			expectedTable: "gcpDiskInventory",
			expectedSweep: `AND "lastUpdatedAt" < TIMESTAMP '2021-03-01 11:30:00.000'`,
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			ctx := context.Background()
			execer := mock.NewMockExecQueryer(ctrl)
			fakeClock := clock.NewFakeClock(testNow)
			fakeClock.Step(tt.advance)

			var sweep string
			execer.EXPECT().Query(ctx, gomock.Any()).Return(nil, nil)
			execer.EXPECT().Exec(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, query string) error {
				sweep = query
				return nil
			})

			_, err := newTestSweeper(execer, fakeClock).Run(ctx, logrus.New(), "acct", tt.kind)
			require.NoError(t, err)
			assert.Contains(t, sweep, `UPDATE "hive"."BillingReport_acct".`+presto.QuoteIdentifier(tt.expectedTable))
			assert.Contains(t, sweep, "WHERE status <> 'DELETED'")
			assert.Contains(t, sweep, tt.expectedSweep)
		})
	}
}

func TestMergeColumns(t *testing.T) {
	for _, kind := range Kinds {
		inserted := map[string]bool{}
		for _, c := range kind.InsertColumns {
			inserted[c] = true
		}
		assert.True(t, inserted["id"], "%s inserts its key", kind.Name)
		assert.False(t, inserted[lastUpdatedAtColumn], "%s stamps lastUpdatedAt itself", kind.Name)
		for _, c := range kind.UpdateColumns {
			assert.True(t, inserted[c], "%s updates %s without inserting it", kind.Name, c)
		}
	}
}

func TestKindByName(t *testing.T) {
	k, err := KindByName("instances")
	require.NoError(t, err)
	assert.Equal(t, "gcpInstanceInventory", k.Table)

	_, err = KindByName("buckets")
	assert.EqualError(t, err, `unknown inventory kind "buckets"`)
}
