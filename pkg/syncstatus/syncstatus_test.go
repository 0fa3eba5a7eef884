package syncstatus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/presto/mock"
)

const table = `"hive"."CE_INTERNAL"."connectorDataSyncStatus"`

func TestMarkSynced(t *testing.T) {
	tests := map[string]struct {
		execErr     error
		expectedErr string
	}{
		"inserts a status row": {},
		"insert failure": {
			execErr:     errors.New("boom"),
			expectedErr: "failed to update connectorDataSyncStatus for connector c'1: boom",
		},
	}

	for testName, tt := range tests {
		tt := tt
		t.Run(testName, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			ctx := context.Background()
			execer := mock.NewMockExecQueryer(ctrl)
			execer.EXPECT().Exec(ctx, "INSERT INTO "+table+
				` ("accountId","connectorId","jobType","cloudProviderId","lastSuccessfullExecutionAt")`+
				` SELECT 'acct', 'c''1', 'billing-ingest', 'AZURE', TIMESTAMP '2021-03-01 12:30:00.000'`).Return(tt.execErr)

			fakeClock := clock.NewFakeClock(time.Date(2021, time.March, 1, 12, 30, 0, 0, time.UTC))
			m := NewMarker(execer, fakeClock, Config{Catalog: "hive", InternalDataset: "CE_INTERNAL"})
			err := m.MarkSynced(ctx, "acct", "c'1")
			if tt.expectedErr != "" {
				assert.EqualError(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnsureTable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	ctx := context.Background()
	execer := mock.NewMockExecQueryer(ctrl)
	gomock.InOrder(
		execer.EXPECT().Exec(ctx, `CREATE SCHEMA IF NOT EXISTS "hive"."CE_INTERNAL"`).Return(nil),
		execer.EXPECT().Exec(ctx, "CREATE TABLE IF NOT EXISTS "+table+
			` ("accountId" varchar, "connectorId" varchar, "jobType" varchar, "cloudProviderId" varchar, "lastSuccessfullExecutionAt" timestamp)`).Return(nil),
	)

	m := NewMarker(execer, clock.RealClock{}, Config{Catalog: "hive", InternalDataset: "CE_INTERNAL"})
	assert.NoError(t, m.EnsureTable(ctx))
}
