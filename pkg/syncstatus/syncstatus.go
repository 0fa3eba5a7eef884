// Package syncstatus records when a connector's billing data was last
// ingested successfully.
package syncstatus

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const jobType = "billing-ingest"

var tableColumns = []presto.Column{
	{Name: "accountId", Type: "varchar"},
	{Name: "connectorId", Type: "varchar"},
	{Name: "jobType", Type: "varchar"},
	{Name: "cloudProviderId", Type: "varchar"},
	{Name: "lastSuccessfullExecutionAt", Type: "timestamp"},
}

type Config struct {
	Catalog         string
	InternalDataset string
}

type Marker struct {
	execer presto.Execer
	clock  clock.Clock
	cfg    Config
}

func NewMarker(execer presto.Execer, clock clock.Clock, cfg Config) *Marker {
	return &Marker{execer: execer, clock: clock, cfg: cfg}
}

func (m *Marker) tableName() string {
	return presto.FullyQualifiedTableName(m.cfg.Catalog, m.cfg.InternalDataset, billing.SyncStatusTable)
}

// EnsureTable creates the internal schema and the sync status table when
// they are missing.
func (m *Marker) EnsureTable(ctx context.Context) error {
	if err := presto.CreateSchema(ctx, m.execer, m.cfg.Catalog, m.cfg.InternalDataset); err != nil {
		return fmt.Errorf("unable to create schema %s: %v", m.cfg.InternalDataset, err)
	}
	err := presto.CreateTable(ctx, m.execer, m.cfg.Catalog, m.cfg.InternalDataset, billing.SyncStatusTable, tableColumns, true)
	if err != nil {
		return fmt.Errorf("unable to create table %s: %v", billing.SyncStatusTable, err)
	}
	return nil
}

// MarkSynced appends a row stamped with the current time.
func (m *Marker) MarkSynced(ctx context.Context, accountID, connectorID string) error {
	query := fmt.Sprintf("SELECT %s, %s, %s, %s, TIMESTAMP %s",
		presto.StringLiteral(accountID),
		presto.StringLiteral(connectorID),
		presto.StringLiteral(jobType),
		presto.StringLiteral(billing.CloudProvider),
		presto.StringLiteral(presto.Timestamp(m.clock.Now().UTC())),
	)
	target := fmt.Sprintf("%s (%s)", m.tableName(), presto.GenerateQuotedColumnsListSQL(tableColumns))
	if err := presto.InsertInto(ctx, m.execer, target, query); err != nil {
		return fmt.Errorf("failed to update %s for connector %s: %v", billing.SyncStatusTable, connectorID, err)
	}
	return nil
}
