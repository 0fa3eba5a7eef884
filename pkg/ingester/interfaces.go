package ingester

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/billing/columns"
	"github.com/kube-reporting/billing-ingest/pkg/billing/loader"
	"github.com/kube-reporting/billing-ingest/pkg/billing/rewrite"
	"github.com/kube-reporting/billing-ingest/pkg/inventory"
)

type RawLoader interface {
	Load(ctx context.Context, logger log.FieldLogger, job loader.Job) (loader.Result, error)
}

type Rewriter interface {
	EnsureTables(ctx context.Context, logger log.FieldLogger, key billing.BillingPeriodKey) error
	ResolveSubscriptions(ctx context.Context, key billing.BillingPeriodKey, mapping columns.Mapping) ([]string, error)
	PreAggregated(ctx context.Context, logger log.FieldLogger, job rewrite.Job) error
	Unified(ctx context.Context, logger log.FieldLogger, job rewrite.Job) error
	CostAggregate(ctx context.Context, logger log.FieldLogger, job rewrite.Job) error
}

type SyncMarker interface {
	MarkSynced(ctx context.Context, accountID, connectorID string) error
}

type MergeSweeper interface {
	Run(ctx context.Context, logger log.FieldLogger, accountID string, kind inventory.Kind) (inventory.Result, error)
}

var (
	_ RawLoader    = (*loader.RawLoader)(nil)
	_ Rewriter     = (*rewrite.Rewriter)(nil)
	_ MergeSweeper = (*inventory.MergeSweeper)(nil)
)
