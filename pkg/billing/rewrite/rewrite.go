// Package rewrite keeps the derived billing tables consistent with a
// freshly loaded raw table by deleting and re-inserting one billing month
// at a time.
package rewrite

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/billing/columns"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const (
	DefaultInternalDataset      = "CE_INTERNAL"
	DefaultCostAggregateTimeout = 180 * time.Second
)

type Config struct {
	Catalog string
	// InternalDataset is the shared schema holding costAggregated.
	InternalDataset      string
	CostAggregateTimeout time.Duration
}

// Job is one billing month's rewrite.
type Job struct {
	Key           billing.BillingPeriodKey
	Mapping       columns.Mapping
	Subscriptions []string
	MarkupFactor  float64
}

type Rewriter struct {
	execer presto.ExecQueryer
	cfg    Config
}

func NewRewriter(execer presto.ExecQueryer, cfg Config) *Rewriter {
	if cfg.InternalDataset == "" {
		cfg.InternalDataset = DefaultInternalDataset
	}
	if cfg.CostAggregateTimeout == 0 {
		cfg.CostAggregateTimeout = DefaultCostAggregateTimeout
	}
	return &Rewriter{execer: execer, cfg: cfg}
}

func (r *Rewriter) tableName(dataset, table string) string {
	return presto.FullyQualifiedTableName(r.cfg.Catalog, dataset, table)
}

// EnsureTables creates the account dataset, its derived tables and the
// shared cost aggregate table when missing.
func (r *Rewriter) EnsureTables(ctx context.Context, logger log.FieldLogger, key billing.BillingPeriodKey) error {
	dataset := key.Dataset()
	if err := presto.CreateSchema(ctx, r.execer, r.cfg.Catalog, dataset); err != nil {
		return fmt.Errorf("unable to create dataset %s: %v", dataset, err)
	}
	if err := presto.CreateSchema(ctx, r.execer, r.cfg.Catalog, r.cfg.InternalDataset); err != nil {
		return fmt.Errorf("unable to create dataset %s: %v", r.cfg.InternalDataset, err)
	}
	tables := []struct {
		dataset string
		name    string
		columns []presto.Column
	}{
		{dataset, billing.UnifiedTable, unifiedColumns},
		{dataset, billing.PreAggregatedTable, preAggregatedColumns},
		{r.cfg.InternalDataset, billing.CostAggregatedTable, costAggregatedColumns},
	}
	for _, t := range tables {
		if err := presto.CreateTransactionalTable(ctx, r.execer, r.cfg.Catalog, t.dataset, t.name, t.columns, true); err != nil {
			return fmt.Errorf("unable to create table %s.%s: %v", t.dataset, t.name, err)
		}
		logger.Debugf("table %s.%s exists", t.dataset, t.name)
	}
	return nil
}

// ResolveSubscriptions returns the distinct subscription ids of the raw
// table, sorted.
func (r *Rewriter) ResolveSubscriptions(ctx context.Context, key billing.BillingPeriodKey, mapping columns.Mapping) ([]string, error) {
	query, err := renderQuery("distinctSubscriptions", &queryContext{
		Source:  r.tableName(key.Dataset(), key.RawTable()),
		Mapping: mapping,
	})
	if err != nil {
		return nil, err
	}
	rows, err := r.execer.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve distinct subscription ids: %v", err)
	}
	subscriptions := make([]string, 0, len(rows))
	for _, row := range rows {
		switch v := row["subscriptionid"].(type) {
		case nil:
		case string:
			subscriptions = append(subscriptions, v)
		default:
			subscriptions = append(subscriptions, fmt.Sprint(v))
		}
	}
	sort.Strings(subscriptions)
	return subscriptions, nil
}

func (r *Rewriter) PreAggregated(ctx context.Context, logger log.FieldLogger, job Job) error {
	return r.rewriteSubscriptions(ctx, logger, job, billing.PreAggregatedTable, "preAggregatedDelete", "preAggregatedInsert")
}

func (r *Rewriter) Unified(ctx context.Context, logger log.FieldLogger, job Job) error {
	return r.rewriteSubscriptions(ctx, logger, job, billing.UnifiedTable, "unifiedDelete", "unifiedInsert")
}

// CostAggregate rolls the account's unified rows up per day, bounded by the
// configured timeout.
func (r *Rewriter) CostAggregate(ctx context.Context, logger log.FieldLogger, job Job) error {
	start, end := job.Key.MonthRange()
	tmplCtx := &queryContext{
		Target:     r.tableName(r.cfg.InternalDataset, billing.CostAggregatedTable),
		Source:     r.tableName(job.Key.Dataset(), billing.UnifiedTable),
		TimeColumn: "day",
		Start:      start,
		End:        end,
		Provider:   billing.CloudProvider,
		AccountID:  job.Key.AccountID,
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.CostAggregateTimeout)
	defer cancel()
	err := r.rewrite(ctx, logger, billing.CostAggregatedTable, tmplCtx, "costAggregatedDelete", "costAggregatedInsert")
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s rewrite timed out after %s: %v", billing.CostAggregatedTable, r.cfg.CostAggregateTimeout, err)
	}
	return err
}

func (r *Rewriter) rewriteSubscriptions(ctx context.Context, logger log.FieldLogger, job Job, table, deleteTmpl, insertTmpl string) error {
	if len(job.Subscriptions) == 0 {
		logger.Warnf("no subscriptions found in %s, skipping %s", job.Key.RawTable(), table)
		return nil
	}
	start, end := job.Key.MonthRange()
	tmplCtx := &queryContext{
		Target:        r.tableName(job.Key.Dataset(), table),
		Source:        r.tableName(job.Key.Dataset(), job.Key.RawTable()),
		TimeColumn:    "startTime",
		Mapping:       job.Mapping,
		Subscriptions: job.Subscriptions,
		Start:         start,
		End:           end,
		Provider:      billing.CloudProvider,
		TenantID:      job.Key.TenantID,
		AccountID:     job.Key.AccountID,
		MarkupFactor:  job.MarkupFactor,
	}
	return r.rewrite(ctx, logger, table, tmplCtx, deleteTmpl, insertTmpl)
}

// rewrite deletes the window then inserts its replacement. The insert only
// runs once the delete succeeded.
func (r *Rewriter) rewrite(ctx context.Context, logger log.FieldLogger, table string, tmplCtx *queryContext, deleteTmpl, insertTmpl string) error {
	deleteQuery, err := renderQuery(deleteTmpl, tmplCtx)
	if err != nil {
		return err
	}
	insertQuery, err := renderQuery(insertTmpl, tmplCtx)
	if err != nil {
		return err
	}

	logger = logger.WithField("table", table)
	logger.Infof("loading into %s table", tmplCtx.Target)
	if err := r.execer.Exec(ctx, deleteQuery); err != nil {
		return fmt.Errorf("couldn't delete existing rows of %s: %v", table, err)
	}
	if err := r.execer.Exec(ctx, insertQuery); err != nil {
		return fmt.Errorf("failed to insert into %s: %v", table, err)
	}
	logger.Infof("loaded into %s table", tmplCtx.Target)
	return nil
}
