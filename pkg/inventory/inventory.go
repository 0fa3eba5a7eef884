// Package inventory keeps the point-in-time inventory tables current. Every
// run merges the latest staging shards into the canonical table and then
// marks records that were not refreshed recently as deleted.
package inventory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

type Config struct {
	Catalog string
}

type MergeSweeper struct {
	execer presto.ExecQueryer
	clock  clock.Clock
	cfg    Config
}

func NewMergeSweeper(execer presto.ExecQueryer, clock clock.Clock, cfg Config) *MergeSweeper {
	return &MergeSweeper{
		execer: execer,
		clock:  clock,
		cfg:    cfg,
	}
}

// Result summarizes a run for logging and metrics.
type Result struct {
	Shards []string
	Merged bool
}

// Run merges then sweeps the kind's table in the account's dataset. The
// sweep runs even when there was nothing to merge.
func (m *MergeSweeper) Run(ctx context.Context, logger log.FieldLogger, accountID string, kind Kind) (Result, error) {
	dataset := billing.DatasetName(accountID)
	logger = logger.WithFields(log.Fields{
		"component": "MergeSweeper",
		"table":     kind.Table,
	})
	now := m.clock.Now().UTC()

	shards, err := m.shards(ctx, dataset, kind)
	if err != nil {
		return Result{}, err
	}
	res := Result{Shards: shards}
	tmplCtx := &queryContext{
		Kind:                kind,
		Target:              presto.FullyQualifiedTableName(m.cfg.Catalog, dataset, kind.Table),
		Shards:              make([]string, len(shards)),
		Now:                 now,
		StaleBefore:         now.Add(-kind.StaleAfter),
		LastUpdatedAtColumn: lastUpdatedAtColumn,
		DeletedStatus:       deletedStatus,
	}
	for i, shard := range shards {
		tmplCtx.Shards[i] = presto.FullyQualifiedTableName(m.cfg.Catalog, dataset, shard)
	}

	if len(shards) == 0 {
		logger.Warnf("no %s shards found in %s, skipping merge", kind.ShardPrefix, dataset)
	} else {
		if err := m.exec(ctx, "merge", tmplCtx); err != nil {
			return res, fmt.Errorf("failed to merge into %s: %v", kind.Table, err)
		}
		res.Merged = true
		logger.Infof("merged %d shards into %s", len(shards), kind.Table)
	}

	if err := m.exec(ctx, "sweep", tmplCtx); err != nil {
		return res, fmt.Errorf("failed to mark stale %s rows as deleted: %v", kind.Table, err)
	}
	logger.Infof("marked %s rows not updated since %s as deleted", kind.Table, presto.Timestamp(tmplCtx.StaleBefore))
	return res, nil
}

// shards lists the staging tables named "<prefix>_*", sorted. The metastore
// reports table names in lower case and LIKE is case sensitive.
func (m *MergeSweeper) shards(ctx context.Context, dataset string, kind Kind) ([]string, error) {
	pattern := strings.ToLower(kind.ShardPrefix) + `\_%`
	query := fmt.Sprintf(`SHOW TABLES FROM %s.%s LIKE %s ESCAPE '\'`,
		presto.QuoteIdentifier(m.cfg.Catalog), presto.QuoteIdentifier(dataset), presto.StringLiteral(pattern))
	rows, err := m.execer.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s shards: %v", kind.ShardPrefix, err)
	}
	var shards []string
	for _, row := range rows {
		name, ok := row["Table"].(string)
		if !ok {
			return nil, fmt.Errorf("failed to convert the Presto table name to a string")
		}
		shards = append(shards, name)
	}
	sort.Strings(shards)
	return shards, nil
}

func (m *MergeSweeper) exec(ctx context.Context, name string, tmplCtx *queryContext) error {
	query, err := renderQuery(name, tmplCtx)
	if err != nil {
		return err
	}
	return m.execer.Exec(ctx, query)
}
