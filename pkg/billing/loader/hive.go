package loader

import (
	"context"
	"fmt"
	"path"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/billing-ingest/pkg/billing/selector"
	"github.com/kube-reporting/billing-ingest/pkg/db"
	"github.com/kube-reporting/billing-ingest/pkg/hive"
	"github.com/kube-reporting/billing-ingest/pkg/objectstore"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const stagingTableSuffix = "_staging"

type HiveTableLoaderConfig struct {
	// Catalog is the Presto catalog backed by the Hive metastore.
	Catalog       string
	StagingBucket string
	StagingPrefix string
	PeekBytes     int64
}

// HiveTableLoader stages export objects under a Hive external CSV table and
// rewrites the raw table from it through Presto.
type HiveTableLoader struct {
	logger log.FieldLogger
	store  objectstore.Store
	hive   db.Execer
	presto presto.ExecQueryer
	cfg    HiveTableLoaderConfig
}

var _ TableLoader = (*HiveTableLoader)(nil)

func NewHiveTableLoader(logger log.FieldLogger, store objectstore.Store, hiveExecer db.Execer, prestoExecQueryer presto.ExecQueryer, cfg HiveTableLoaderConfig) *HiveTableLoader {
	if cfg.PeekBytes == 0 {
		cfg.PeekBytes = DefaultPeekBytes
	}
	return &HiveTableLoader{
		logger: logger.WithField("component", "hiveTableLoader"),
		store:  store,
		hive:   hiveExecer,
		presto: prestoExecQueryer,
		cfg:    cfg,
	}
}

func (l *HiveTableLoader) LoadCSV(ctx context.Context, bucket string, src selector.Source, dataset, table string, opts LoadOptions) error {
	if len(src.Keys) == 0 {
		return fmt.Errorf("no objects to load into %s", table)
	}
	logger := l.logger.WithField("table", table)

	columns, err := l.targetColumns(ctx, bucket, src, dataset, table, opts)
	if err != nil {
		return err
	}

	stagingTable := table + stagingTableSuffix
	stagingPrefix := path.Join(l.cfg.StagingPrefix, dataset, table) + "/"
	defer l.cleanup(ctx, logger, dataset, stagingTable, stagingPrefix)

	if err := l.stage(ctx, bucket, src, stagingPrefix); err != nil {
		return err
	}
	if err := l.createStagingTable(ctx, dataset, stagingTable, stagingPrefix, columns, opts.SkipLeadingRows); err != nil {
		return err
	}

	stagingName := presto.FullyQualifiedTableName(l.cfg.Catalog, dataset, stagingTable)
	if where := badRecordCondition(columns); where != "" {
		bad, err := presto.CountRows(ctx, l.presto, stagingName, where)
		if err != nil {
			return fmt.Errorf("unable to count bad records in %s: %v", stagingTable, err)
		}
		if bad > int64(opts.MaxBadRecords) {
			return fmt.Errorf("%d bad records in %s exceed the limit of %d", bad, src.Glob, opts.MaxBadRecords)
		}
		if bad > 0 {
			logger.Warnf("skipping %d bad records in %s", bad, src.Glob)
		}
	}

	selectQuery := fmt.Sprintf("SELECT %s FROM %s", castColumnsSQL(columns), stagingName)
	if opts.Autodetect {
		if err := presto.DropTable(ctx, l.presto, l.cfg.Catalog, dataset, table, true); err != nil {
			return fmt.Errorf("unable to drop table %s: %v", table, err)
		}
		if err := presto.CreateTableAs(ctx, l.presto, l.cfg.Catalog, dataset, table, false, selectQuery); err != nil {
			return fmt.Errorf("unable to create table %s from %s: %v", table, src.Glob, err)
		}
		return nil
	}

	tableName := presto.FullyQualifiedTableName(l.cfg.Catalog, dataset, table)
	if err := presto.DeleteFrom(ctx, l.presto, tableName, ""); err != nil {
		return fmt.Errorf("unable to truncate table %s: %v", table, err)
	}
	if err := presto.InsertInto(ctx, l.presto, tableName, selectQuery); err != nil {
		return fmt.Errorf("unable to insert %s into table %s: %v", src.Glob, table, err)
	}
	return nil
}

func (l *HiveTableLoader) RowCount(ctx context.Context, dataset, table string) (int64, error) {
	return presto.CountRows(ctx, l.presto, presto.FullyQualifiedTableName(l.cfg.Catalog, dataset, table), "")
}

func (l *HiveTableLoader) targetColumns(ctx context.Context, bucket string, src selector.Source, dataset, table string, opts LoadOptions) ([]presto.Column, error) {
	if !opts.Autodetect {
		columns, err := presto.QueryMetadata(ctx, l.presto, l.cfg.Catalog, dataset, table)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			return nil, fmt.Errorf("table %s has no columns to reuse", table)
		}
		return columns, nil
	}

	first := src.Keys[0]
	sample, err := l.store.Peek(ctx, bucket, first, l.cfg.PeekBytes)
	if err != nil {
		return nil, fmt.Errorf("unable to sample %s: %v", first, err)
	}
	columns, err := DetectSchema(first, sample, int64(len(sample)) < l.cfg.PeekBytes)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("export %s has no columns", first)
	}
	return columns, nil
}

func (l *HiveTableLoader) stage(ctx context.Context, bucket string, src selector.Source, stagingPrefix string) error {
	if err := l.store.DeletePrefix(ctx, l.cfg.StagingBucket, stagingPrefix); err != nil {
		return fmt.Errorf("unable to clear staging prefix %s: %v", stagingPrefix, err)
	}
	for i, key := range src.Keys {
		// Hive reads every object under the location; the ordinal keeps
		// equally named partitions from different folders apart.
		dst := fmt.Sprintf("%s%05d-%s", stagingPrefix, i, path.Base(key))
		if err := l.store.Copy(ctx, bucket, key, l.cfg.StagingBucket, dst); err != nil {
			return fmt.Errorf("unable to stage %s: %v", key, err)
		}
	}
	return nil
}

func (l *HiveTableLoader) createStagingTable(ctx context.Context, dataset, stagingTable, stagingPrefix string, columns []presto.Column, skipRows int) error {
	location, err := hive.S3Location(l.cfg.StagingBucket, stagingPrefix)
	if err != nil {
		return err
	}
	hiveColumns := make([]hive.Column, len(columns))
	for i, c := range columns {
		hiveColumns[i] = hive.Column{Name: c.Name, Type: "string"}
	}
	if err := hive.ExecuteDropTable(ctx, l.hive, dataset, stagingTable, true); err != nil {
		return fmt.Errorf("unable to drop staging table %s: %v", stagingTable, err)
	}
	params := hive.CSVTableParameters(dataset, stagingTable, location, hiveColumns, skipRows)
	if err := hive.ExecuteCreateTable(ctx, l.hive, params, false); err != nil {
		return fmt.Errorf("unable to create staging table %s: %v", stagingTable, err)
	}
	return nil
}

func (l *HiveTableLoader) cleanup(ctx context.Context, logger log.FieldLogger, dataset, stagingTable, stagingPrefix string) {
	if err := hive.ExecuteDropTable(ctx, l.hive, dataset, stagingTable, true); err != nil {
		logger.WithError(err).Warnf("unable to drop staging table %s", stagingTable)
	}
	if err := l.store.DeletePrefix(ctx, l.cfg.StagingBucket, stagingPrefix); err != nil {
		logger.WithError(err).Warnf("unable to remove staged objects under %s", stagingPrefix)
	}
}

func isVarchar(typ string) bool {
	return strings.HasPrefix(strings.ToLower(typ), typeVarchar)
}

// badRecordCondition matches staging rows where a typed column holds a
// value that does not cast.
func badRecordCondition(columns []presto.Column) string {
	var conds []string
	for _, c := range columns {
		if isVarchar(c.Type) {
			continue
		}
		col := presto.QuoteIdentifier(c.Name)
		conds = append(conds, fmt.Sprintf("(NULLIF(TRIM(%s), '') IS NOT NULL AND TRY_CAST(%s AS %s) IS NULL)", col, col, c.Type))
	}
	return strings.Join(conds, " OR ")
}

func castColumnsSQL(columns []presto.Column) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		col := presto.QuoteIdentifier(c.Name)
		if isVarchar(c.Type) {
			out[i] = col
			continue
		}
		out[i] = fmt.Sprintf("TRY_CAST(NULLIF(TRIM(%s), '') AS %s) AS %s", col, c.Type, col)
	}
	return strings.Join(out, ", ")
}
