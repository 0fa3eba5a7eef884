// Package loader loads the selected export objects of a billing period into
// the period's raw table.
package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/billing/selector"
	"github.com/kube-reporting/billing-ingest/pkg/events"
	"github.com/kube-reporting/billing-ingest/pkg/objectstore"
)

const (
	DefaultMaxBadRecords    = 10
	DefaultSchemaRetryDelay = 15 * time.Minute
)

// LoadOptions controls a single load attempt.
type LoadOptions struct {
	// Autodetect derives the table schema from the export header. When
	// false, the schema of the existing raw table is reused.
	Autodetect      bool
	MaxBadRecords   int
	SkipLeadingRows int
}

// TableLoader overwrites a table with the contents of CSV objects.
type TableLoader interface {
	LoadCSV(ctx context.Context, bucket string, src selector.Source, dataset, table string, opts LoadOptions) error
	RowCount(ctx context.Context, dataset, table string) (int64, error)
}

// Job is one raw load request.
type Job struct {
	Bucket string
	Key    billing.BillingPeriodKey
	// Payload is the original event, republished verbatim when the export
	// cannot be loaded with either schema.
	Payload json.RawMessage
}

// Result describes the outcome of a raw load. Continue is false when the
// pipeline must stop without treating the invocation as failed.
type Result struct {
	Loaded   bool
	Continue bool
	Source   selector.Source
	Rows     int64
}

type Config struct {
	MaxBadRecords int
	// SchemaRetryDelay delays redelivery of the schema-retry event.
	SchemaRetryDelay time.Duration
}

type RawLoader struct {
	store     objectstore.Store
	tables    TableLoader
	publisher events.Publisher
	cfg       Config
}

func NewRawLoader(store objectstore.Store, tables TableLoader, publisher events.Publisher, cfg Config) *RawLoader {
	if cfg.MaxBadRecords == 0 {
		cfg.MaxBadRecords = DefaultMaxBadRecords
	}
	if cfg.SchemaRetryDelay == 0 {
		cfg.SchemaRetryDelay = DefaultSchemaRetryDelay
	}
	return &RawLoader{
		store:     store,
		tables:    tables,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Load selects the authoritative export under the job's period prefix and
// overwrites the raw table with it.
func (l *RawLoader) Load(ctx context.Context, logger log.FieldLogger, job Job) (Result, error) {
	dataset, table := job.Key.Dataset(), job.Key.RawTable()
	logger = logger.WithField("table", table)

	objects, err := l.store.List(ctx, job.Bucket, job.Key.Prefix+"/")
	if err != nil {
		return Result{}, fmt.Errorf("unable to list exports under %s: %v", job.Key.Prefix, err)
	}
	src, ok := selector.Select(objects)
	if !ok {
		logger.Warnf("no CSV to load under s3://%s/%s, the bucket might be empty", job.Bucket, job.Key.Prefix)
		return Result{Continue: true}, nil
	}
	logger.Infof("loading %s export %s (%d objects, %d bytes)", src.Layout, src.Glob, len(src.Keys), src.Size)

	opts := LoadOptions{
		Autodetect:      true,
		MaxBadRecords:   l.cfg.MaxBadRecords,
		SkipLeadingRows: 1,
	}
	if err := l.tables.LoadCSV(ctx, job.Bucket, src, dataset, table, opts); err != nil {
		logger.WithError(err).Warnf("loading with a detected schema failed, loading into the existing table")
		opts.Autodetect = false
		if err := l.tables.LoadCSV(ctx, job.Bucket, src, dataset, table, opts); err != nil {
			logger.WithError(err).Warnf("loading into the existing table failed, ingestion will be retried after a delay")
			l.publishSchemaRetry(ctx, logger, job)
			return Result{Source: src}, nil
		}
	}

	rows, err := l.tables.RowCount(ctx, dataset, table)
	if err != nil {
		logger.WithError(err).Warnf("unable to count rows of %s", table)
	} else {
		logger.Infof("total %d rows in table %s.%s", rows, dataset, table)
	}

	for _, key := range src.Keys {
		if err := l.store.Delete(ctx, job.Bucket, key); err != nil {
			logger.WithError(err).Warnf("unable to clean up %s", key)
			continue
		}
		logger.Debugf("cleaned up %s", key)
	}

	return Result{Loaded: true, Continue: true, Source: src, Rows: rows}, nil
}

func (l *RawLoader) publishSchemaRetry(ctx context.Context, logger log.FieldLogger, job Job) {
	err := l.publisher.Publish(ctx, events.TopicSchemaRetry, events.Message{
		Body:  job.Payload,
		Delay: l.cfg.SchemaRetryDelay,
	})
	if err != nil {
		logger.WithError(err).Errorf("unable to publish schema retry event")
		return
	}
	logger.Infof("published schema retry event for %s", job.Key.Prefix)
}
