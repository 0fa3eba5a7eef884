package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/billing/loader"
	"github.com/kube-reporting/billing-ingest/pkg/billing/rewrite"
	"github.com/kube-reporting/billing-ingest/pkg/config"
	"github.com/kube-reporting/billing-ingest/pkg/db"
	"github.com/kube-reporting/billing-ingest/pkg/events"
	"github.com/kube-reporting/billing-ingest/pkg/hive"
	"github.com/kube-reporting/billing-ingest/pkg/ingester"
	"github.com/kube-reporting/billing-ingest/pkg/inventory"
	"github.com/kube-reporting/billing-ingest/pkg/objectstore"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
	"github.com/kube-reporting/billing-ingest/pkg/syncstatus"
)

// options holds every flag shared by the commands that build an Ingester.
type options struct {
	ConfigFile string

	HiveHost        string
	HiveUser        string
	PrestoHost      string
	PrestoUser      string
	Catalog         string
	InternalDataset string
	ConnBackoff     time.Duration
	ConnMaxRetries  int
	LogDMLQueries   bool
	LogDDLQueries   bool

	AWSRegion            string
	S3Endpoint           string
	SQSEndpoint          string
	StagingBucket        string
	StagingPrefix        string
	PeekBytes            int64
	MaxBadRecords        int
	CostAggregateTimeout time.Duration

	BillingQueueURL      string
	SchemaRetryQueueURL  string
	TableCreatedQueueURL string
	InventoryQueueURL    string
	SchemaRetryDelay     time.Duration
}

// components are the long lived dependencies of the commands.
type components struct {
	logger    log.FieldLogger
	config    *config.Holder
	sqsAPI    sqsiface.SQSAPI
	publisher *events.SQSPublisher
	presto    *presto.DB
	ingester  *ingester.Ingester

	closers []func() error
}

func (c *components) Close() {
	for _, closer := range c.closers {
		if err := closer(); err != nil {
			c.logger.WithError(err).Warnf("error closing connection")
		}
	}
}

func (o options) queues() map[string]string {
	schemaRetry := o.SchemaRetryQueueURL
	if schemaRetry == "" {
		schemaRetry = o.BillingQueueURL
	}
	return map[string]string{
		events.TopicSchemaRetry:  schemaRetry,
		events.TopicTableCreated: o.TableCreatedQueueURL,
		events.TopicInventory:    o.InventoryQueueURL,
	}
}

// newComponents connects to Presto and Hive, ensures the shared tables
// exist and wires the pipeline.
func newComponents(ctx context.Context, logger log.FieldLogger, o options) (*components, error) {
	logger.Debugf("options: %s", spew.Sdump(o))

	cfgHolder, err := config.Load(logger.WithField("component", "config"), o.ConfigFile)
	if err != nil {
		return nil, err
	}
	logger.Debugf("config: %s", spew.Sdump(cfgHolder.Get()))

	c := &components{logger: logger, config: cfgHolder}

	var prestoConn, hiveConn *sql.DB
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prestoConn, err = presto.NewPrestoConnWithRetry(gctx, logger, presto.ConnString(o.PrestoUser, o.PrestoHost, o.Catalog, "default"), o.ConnBackoff, o.ConnMaxRetries)
		if err != nil {
			return fmt.Errorf("failed to connect to presto: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		hiveConn, err = hive.Open(gctx, logger, hive.DSN(o.HiveUser, o.HiveHost), o.ConnBackoff, o.ConnMaxRetries)
		if err != nil {
			return fmt.Errorf("failed to connect to hive: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if prestoConn != nil {
			prestoConn.Close()
		}
		if hiveConn != nil {
			hiveConn.Close()
		}
		return nil, err
	}
	c.closers = append(c.closers, prestoConn.Close, hiveConn.Close)

	prestoQueryer := db.NewLoggingQueryer(prestoConn, logger.WithField("component", "presto"), "presto", o.LogDMLQueries)
	hiveExecer := db.NewLoggingExecer(hiveConn, logger.WithField("component", "hive"), "hive", o.LogDDLQueries)
	c.presto = presto.NewDB(prestoQueryer)

	store, err := objectstore.NewS3Store(o.AWSRegion, o.S3Endpoint)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.sqsAPI, err = events.NewSQSAPI(o.AWSRegion, o.SQSEndpoint)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.publisher = events.NewSQSPublisher(c.sqsAPI, o.queues())

	realClock := clock.RealClock{}
	tables := loader.NewHiveTableLoader(logger.WithField("component", "loader"), store, hiveExecer, c.presto, loader.HiveTableLoaderConfig{
		Catalog:       o.Catalog,
		StagingBucket: o.StagingBucket,
		StagingPrefix: o.StagingPrefix,
		PeekBytes:     o.PeekBytes,
	})
	rawLoader := loader.NewRawLoader(store, tables, c.publisher, loader.Config{
		MaxBadRecords:    o.MaxBadRecords,
		SchemaRetryDelay: o.SchemaRetryDelay,
	})
	rewriter := rewrite.NewRewriter(c.presto, rewrite.Config{
		Catalog:              o.Catalog,
		InternalDataset:      o.InternalDataset,
		CostAggregateTimeout: o.CostAggregateTimeout,
	})
	marker := syncstatus.NewMarker(c.presto, realClock, syncstatus.Config{
		Catalog:         o.Catalog,
		InternalDataset: o.InternalDataset,
	})
	if err := marker.EnsureTable(ctx); err != nil {
		c.Close()
		return nil, err
	}
	sweeper := inventory.NewMergeSweeper(c.presto, realClock, inventory.Config{Catalog: o.Catalog})

	c.ingester = ingester.New(
		logger,
		realClock,
		ingester.Config{Catalog: o.Catalog},
		rawLoader,
		rewriter,
		c.presto,
		marker,
		sweeper,
		c.publisher,
		cfgHolder,
	)
	return c, nil
}
