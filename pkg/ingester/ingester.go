// Package ingester sequences the billing and inventory pipelines for each
// inbound event and runs the consumers that feed them.
package ingester

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/clock"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/billing/columns"
	"github.com/kube-reporting/billing-ingest/pkg/billing/loader"
	"github.com/kube-reporting/billing-ingest/pkg/billing/rewrite"
	"github.com/kube-reporting/billing-ingest/pkg/events"
	"github.com/kube-reporting/billing-ingest/pkg/inventory"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

type Config struct {
	Catalog string
}

// Ingester handles billing and inventory events.
type Ingester struct {
	logger    log.FieldLogger
	clock     clock.Clock
	cfg       Config
	loader    RawLoader
	rewriter  Rewriter
	queryer   presto.Queryer
	marker    SyncMarker
	sweeper   MergeSweeper
	publisher events.Publisher
	markups   billing.MarkupSource
}

func New(
	logger log.FieldLogger,
	clock clock.Clock,
	cfg Config,
	rawLoader RawLoader,
	rewriter Rewriter,
	queryer presto.Queryer,
	marker SyncMarker,
	sweeper MergeSweeper,
	publisher events.Publisher,
	markups billing.MarkupSource,
) *Ingester {
	return &Ingester{
		logger:    logger.WithField("component", "ingester"),
		clock:     clock,
		cfg:       cfg,
		loader:    rawLoader,
		rewriter:  rewriter,
		queryer:   queryer,
		marker:    marker,
		sweeper:   sweeper,
		publisher: publisher,
		markups:   markups,
	}
}

// tableCreatedEvent announces a freshly loaded raw table.
type tableCreatedEvent struct {
	TableID       string          `json:"tableId"`
	ColumnMapping columns.Mapping `json:"azure_column_mapping"`
}

// HandleBilling runs the billing pipeline for one export notification.
// Malformed events and unusable exports fail permanently.
func (ing *Ingester) HandleBilling(ctx context.Context, body []byte) error {
	inv := newInvocation(ing.logger, ing.clock, flowBilling)
	return inv.finish(ing.handleBilling(ctx, inv, body))
}

func (ing *Ingester) handleBilling(ctx context.Context, inv *Invocation, body []byte) error {
	var event billing.BillingEvent
	payload, err := events.Decode(body, &event)
	if err != nil {
		return events.Permanent(err)
	}
	if err := event.Validate(); err != nil {
		return events.Permanent(err)
	}
	inv.setAccount(event.AccountID)

	key, err := billing.NewBillingPeriodKey(event)
	if err != nil {
		return events.Permanent(err)
	}
	logger := inv.Logger.WithFields(log.Fields{
		"connectorId": key.ConnectorID,
		"period":      key.Period.Name,
	})
	logger.Infof("processing %s export %s", key.Period.Name, event.Path)

	err = inv.step("ensureTables", func() error {
		return ing.rewriter.EnsureTables(ctx, logger, key)
	})
	if err != nil {
		return err
	}

	var res loader.Result
	err = inv.step("load", func() error {
		var err error
		res, err = ing.loader.Load(ctx, logger, loader.Job{Bucket: event.Bucket, Key: key, Payload: payload})
		return err
	})
	if err != nil {
		return err
	}
	if res.Loaded {
		rowsLoadedCounter.Add(float64(res.Rows))
	}
	if !res.Continue {
		schemaRetriesCounter.Inc()
		logger.Infof("export handed off for a schema retry, stopping")
		return nil
	}

	present, err := columns.FetchPresent(ctx, ing.queryer, ing.cfg.Catalog, key.Dataset(), key.RawTable())
	if err != nil {
		return err
	}
	if !res.Loaded && len(present) == 0 {
		logger.Infof("nothing loaded and %s does not exist yet, stopping", key.RawTable())
		return nil
	}
	mapping, err := columns.Resolve(present)
	if err != nil {
		return events.Permanent(err)
	}
	logger.Debugf("resolved column mapping %+v", mapping)

	ing.publishTableCreated(ctx, logger, key, mapping)

	subscriptions, err := ing.rewriter.ResolveSubscriptions(ctx, key, mapping)
	if err != nil {
		return err
	}
	logger.Infof("found %d subscriptions in %s", len(subscriptions), key.RawTable())

	job := rewrite.Job{
		Key:           key,
		Mapping:       mapping,
		Subscriptions: subscriptions,
		MarkupFactor:  billing.MarkupFactor(event.CostMarkUp, ing.markups, event.AccountID),
	}
	if err := inv.step("preAggregated", func() error { return ing.rewriter.PreAggregated(ctx, logger, job) }); err != nil {
		return err
	}
	if err := inv.step("unified", func() error { return ing.rewriter.Unified(ctx, logger, job) }); err != nil {
		return err
	}
	if err := ing.marker.MarkSynced(ctx, key.AccountID, key.ConnectorID); err != nil {
		logger.WithError(err).Warnf("unable to update the connector sync status")
	}
	return inv.step("costAggregated", func() error { return ing.rewriter.CostAggregate(ctx, logger, job) })
}

func (ing *Ingester) publishTableCreated(ctx context.Context, logger log.FieldLogger, key billing.BillingPeriodKey, mapping columns.Mapping) {
	event := tableCreatedEvent{
		TableID:       fmt.Sprintf("%s.%s.%s", ing.cfg.Catalog, key.Dataset(), key.RawTable()),
		ColumnMapping: mapping,
	}
	if err := events.PublishJSON(ctx, ing.publisher, events.TopicTableCreated, event, 0); err != nil {
		logger.WithError(err).Warnf("unable to publish table created event for %s", event.TableID)
		return
	}
	logger.Debugf("published table created event for %s", event.TableID)
}

// HandleInventory refreshes the inventory tables of the event's account.
func (ing *Ingester) HandleInventory(ctx context.Context, body []byte) error {
	inv := newInvocation(ing.logger, ing.clock, flowInventory)
	return inv.finish(ing.handleInventory(ctx, inv, body))
}

func (ing *Ingester) handleInventory(ctx context.Context, inv *Invocation, body []byte) error {
	var event billing.InventoryEvent
	if _, err := events.Decode(body, &event); err != nil {
		return events.Permanent(err)
	}
	if event.AccountID == "" {
		return events.Permanent(errors.New("event is missing accountId"))
	}
	inv.setAccount(event.AccountID)

	kinds := inventory.Kinds
	if event.Kind != "" {
		kind, err := inventory.KindByName(event.Kind)
		if err != nil {
			return events.Permanent(err)
		}
		kinds = []inventory.Kind{kind}
	}
	for _, kind := range kinds {
		err := inv.step(kind.Name, func() error {
			_, err := ing.sweeper.Run(ctx, inv.Logger, event.AccountID, kind)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// isPermanent also treats the typed pipeline errors as permanent when they
// reach the consumer unwrapped.
func isPermanent(err error) bool {
	if events.IsPermanent(err) {
		return true
	}
	var formatErr *billing.FormatError
	var schemaErr *columns.SchemaError
	return errors.As(err, &formatErr) || errors.As(err, &schemaErr)
}
