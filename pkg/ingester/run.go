package ingester

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kube-reporting/billing-ingest/pkg/events"
	"github.com/kube-reporting/billing-ingest/pkg/presto"
)

const shutdownTimeout = 10 * time.Second

// QueueConfig configures the consumers of one queue. An empty QueueURL
// disables them.
type QueueConfig struct {
	events.ConsumerConfig
	Workers int
}

type RunConfig struct {
	ListenAddr string
	Billing    QueueConfig
	Inventory  QueueConfig
}

// Run serves HTTP and consumes both queues until ctx is cancelled or one of
// them fails. scheduler may be nil.
func Run(ctx context.Context, logger log.FieldLogger, cfg RunConfig, ing *Ingester, sqsAPI sqsiface.SQSAPI, healthQueryer presto.Queryer, scheduler *Scheduler) error {
	health := newHealthChecker(logger, healthQueryer)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: newRouter(logger, health),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("HTTP server listening on %s", cfg.ListenAddr)
		err := httpServer.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		logger.WithError(err).Info("HTTP server exited")
		return fmt.Errorf("HTTP server error: %v", err)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	startConsumers(ctx, g, logger, sqsAPI, flowBilling, cfg.Billing, ing.HandleBilling)
	startConsumers(ctx, g, logger, sqsAPI, flowInventory, cfg.Inventory, ing.HandleInventory)
	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(ctx)
		})
	}

	health.setInitialized()
	logger.Info("basic initialization completed")
	return g.Wait()
}

func startConsumers(ctx context.Context, g *errgroup.Group, logger log.FieldLogger, sqsAPI sqsiface.SQSAPI, flow string, cfg QueueConfig, handler events.Handler) {
	if cfg.QueueURL == "" {
		logger.Infof("no %s queue configured, not consuming %s events", flow, flow)
		return
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		consumer := events.NewConsumer(logger.WithFields(log.Fields{"flow": flow, "worker": i}), sqsAPI, cfg.ConsumerConfig)
		g.Go(func() error {
			return consumer.Run(ctx, handler)
		})
	}
}
