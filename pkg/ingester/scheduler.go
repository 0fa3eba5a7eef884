package ingester

import (
	"context"
	"fmt"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"

	"github.com/kube-reporting/billing-ingest/pkg/billing"
	"github.com/kube-reporting/billing-ingest/pkg/events"
)

type job struct {
	r func()
}

func (j job) Run() {
	j.r()
}

// Scheduler periodically publishes an inventory event for every configured
// account. The account list is read on every tick so config reloads apply
// without a restart.
type Scheduler struct {
	logger    log.FieldLogger
	publisher events.Publisher
	accounts  func() []string
	schedule  *cron.Cron
}

func NewScheduler(logger log.FieldLogger, publisher events.Publisher, spec string, accounts func() []string) (*Scheduler, error) {
	s := &Scheduler{
		logger:    logger.WithField("component", "scheduler"),
		publisher: publisher,
		accounts:  accounts,
		schedule:  cron.New(),
	}
	err := s.schedule.AddJob(spec, job{func() {
		s.PublishInventoryEvents(context.Background())
	}})
	if err != nil {
		return nil, fmt.Errorf("couldn't add inventory refresh to scheduler: %v", err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Infof("scheduler started")
	s.schedule.Start()
	<-ctx.Done()
	s.schedule.Stop()
	s.logger.Infof("scheduler stopped")
	return nil
}

// PublishInventoryEvents publishes one event per account, returning how many
// were published. Failures are logged and do not stop the remaining accounts.
func (s *Scheduler) PublishInventoryEvents(ctx context.Context) int {
	published := 0
	for _, accountID := range s.accounts() {
		err := events.PublishJSON(ctx, s.publisher, events.TopicInventory, billing.InventoryEvent{AccountID: accountID}, 0)
		if err != nil {
			inventoryEventsPublishedCounter.WithLabelValues("failed").Inc()
			s.logger.WithError(err).WithField("accountId", accountID).Errorf("unable to publish inventory event")
			continue
		}
		inventoryEventsPublishedCounter.WithLabelValues("published").Inc()
		published++
	}
	s.logger.Debugf("published %d inventory events", published)
	return published
}
