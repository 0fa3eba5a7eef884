package ingester

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/clock"
)

const (
	flowBilling   = "billing"
	flowInventory = "inventory"

	outcomeSuccess = "success"
	outcomeFailed  = "failed"
	outcomeDropped = "dropped"
)

// Invocation carries the identity of one handled event. Its logger is
// passed explicitly to every step.
type Invocation struct {
	ID        string
	Flow      string
	AccountID string
	Logger    log.FieldLogger

	clock clock.Clock
	start time.Time
}

func newInvocation(logger log.FieldLogger, clock clock.Clock, flow string) *Invocation {
	id := uuid.New().String()
	return &Invocation{
		ID:     id,
		Flow:   flow,
		Logger: logger.WithFields(log.Fields{"invocationId": id, "flow": flow}),
		clock:  clock,
		start:  clock.Now(),
	}
}

// setAccount adds the account to every later log line.
func (inv *Invocation) setAccount(accountID string) {
	inv.AccountID = accountID
	inv.Logger = inv.Logger.WithField("accountId", accountID)
}

// step runs fn and records its duration.
func (inv *Invocation) step(name string, fn func() error) error {
	start := inv.clock.Now()
	err := fn()
	stepDurationHistogram.WithLabelValues(inv.Flow, name).Observe(inv.clock.Since(start).Seconds())
	return err
}

// finish records the outcome of err and returns it unchanged.
func (inv *Invocation) finish(err error) error {
	outcome := outcomeSuccess
	switch {
	case err == nil:
		inv.Logger.Infof("completed in %s", inv.clock.Since(inv.start))
	case isPermanent(err):
		outcome = outcomeDropped
		inv.Logger.WithError(err).Errorf("invocation failed permanently")
	default:
		outcome = outcomeFailed
		inv.Logger.WithError(err).Errorf("invocation failed")
	}
	invocationsCounter.WithLabelValues(inv.Flow, outcome).Inc()
	return err
}
