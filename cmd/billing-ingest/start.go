package main

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kube-reporting/billing-ingest/cmd/helpers"
	"github.com/kube-reporting/billing-ingest/pkg/ingester"
)

var (
	runCfg           ingester.RunConfig
	disableScheduler bool
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "consumes billing and inventory events until stopped",
	Run:   startIngest,
}

func init() {
	flags := startCmd.Flags()
	flags.StringVar(&runCfg.ListenAddr, "listen", ":8080", "the address the metrics and health endpoints listen on")
	flags.BoolVar(&disableScheduler, "disable-scheduler", false, "if true, inventory refresh events are not published on a schedule")

	addQueueFlags(flags, "billing", &runCfg.Billing, 30*time.Minute)
	addQueueFlags(flags, "inventory", &runCfg.Inventory, 10*time.Minute)
}

func addQueueFlags(flags *pflag.FlagSet, flow string, cfg *ingester.QueueConfig, visibility time.Duration) {
	flags.IntVar(&cfg.Workers, flow+"-workers", 1, "number of concurrent "+flow+" event handlers")
	flags.DurationVar(&cfg.WaitTime, flow+"-wait-time", 20*time.Second, "long polling duration of "+flow+" queue receives")
	flags.DurationVar(&cfg.VisibilityTimeout, flow+"-visibility-timeout", visibility, "how long a received "+flow+" event stays hidden before it is redelivered")
	flags.Int64Var(&cfg.MaxMessages, flow+"-max-messages", 1, "number of "+flow+" events received per poll")
}

func startIngest(cmd *cobra.Command, args []string) {
	logger := newLogger()
	ctx := helpers.SetupSignals(logger)
	runCfg.Billing.QueueURL = opts.BillingQueueURL
	runCfg.Inventory.QueueURL = opts.InventoryQueueURL
	runIngest(ctx, logger, opts, runCfg)
}

func runIngest(ctx context.Context, logger log.FieldLogger, o options, cfg ingester.RunConfig) {
	c, err := newComponents(ctx, logger, o)
	if err != nil {
		logger.WithError(err).Fatal("unable to setup billing-ingest")
	}
	defer c.Close()

	var scheduler *ingester.Scheduler
	if !disableScheduler && o.InventoryQueueURL != "" {
		accounts := func() []string {
			return c.config.Get().Inventory.Accounts
		}
		scheduler, err = ingester.NewScheduler(logger, c.publisher, c.config.Get().Inventory.Schedule, accounts)
		if err != nil {
			logger.WithError(err).Fatal("unable to setup the inventory scheduler")
		}
	}

	if err := ingester.Run(ctx, logger, cfg, c.ingester, c.sqsAPI, c.presto, scheduler); err != nil {
		logger.WithError(err).Fatal("error occurred while billing-ingest was running")
	}
	logger.Infof("billing-ingest has stopped")
}
