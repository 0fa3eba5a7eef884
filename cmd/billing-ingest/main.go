package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kube-reporting/billing-ingest/cmd/helpers"
	"github.com/kube-reporting/billing-ingest/pkg/billing/loader"
	"github.com/kube-reporting/billing-ingest/pkg/billing/rewrite"
)

const envPrefix = "BILLING_INGEST"

var (
	defaultHiveHost   = "hive:10000"
	defaultPrestoHost = "presto:8080"

	opts options

	logLevelStr string
	logJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "billing-ingest",
	Short: "Loads cloud billing exports into Presto and refreshes inventory tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func AddCommands() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(handleCmd)
	rootCmd.AddCommand(versionCmd)
}

func init() {
	// globally set time to UTC
	time.Local = time.UTC

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevelStr, "log-level", log.InfoLevel.String(), "log level")
	flags.BoolVar(&logJSON, "log-json", false, "log in JSON instead of text")
	flags.StringVar(&opts.ConfigFile, "config", "", "path to a YAML or JSON file with account markups and the inventory schedule. The file is reloaded when it changes.")

	flags.StringVar(&opts.HiveHost, "hive-host", defaultHiveHost, "the hostname:port for connecting to Hive")
	flags.StringVar(&opts.HiveUser, "hive-user", "hive", "the user for connecting to Hive")
	flags.StringVar(&opts.PrestoHost, "presto-host", defaultPrestoHost, "the hostname:port for connecting to Presto")
	flags.StringVar(&opts.PrestoUser, "presto-user", "billing-ingest", "the user for connecting to Presto")
	flags.StringVar(&opts.Catalog, "presto-catalog", "hive", "the Presto catalog backed by the Hive metastore")
	flags.StringVar(&opts.InternalDataset, "internal-dataset", rewrite.DefaultInternalDataset, "the schema holding costAggregated and connectorDataSyncStatus")
	flags.DurationVar(&opts.ConnBackoff, "connect-backoff", 5*time.Second, "initial backoff between database connection attempts")
	flags.IntVar(&opts.ConnMaxRetries, "connect-max-retries", 10, "number of database connection attempts before giving up")
	flags.BoolVar(&opts.LogDMLQueries, "log-dml-queries", false, "logDMLQueries controls if we log data manipulation queries made via Presto (SELECT, INSERT, etc)")
	flags.BoolVar(&opts.LogDDLQueries, "log-ddl-queries", false, "logDDLQueries controls if we log data definition language queries made via Hive (CREATE TABLE, DROP TABLE, etc)")

	flags.StringVar(&opts.AWSRegion, "aws-region", "us-east-1", "the AWS region of the export bucket and the queues")
	flags.StringVar(&opts.S3Endpoint, "s3-endpoint", "", "if non-empty, an S3 compatible endpoint to use instead of AWS")
	flags.StringVar(&opts.SQSEndpoint, "sqs-endpoint", "", "if non-empty, an SQS compatible endpoint to use instead of AWS")
	flags.StringVar(&opts.StagingBucket, "staging-bucket", "", "bucket receiving the copies of exports backing the Hive staging tables")
	flags.StringVar(&opts.StagingPrefix, "staging-prefix", "billing-staging", "key prefix of the staged export copies")
	flags.Int64Var(&opts.PeekBytes, "schema-peek-bytes", loader.DefaultPeekBytes, "how many bytes of an export are read to detect its schema")
	flags.IntVar(&opts.MaxBadRecords, "max-bad-records", loader.DefaultMaxBadRecords, "number of rows that may fail to parse before a load is rejected")
	flags.DurationVar(&opts.CostAggregateTimeout, "cost-aggregate-timeout", rewrite.DefaultCostAggregateTimeout, "how long the costAggregated rewrite may run")

	flags.StringVar(&opts.BillingQueueURL, "billing-queue-url", "", "queue receiving billing export notifications")
	flags.StringVar(&opts.SchemaRetryQueueURL, "schema-retry-queue-url", "", "queue receiving exports whose schema could not be loaded. Defaults to the billing queue.")
	flags.StringVar(&opts.TableCreatedQueueURL, "table-created-queue-url", "", "queue announcing freshly loaded raw tables")
	flags.StringVar(&opts.InventoryQueueURL, "inventory-queue-url", "", "queue receiving inventory refresh events")
	flags.DurationVar(&opts.SchemaRetryDelay, "schema-retry-delay", loader.DefaultSchemaRetryDelay, "delivery delay of schema retry events, capped at 15 minutes")
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})

	AddCommands()

	// flags given on the command line are parsed by Execute and take
	// precedence over the environment
	for _, fs := range []*pflag.FlagSet{rootCmd.PersistentFlags(), startCmd.Flags(), handleCmd.Flags()} {
		if err := helpers.SetFlagsFromEnv(fs, envPrefix); err != nil {
			log.WithError(err).Fatalf("error setting flags from environment variables: %v", err)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("error executing command: %v", err)
	}
}

func newLogger() log.FieldLogger {
	logger, err := helpers.SetupLogger(logLevelStr, logJSON, log.Fields{"app": "billing-ingest"})
	if err != nil {
		log.WithError(err).Fatalf("unable to setup logging")
	}
	return logger
}
