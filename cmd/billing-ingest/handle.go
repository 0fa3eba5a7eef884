package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"

	"github.com/kube-reporting/billing-ingest/cmd/helpers"
	"github.com/kube-reporting/billing-ingest/pkg/events"
)

var eventFile string

var handleCmd = &cobra.Command{
	Use:       "handle (billing|inventory)",
	Short:     "handles a single event read from a file and exits",
	Args:      cobra.ExactValidArgs(1),
	ValidArgs: []string{"billing", "inventory"},
	RunE:      handleEvent,
}

func init() {
	handleCmd.Flags().StringVar(&eventFile, "file", "-", "the event JSON, - reads it from stdin")
}

func handleEvent(cmd *cobra.Command, args []string) error {
	body, err := readEvent(eventFile)
	if err != nil {
		return err
	}

	logger := newLogger()
	ctx := helpers.SetupSignals(logger)
	c, err := newComponents(ctx, logger, opts)
	if err != nil {
		return err
	}
	defer c.Close()

	var handler events.Handler
	switch args[0] {
	case "billing":
		handler = c.ingester.HandleBilling
	case "inventory":
		handler = c.ingester.HandleInventory
	}
	return runHandler(ctx, handler, body)
}

func runHandler(ctx context.Context, handler events.Handler, body []byte) error {
	if err := handler(ctx, body); err != nil {
		if events.IsPermanent(err) {
			return fmt.Errorf("event rejected: %v", err)
		}
		return err
	}
	return nil
}

func readEvent(path string) ([]byte, error) {
	var (
		body []byte
		err  error
	)
	if path == "-" {
		body, err = ioutil.ReadAll(os.Stdin)
	} else {
		body, err = ioutil.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read event from %s: %v", path, err)
	}
	return body, nil
}
