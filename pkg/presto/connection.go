package presto

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/prestodb/presto-go-client/presto"
	log "github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ConnString returns the presto-go-client DSN for the given server.
func ConnString(user, host, catalog, schema string) string {
	return fmt.Sprintf("http://%s@%s?catalog=%s&schema=%s", user, host, catalog, schema)
}

// NewPrestoConnWithRetry opens a Presto connection and pings it, backing off
// between attempts until maxRetries is exhausted or ctx is cancelled.
func NewPrestoConnWithRetry(ctx context.Context, logger log.FieldLogger, connStr string, connBackoff time.Duration, maxRetries int) (*sql.DB, error) {
	var db *sql.DB
	backoff := wait.Backoff{
		Duration: connBackoff,
		Factor:   1.25,
		Steps:    maxRetries,
	}
	cond := func() (bool, error) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		conn, err := sql.Open("presto", connStr)
		if err != nil {
			logger.WithError(err).Debugf("error encountered, backing off and trying again: %v", err)
			return false, nil
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			logger.WithError(err).Debugf("presto is not reachable yet, backing off and trying again: %v", err)
			return false, nil
		}
		db = conn
		return true, nil
	}
	err := wait.ExponentialBackoff(backoff, cond)
	if err != nil {
		if err == wait.ErrWaitTimeout {
			return nil, fmt.Errorf("timed out while waiting to connect to presto")
		}
		return nil, err
	}

	return db, nil
}
