package hive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	_ "github.com/taozle/go-hive-driver"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DSN returns the go-hive-driver connection string for a HiveServer2 host.
func DSN(user, host string) string {
	return fmt.Sprintf("hive://%s@%s", user, host)
}

// Open connects to HiveServer2, retrying with an exponential backoff until
// the server answers a ping, maxRetries is exhausted or ctx is cancelled.
func Open(ctx context.Context, logger log.FieldLogger, dsn string, connBackoff time.Duration, maxRetries int) (*sql.DB, error) {
	var db *sql.DB
	backoff := wait.Backoff{
		Duration: connBackoff,
		Factor:   1.25,
		Steps:    maxRetries,
	}
	cond := func() (bool, error) {
		// check for cancellation
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		conn, err := sql.Open("hive", dsn)
		if err != nil {
			return false, err
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			logger.WithError(err).Debugf("error encountered when connecting to hive, backing off and trying again")
			return false, nil
		}
		// HiveServer2 sessions are not safe to share between statements
		conn.SetMaxOpenConns(1)
		db = conn
		return true, nil
	}
	if err := wait.ExponentialBackoff(backoff, cond); err != nil {
		if err == wait.ErrWaitTimeout {
			return nil, fmt.Errorf("timed out while waiting to connect to hive")
		}
		return nil, err
	}
	return db, nil
}
