// Package db wraps the Presto and Hive connections with statement logging
// and per backend statement metrics.
package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	kindQuery = "query"
	kindExec  = "exec"

	// maxLoggedStatement bounds how much of a statement is logged. The
	// rewrite statements embed whole subscription lists.
	maxLoggedStatement = 2048
)

var (
	statementDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "billing_ingest",
			Subsystem: "db",
			Name:      "statement_duration_seconds",
			Help:      "Duration of statements sent to the warehouse by backend and statement kind.",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 30.0, 120.0, 300.0},
		},
		[]string{"backend", "kind"},
	)

	statementErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "billing_ingest",
			Subsystem: "db",
			Name:      "statement_errors_total",
			Help:      "Number of failed statements by backend and statement kind.",
		},
		[]string{"backend", "kind"},
	)
)

func init() {
	prometheus.MustRegister(statementDurationHistogram)
	prometheus.MustRegister(statementErrorsCounter)
}

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	Close() error
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	Close() error
}

type statementObserver struct {
	logger     log.FieldLogger
	backend    string
	logQueries bool
}

// observe logs the statement when enabled and records how long it took.
func (o statementObserver) observe(kind, query string, args []interface{}, start time.Time, err error) {
	elapsed := time.Since(start)
	statementDurationHistogram.WithLabelValues(o.backend, kind).Observe(elapsed.Seconds())
	if err != nil {
		statementErrorsCounter.WithLabelValues(o.backend, kind).Inc()
	}
	if !o.logQueries {
		return
	}
	logger := o.logger.WithField("duration", elapsed.String())
	if err != nil {
		logger = logger.WithError(err)
	}
	logger.Debugf("%s: %s [%s]", strings.ToUpper(kind), truncate(query), argsString(args...))
}

type loggingQueryer struct {
	statementObserver
	queryer Queryer
}

// NewLoggingQueryer wraps queryer. Statements are logged at debug level
// when logQueries is set; durations are always recorded under backend.
func NewLoggingQueryer(queryer Queryer, logger log.FieldLogger, backend string, logQueries bool) Queryer {
	return &loggingQueryer{
		statementObserver: statementObserver{logger: logger, backend: backend, logQueries: logQueries},
		queryer:           queryer,
	}
}

func (q *loggingQueryer) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := q.queryer.QueryContext(ctx, query, args...)
	q.observe(kindQuery, query, args, start, err)
	return rows, err
}

func (q *loggingQueryer) Close() error {
	return q.queryer.Close()
}

type loggingExecer struct {
	statementObserver
	execer Execer
}

// NewLoggingExecer wraps execer like NewLoggingQueryer.
func NewLoggingExecer(execer Execer, logger log.FieldLogger, backend string, logQueries bool) Execer {
	return &loggingExecer{
		statementObserver: statementObserver{logger: logger, backend: backend, logQueries: logQueries},
		execer:            execer,
	}
}

func (e *loggingExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := e.execer.ExecContext(ctx, query, args...)
	e.observe(kindExec, query, args, start, err)
	return res, err
}

func (e *loggingExecer) Close() error {
	return e.execer.Close()
}

func truncate(query string) string {
	if len(query) <= maxLoggedStatement {
		return query
	}
	return fmt.Sprintf("%s... (%d more bytes)", query[:maxLoggedStatement], len(query)-maxLoggedStatement)
}

// argsString renders statement arguments as "1:<v> 2:<v>", quoting strings.
func argsString(args ...interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		v := a
		if valuer, ok := v.(driver.Valuer); ok {
			if value, err := valuer.Value(); err == nil {
				v = value
			}
		}
		switch v.(type) {
		case string, []byte:
			parts[i] = fmt.Sprintf("%d:%q", i+1, v)
		default:
			parts[i] = fmt.Sprintf("%d:%v", i+1, v)
		}
	}
	return strings.Join(parts, " ")
}
