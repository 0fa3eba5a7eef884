package presto

import (
	"context"

	"github.com/kube-reporting/billing-ingest/pkg/db"
)

// Queryer runs a statement and returns every row it produced.
type Queryer interface {
	Query(ctx context.Context, query string) ([]Row, error)
}

// Execer runs a statement for its side effects, draining any rows so
// errors raised while streaming are not lost.
type Execer interface {
	Exec(ctx context.Context, query string) error
}

type ExecQueryer interface {
	Queryer
	Execer
}

// DB adapts a database/sql Presto connection to ExecQueryer.
type DB struct {
	queryer db.Queryer
}

func NewDB(queryer db.Queryer) *DB {
	return &DB{queryer}
}

func (db *DB) Query(ctx context.Context, query string) ([]Row, error) {
	return ExecuteSelect(ctx, db.queryer, query)
}

func (db *DB) Exec(ctx context.Context, query string) error {
	return ExecuteQuery(ctx, db.queryer, query)
}
