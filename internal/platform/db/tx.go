package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const txKey contextKey = "db_tx"

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx that
// repositories run statements through.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// WithTx runs fn inside a transaction. The transaction is carried in the
// context so every repository call inside fn joins it via ConnFromContext.
// fn returning an error rolls the transaction back.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// TxRunner abstracts WithTx so services that need multi-statement
// atomicity can take a runner instead of the pool itself.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// PoolTxRunner returns a TxRunner bound to pool.
func PoolTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return WithTx(ctx, pool, fn)
	}
}

// ConnFromContext returns the transaction bound to ctx, if any.
func ConnFromContext(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// UniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), optionally for a specific constraint name.
func UniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
