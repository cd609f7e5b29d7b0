package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/kidhood/bird-trading-platform/pkg/database"
)

type txKey struct{}

// TxManager runs functions inside a pgx transaction. The open transaction is
// injected into the context, and every repository in this package routes its
// statements through it when present.
type TxManager struct {
	db database.DBTX
}

// NewTxManager creates a transaction manager over the given pool.
func NewTxManager(db database.DBTX) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn within a transaction. The transaction is rolled back
// when fn returns an error or panics, and committed otherwise.
func (tm *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := tm.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// queryEngine returns the transaction carried on the context, or the fallback
// pool when no transaction is open.
func queryEngine(ctx context.Context, fallback database.DBTX) database.DBTX {
	if tx, ok := ctx.Value(txKey{}).(database.DBTX); ok {
		return tx
	}
	return fallback
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}

// joinURLs flattens a URL list into the comma-separated form stored in a
// single text column.
func joinURLs(urls []string) string {
	return strings.Join(urls, ",")
}

// splitURLs expands a stored comma-separated URL column back into a list.
func splitURLs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
