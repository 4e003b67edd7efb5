package erm

import (
	"context"

	"github.com/syssam/erm/dialect"
	"github.com/syssam/erm/dialect/sql"
)

// Batch is an ordered list of component statements that are executed in
// one transaction. The zero value is an empty batch ready to use.
type Batch struct {
	stmts []*sql.Statement
}

// Add appends statements to the batch.
func (b *Batch) Add(stmts ...*sql.Statement) {
	b.stmts = append(b.stmts, stmts...)
}

// Len returns the number of statements in the batch.
func (b *Batch) Len() int { return len(b.stmts) }

// Statements returns the statements in execution order.
func (b *Batch) Statements() []*sql.Statement { return b.stmts }

// Exec runs the batch in a new transaction. Statements run in the order they
// were added; the first failure rolls the transaction back and is returned
// as a *TransactionError. An empty batch does not open a transaction.
func (b *Batch) Exec(ctx context.Context, drv dialect.Driver) error {
	if len(b.stmts) == 0 {
		return nil
	}
	tx, err := drv.Tx(ctx)
	if err != nil {
		return NewConnectionError("begin", err)
	}
	for i, s := range b.stmts {
		if err := tx.Exec(ctx, s.Query(), s.Args(), nil); err != nil {
			return NewTransactionError(i, s.Query(), err, tx.Rollback())
		}
	}
	if err := tx.Commit(); err != nil {
		return NewTransactionError(-1, "", err, nil)
	}
	return nil
}
