package repositories

import "context"

// TxFn is a function that runs within a transaction.
type TxFn func(ctx context.Context) error

// TransactionManager executes a function as one atomic unit. The ledger
// depends on this to keep the version insert and the document pointer update
// from ever landing separately.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
