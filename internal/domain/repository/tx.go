package repository

import "context"

// TransactionManager runs a workflow function inside one database
// transaction. Repositories called with the context passed to fn share that
// transaction; an error from fn rolls back everything written so far. The
// payment workflow depends on this for its all-or-nothing guarantee.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
