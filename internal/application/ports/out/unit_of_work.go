package out

import "context"

// UnitOfWork runs fn in one database transaction. Repositories called with
// the ctx passed to fn join that transaction; returning an error rolls it
// back.
type UnitOfWork interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
