package shared

import "context"

// UnitOfWork runs fn inside one store transaction. Repositories called with
// the ctx handed to fn join that transaction; fn returning an error rolls
// everything back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
