package account

import "context"

// Store describes persistence operations required by the account registry.
// The Postgres implementation lives in internal/store/pg.
type Store interface {
	Create(ctx context.Context, acc *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByAddress(ctx context.Context, address string) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]*Account, error)
	Update(ctx context.Context, id string, upd Update, actor string) (*Account, error)
	SetStatus(ctx context.Context, id, status, actor, reason string) (*Account, error)
}
