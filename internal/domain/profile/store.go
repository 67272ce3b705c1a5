package profile

import "context"

// Store is the remote record store the editor reads from and writes to.
//
// ReadOne returns ErrProfileNotFound when no record exists for id; any other
// error is a read failure. UpdateOne writes exactly the fields in Update.
type Store interface {
	ReadOne(ctx context.Context, id string) (*Record, error)
	UpdateOne(ctx context.Context, id string, u Update) error
}
