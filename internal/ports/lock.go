package ports

import "context"

// Locker grants exclusive access to a key (one market) until unlock is called.
// unlock is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
