package out

import "context"

// KeyValueStore is local string persistence. Get reports ok=false for a
// missing key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}
