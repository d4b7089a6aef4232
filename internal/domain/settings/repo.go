package settings

import "context"

// Repository is a key→value store over system_settings. Get returns
// ErrNotFound when the key has never been written; Set upserts.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
