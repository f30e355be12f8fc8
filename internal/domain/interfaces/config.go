package interfaces

import "context"

// ConfigStore is a key-value store for runtime settings.
type ConfigStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value, description string) error
}
