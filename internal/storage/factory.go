package storage

import "fmt"

// Options carries backend-specific connection settings. Only the fields
// for the selected backend are consulted.
type Options struct {
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultStoreKind is the backend used when none is configured.
func DefaultStoreKind() string {
	return "memory"
}

func NewStore(kind string, opts Options) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(opts.SQLitePath)
	case "redis":
		if opts.RedisAddr == "" {
			return nil, fmt.Errorf("redis address is required")
		}
		return NewRedisStore(opts), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
