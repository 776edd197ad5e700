package storage

import "fmt"

// NewStore selects the persistence backend for simulation artifacts. The
// memory backend serves throwaway analysis sessions; sqlite keeps runs and
// batches across processes when the build includes the sqlite driver.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported releases backends that hold external resources, such as
// the sqlite database handle. The memory store has nothing to release.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
