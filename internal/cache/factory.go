package cache

import "strings"

// New creates a badger-backed cache when a directory is configured,
// otherwise in-memory.
func New(dir string) (Cache, error) {
	if strings.TrimSpace(dir) == "" {
		return NewInMemoryCache(), nil
	}
	return NewBadgerCache(dir)
}
