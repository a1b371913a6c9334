package describe

import "errors"

var (
	// ErrCachePathRequired is returned when a cache file path is not provided.
	ErrCachePathRequired = errors.New("cache path required")
)
