// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import "sync"

var (
	// Process-wide cache keyed by manifest source.
	cache     = map[string]*Manifest{}
	cacheLock sync.RWMutex
)

// GetCached returns the cached manifest for source, or nil.
func GetCached(source string) *Manifest {
	cacheLock.RLock()
	defer cacheLock.RUnlock()
	return cache[source]
}

// SetCached stores m under its source.
func SetCached(m *Manifest) {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	cache[m.Source] = m
}

// ClearCache empties the cache.
func ClearCache() {
	cacheLock.Lock()
	defer cacheLock.Unlock()
	cache = map[string]*Manifest{}
}
