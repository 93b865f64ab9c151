package database

import (
	"database/sql"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"
)

// OpenFunc opens a bounded connection pool for a store address. It exists
// so tests can substitute the real Open.
type OpenFunc func(dsn string, maxConns int) (*sql.DB, error)

// Registry hands out one pooled connection per tenant store address for
// the lifetime of the process. Creation is single-flight: when N requests
// race on an address never seen before, exactly one pool is constructed
// and all N receive the same handle. Failed creations are never memoized;
// the next request for that address retries.
//
// There is no eviction. This holds up while the number of distinct tenant
// stores stays small relative to process memory; growing past that needs
// an LRU keyed by last access, which is a deliberate follow-up rather
// than something this registry pretends to solve.
type Registry struct {
	open     OpenFunc
	maxConns int

	mu    sync.RWMutex
	pools map[string]*sql.DB
	group singleflight.Group
}

// NewRegistry builds a Registry that opens pools with open, each bounded
// to maxConns connections.
func NewRegistry(open OpenFunc, maxConns int) *Registry {
	if open == nil {
		panic("nil OpenFunc passed to NewRegistry")
	}
	return &Registry{
		open:     open,
		maxConns: maxConns,
		pools:    make(map[string]*sql.DB),
	}
}

// Get returns the pool for addr, creating it on first access. Concurrent
// first accesses for the same addr collapse into one creation; a creation
// error propagates to every waiting caller and leaves no cache entry.
func (r *Registry) Get(addr string) (*sql.DB, error) {
	r.mu.RLock()
	db, ok := r.pools[addr]
	r.mu.RUnlock()
	if ok {
		return db, nil
	}

	v, err, _ := r.group.Do(addr, func() (interface{}, error) {
		// A racing caller may have finished creation between our read
		// and this flight; reuse its pool instead of opening another.
		r.mu.RLock()
		db, ok := r.pools[addr]
		r.mu.RUnlock()
		if ok {
			return db, nil
		}

		db, err := r.open(addr, r.maxConns)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.pools[addr] = db
		r.mu.Unlock()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// Len reports the number of live pools, for logging and tests.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Close closes every pool. Called on shutdown only; Get must not race
// with Close.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for addr, db := range r.pools {
		if err := db.Close(); err != nil {
			log.Printf("registry: close pool %s: %v", addr, err)
		}
		delete(r.pools, addr)
	}
}
