// Package collision detects hash collisions among a segment's column names,
// the way a fixed-size hash-keyed cache would silently corrupt results if
// two distinct column names ever mapped to the same cache key.
package collision

import (
	"github.com/arloliu/segreader/pkg/errs"
)

// Tracker records column name -> hash assignments and reports the first
// collision it finds: two different column names hashing to the same key.
type Tracker struct {
	byHash map[uint64]string
}

// NewTracker creates an empty collision tracker.
func NewTracker() *Tracker {
	return &Tracker{byHash: make(map[uint64]string)}
}

// Track records that column hashes to hash. It returns an error if a
// different column has already been recorded under the same hash.
func (t *Tracker) Track(column string, hash uint64) error {
	if existing, ok := t.byHash[hash]; ok && existing != column {
		return errs.NewColumnError(errs.ErrHashCollision, column,
			"hashes to the same cache key as column "+existing)
	}
	t.byHash[hash] = column

	return nil
}

// Count returns the number of distinct columns tracked so far.
func (t *Tracker) Count() int {
	return len(t.byHash)
}
