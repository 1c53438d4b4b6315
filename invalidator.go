package bgcache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultSkipInterval is used when Invalidator.SkipInterval is not set.
const DefaultSkipInterval = 15 * time.Second

// Invalidator drops all entries of registered stores at once.
//
// Stored entries are removed, so next Get of every key is a synchronous fetch.
type Invalidator struct {
	sync.Mutex

	// SkipInterval is a minimal duration between two invalidations, default DefaultSkipInterval.
	SkipInterval time.Duration

	// Callbacks are called on invalidation, for example ShardedMap.DeleteAll.
	Callbacks []func()

	lastRun time.Time
}

// Add registers invalidation callback.
func (i *Invalidator) Add(cb func()) {
	i.Lock()
	defer i.Unlock()

	i.Callbacks = append(i.Callbacks, cb)
}

// Invalidate calls registered callbacks.
//
// It fails with ErrNothingToInvalidate if there are no callbacks and with ErrAlreadyInvalidated
// if previous invalidation happened less than SkipInterval ago.
func (i *Invalidator) Invalidate() error {
	i.Lock()
	defer i.Unlock()

	if len(i.Callbacks) == 0 {
		return ErrNothingToInvalidate
	}

	skip := i.SkipInterval
	if skip == 0 {
		skip = DefaultSkipInterval
	}

	if since := time.Since(i.lastRun); since < skip {
		return fmt.Errorf("%w %s ago, wait %s",
			ErrAlreadyInvalidated, since.Truncate(time.Millisecond), (skip - since).Truncate(time.Millisecond))
	}

	i.lastRun = time.Now()

	for _, cb := range i.Callbacks {
		cb()
	}

	return nil
}
