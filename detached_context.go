package bgcache

import (
	"context"
	"time"
)

// detach returns a context with values of parent, that is never canceled and has no deadline.
//
// Fetches run with detached context, so that a caller that stopped waiting does not fail others.
func detach(parent context.Context) context.Context {
	if _, ok := parent.(detachedContext); ok {
		return parent
	}

	return detachedContext{parent: parent}
}

type detachedContext struct {
	parent context.Context
}

func (detachedContext) Deadline() (time.Time, bool) { return time.Time{}, false }
func (detachedContext) Done() <-chan struct{}       { return nil }
func (detachedContext) Err() error                  { return nil }

func (d detachedContext) Value(key interface{}) interface{} {
	return d.parent.Value(key)
}

func (detachedContext) String() string {
	return "detached"
}
