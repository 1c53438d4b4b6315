package bgcache

import (
	"sort"
	"sync"
)

// listeners is a registry of fetch-started callbacks.
type listeners struct {
	sync.Mutex

	seq       uint64
	callbacks map[uint64]func(f *Fetch)
}

// add registers callback and returns a function to remove it.
func (l *listeners) add(cb func(f *Fetch)) func() {
	l.Lock()
	defer l.Unlock()

	if l.callbacks == nil {
		l.callbacks = make(map[uint64]func(f *Fetch))
	}

	l.seq++
	id := l.seq
	l.callbacks[id] = cb

	return func() {
		l.Lock()
		delete(l.callbacks, id)
		l.Unlock()
	}
}

// notify calls registered callbacks in registration order.
func (l *listeners) notify(f *Fetch) {
	l.Lock()
	if len(l.callbacks) == 0 {
		l.Unlock()

		return
	}

	ids := make([]uint64, 0, len(l.callbacks))
	for id := range l.callbacks {
		ids = append(ids, id)
	}

	cbs := make([]func(f *Fetch), 0, len(ids))

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		cbs = append(cbs, l.callbacks[id])
	}
	l.Unlock()

	for _, cb := range cbs {
		cb(f)
	}
}
