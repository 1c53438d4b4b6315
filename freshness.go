package bgcache

import "time"

// Freshness is a classification of a stored entry.
type Freshness int

// Freshness values, in order of evaluation.
const (
	// Absent means no entry is stored.
	Absent Freshness = iota
	// ForeignFormat means entry has no fetch time, it was not written by this package.
	ForeignFormat
	// Stale means entry is older than ttl, it is served while refresh is triggered.
	Stale
	// Fresh means entry is within ttl.
	Fresh
)

// IsMiss is true when value has to be fetched synchronously.
func (f Freshness) IsMiss() bool {
	return f == Absent || f == ForeignFormat
}

func (f Freshness) String() string {
	switch f {
	case Absent:
		return "absent"
	case ForeignFormat:
		return "foreign"
	case Stale:
		return "stale"
	case Fresh:
		return "fresh"
	}

	return "unknown"
}

// Classify evaluates entry against ttl at a given time.
func Classify(e *Entry, ttl time.Duration, now time.Time) Freshness {
	if e == nil {
		return Absent
	}

	if e.FetchedAt == 0 {
		return ForeignFormat
	}

	if e.FetchedAt < now.Add(-ttl).UnixMilli() {
		return Stale
	}

	return Fresh
}
