package join

import "sync"

// Stats accumulates the per-worker counters spec.md C10 names, summed
// across all workers at join-completion time under a single mutex
// (spec.md section 5: "statistics are accumulated per worker and summed
// at join-completion time").
type Stats struct {
	SpotsRead       uint64
	ReadsRead       uint64
	ReadsWritten    uint64
	ReadsZeroLength uint64
	ReadsTechnical  uint64
	ReadsTooShort   uint64
	ReadsInvalid    uint64
}

// Add accumulates o into s in place.
func (s *Stats) Add(o Stats) {
	s.SpotsRead += o.SpotsRead
	s.ReadsRead += o.ReadsRead
	s.ReadsWritten += o.ReadsWritten
	s.ReadsZeroLength += o.ReadsZeroLength
	s.ReadsTechnical += o.ReadsTechnical
	s.ReadsTooShort += o.ReadsTooShort
	s.ReadsInvalid += o.ReadsInvalid
}

// StatsAggregator collects per-worker Stats under a single mutex, the way
// spec.md section 5 describes, instead of the teacher's per-field
// atomics: join stats are written once per worker at shard completion,
// not on every record, so a mutex costs nothing extra here.
type StatsAggregator struct {
	mu    sync.Mutex
	total Stats
}

// Merge adds one worker's final Stats into the aggregate.
func (a *StatsAggregator) Merge(s Stats) {
	a.mu.Lock()
	a.total.Add(s)
	a.mu.Unlock()
}

// Total returns a snapshot of the aggregated stats.
func (a *StatsAggregator) Total() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}
