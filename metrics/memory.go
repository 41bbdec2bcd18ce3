package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryProvider keeps instruments in memory, keyed by name.
// Asking twice for the same name returns the same instrument.
type MemoryProvider struct {
	mu         sync.RWMutex
	counters   map[string]*MemoryCounter
	histograms map[string]*MemoryHistogram
	meta       map[string]InstrumentConfig
}

// NewMemoryProvider constructs an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		counters:   make(map[string]*MemoryCounter),
		histograms: make(map[string]*MemoryHistogram),
		meta:       make(map[string]InstrumentConfig),
	}
}

// Counter returns the counter registered under name, creating it on first use.
func (p *MemoryProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.counter(name, opts)
}

// UpDownCounter shares storage with Counter; the memory implementation does not enforce monotonicity.
func (p *MemoryProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.counter(name, opts)
}

func (p *MemoryProvider) counter(name string, opts []InstrumentOption) *MemoryCounter {
	p.mu.RLock()
	c, ok := p.counters[name]
	p.mu.RUnlock()
	if ok {
		return c
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok = p.counters[name]; ok {
		return c
	}
	p.meta[name] = applyOptions(opts)
	c = &MemoryCounter{}
	p.counters[name] = c
	return c
}

// Histogram returns the histogram registered under name, creating it on first use.
func (p *MemoryProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	p.mu.RLock()
	h, ok := p.histograms[name]
	p.mu.RUnlock()
	if ok {
		return h
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok = p.histograms[name]; ok {
		return h
	}
	p.meta[name] = applyOptions(opts)
	h = &MemoryHistogram{}
	p.histograms[name] = h
	return h
}

// Describe returns the description and unit name was registered with.
func (p *MemoryProvider) Describe(name string) (InstrumentConfig, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.meta[name]
	return c, ok
}

// Snapshot is a point-in-time copy of every instrument in a MemoryProvider.
type Snapshot struct {
	Counters   map[string]int64
	Histograms map[string]HistSnapshot
}

// Names returns all instrument names in the snapshot, sorted.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.Counters)+len(s.Histograms))
	for n := range s.Counters {
		names = append(names, n)
	}
	for n := range s.Histograms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot copies the current value of every instrument.
func (p *MemoryProvider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := Snapshot{
		Counters:   make(map[string]int64, len(p.counters)),
		Histograms: make(map[string]HistSnapshot, len(p.histograms)),
	}
	for n, c := range p.counters {
		s.Counters[n] = c.Value()
	}
	for n, h := range p.histograms {
		s.Histograms[n] = h.Snapshot()
	}
	return s
}

// MemoryCounter is a concurrency-safe counter.
type MemoryCounter struct {
	val atomic.Int64
}

// Add adds n to the counter.
func (c *MemoryCounter) Add(n int64) { c.val.Add(n) }

// Value returns the current value.
func (c *MemoryCounter) Value() int64 { return c.val.Load() }

// MemoryHistogram tracks count, sum, min and max of recorded values. It keeps no buckets.
type MemoryHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement.
func (h *MemoryHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
}

// HistSnapshot is an immutable copy of a MemoryHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns the histogram state at the time of the call.
func (h *MemoryHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
