// Package progress carries fractional progress (0..1) from long running
// download and extraction steps to the caller.
package progress

import "sync"

// Reporter receives progress as a fraction in [0, 1].
type Reporter interface {
	Report(fraction float64)
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(fraction float64)

func (f ReporterFunc) Report(fraction float64) {
	f(fraction)
}

// Report forwards to r when it is not nil.
func Report(r Reporter, fraction float64) {
	if r != nil {
		r.Report(fraction)
	}
}

// Muxer combines several weighted progress streams into one upstream
// reporter. Every split keeps its latest weighted value; each report
// republishes the sum of all splits.
type Muxer struct {
	upstream Reporter

	mu     sync.Mutex
	splits []float64
}

func NewMuxer(upstream Reporter) *Muxer {
	return &Muxer{upstream: upstream}
}

// Split registers a new stream contributing weight × fraction to the total.
func (m *Muxer) Split(weight float64) Reporter {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.splits = append(m.splits, 0)
	return &split{muxer: m, slot: len(m.splits) - 1, weight: weight}
}

func (m *Muxer) set(slot int, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.splits[slot] = value

	var total float64
	for _, v := range m.splits {
		total += v
	}
	Report(m.upstream, total)
}

type split struct {
	muxer  *Muxer
	slot   int
	weight float64
}

func (s *split) Report(fraction float64) {
	s.muxer.set(s.slot, s.weight*clamp(fraction))
}

func clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
