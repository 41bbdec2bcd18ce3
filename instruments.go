package linewise

import "github.com/ygrebnov/linewise/metrics"

// instruments resolves every metric the engine records from a provider once per run.
type instruments struct {
	read      metrics.Counter
	processed metrics.Counter
	dropped   metrics.Counter
	written   metrics.Counter
	pending   metrics.UpDownCounter
	latency   metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	return instruments{
		read:      p.Counter(metrics.LinesRead, metrics.WithUnit("1")),
		processed: p.Counter(metrics.LinesProcessed, metrics.WithUnit("1")),
		dropped:   p.Counter(metrics.LinesDropped, metrics.WithUnit("1")),
		written:   p.Counter(metrics.LinesWritten, metrics.WithUnit("1")),
		pending: p.UpDownCounter(metrics.ReorderPending,
			metrics.WithDescription("results waiting for an earlier line before they can be written")),
		latency: p.Histogram(metrics.TransformSeconds, metrics.WithUnit("seconds")),
	}
}
