// Package metrics defines the instruments the line processor records into.
//
// The engine only depends on the Provider interface. NoopProvider is the default;
// MemoryProvider keeps values in process and is what the CLI uses for its --stats summary.
package metrics

// Instrument names recorded by the line processor.
const (
	LinesRead        = "lines_read"
	LinesProcessed   = "lines_processed"
	LinesDropped     = "lines_dropped"
	LinesWritten     = "lines_written"
	ReorderPending   = "reorder_pending"
	TransformSeconds = "transform_seconds"
)

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways, e.g. results waiting in the reorder map.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements such as per-line transform latency.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
