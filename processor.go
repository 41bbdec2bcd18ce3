package linewise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
	"golang.org/x/sync/errgroup"
)

// Processor runs a per-line Transform over line-oriented input with a pool of workers,
// writing results in input order. A Processor holds only immutable configuration; it is
// safe to run several files through it concurrently.
type Processor struct {
	config  config
	factory Factory
}

// Stats summarizes one run.
type Stats struct {
	RunID   string
	Lines   uint64 // lines read from the input
	Written uint64 // lines written to the output
	Dropped uint64 // lines the transform declined to produce
	Workers int
	Elapsed time.Duration
}

// New creates a Processor that obtains one Transform per worker from factory.
func New(factory Factory, opts ...Option) (*Processor, error) {
	if factory == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("", "factory must be non-nil"))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &Processor{config: cfg, factory: factory}, nil
}

// ProcessFile transforms src line by line into dst, preserving line order.
//
// The source is opened and counted before any goroutine starts; a missing or unreadable
// source fails with ErrInputNotFound and dst is not touched. dst is created or truncated.
// On failure a partially written dst is left in place for the caller to handle.
func (p *Processor) ProcessFile(ctx context.Context, src, dst string) (Stats, error) {
	in, err := openInput(src)
	if err != nil {
		return Stats{}, err
	}
	defer in.Close()

	total, err := CountLines(in)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %w", errorc.With(ErrInputNotFound, errorc.String("path", src)), err)
	}
	if _, err = in.Seek(0, io.SeekStart); err != nil {
		return Stats{}, fmt.Errorf("%s: rewind input %s: %w", Namespace, src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: create output %s: %w", Namespace, dst, err)
	}

	stats, err := p.run(ctx, newReaderSource(in), newWriterSink(out), total,
		slog.String("src", src), slog.String("dst", dst))
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("%s: close output %s: %w", Namespace, dst, cerr)
	}
	return stats, err
}

// ProcessStream is ProcessFile over arbitrary streams. The total line count is unknown,
// so progress records carry only the number of processed lines.
func (p *Processor) ProcessStream(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	return p.run(ctx, newReaderSource(r), newWriterSink(w), 0)
}

// ProcessLines runs lines through a one-off Processor built from factory and opts and
// returns the kept results in input order.
func ProcessLines(ctx context.Context, lines []string, factory Factory, opts ...Option) ([]string, error) {
	p, err := New(factory, opts...)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	sink := &sliceSink{lines: make([]string, 0, len(lines))}
	if _, err := p.run(ctx, &sliceSource{lines: lines}, sink, uint64(len(lines))); err != nil {
		return nil, err
	}
	return sink.lines, nil
}

func openInput(src string) (*os.File, error) {
	notFound := errorc.With(ErrInputNotFound, errorc.String("path", src))
	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", notFound, err)
	}
	fi, err := in.Stat()
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("%w: %w", notFound, err)
	}
	if fi.IsDir() {
		_ = in.Close()
		return nil, fmt.Errorf("%w: is a directory", notFound)
	}
	return in, nil
}

// run wires reader, workers and reorderer for a single input and waits for all of them.
// The first stage error cancels the others and is returned.
func (p *Processor) run(ctx context.Context, src lineSource, sink lineSink, total uint64, attrs ...any) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Workers: p.config.Workers}
	log := p.config.Logger.With("run_id", stats.RunID)
	start := time.Now()

	log.Info("processing started", append(attrs, "lines", total, "workers", p.config.Workers)...)

	inst := newInstruments(p.config.Metrics)
	g, gctx := errgroup.WithContext(ctx)

	reader := newInputReader(src, p.config.LowWater, p.config.HighWater, inst)
	results := make(chan IndexedResult, p.config.SoftCap)
	prog := newProgress(total, p.config.ProgressEvery, log)
	ro := newReorderer(results, reader.done, reader.total, reader.idle, sink,
		p.config.SoftCap, p.config.ReorderTimeout, inst, log)

	g.Go(func() error { return reader.run(gctx) })
	g.Go(func() error { return ro.run(gctx) })

	var workersWG sync.WaitGroup
	for i := range p.config.Workers {
		w := &worker{
			id:          i + 1,
			input:       reader,
			results:     results,
			progress:    prog,
			pollTimeout: p.config.PollTimeout,
			inst:        inst,
			log:         log,
		}
		workersWG.Add(1)
		g.Go(func() error {
			defer workersWG.Done()
			return w.run(gctx, p.factory)
		})
	}
	g.Go(func() error {
		workersWG.Wait()
		close(results)
		return nil
	})

	err := g.Wait()

	stats.Lines = reader.total()
	stats.Written = ro.written
	stats.Dropped = ro.dropped
	stats.Elapsed = time.Since(start)

	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			err = fmt.Errorf("%w: %w", ErrInterrupted, ctx.Err())
		}
		log.Error("processing failed", "error", err, "elapsed", stats.Elapsed)
		return stats, err
	}

	if total > 0 && total != stats.Lines {
		log.Warn("input changed while processing", "counted", total, "read", stats.Lines)
	}
	log.Info("processing finished",
		"lines", stats.Lines, "written", stats.Written, "dropped", stats.Dropped, "elapsed", stats.Elapsed)
	return stats, nil
}
