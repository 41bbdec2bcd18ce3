package linewise

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
)

// inputReader is the single producer of the pipeline. It reads the source sequentially,
// numbers lines from 0 and publishes them into a bounded buffer shared by all workers.
//
// Throttling: the buffer holds at most `high` lines. Once it is full the reader waits
// until workers drained it below `low` before refilling, so a large input is never held
// in memory. Waiting is driven by the drained signal workers send after each receive.
//
// On return the reader records how many lines it published, marks itself as not running,
// then closes the buffer and the done channel. It never closes anything else.
type inputReader struct {
	src lineSource

	buf     chan IndexedLine
	drained chan struct{}
	done    chan struct{}
	low     int

	running  atomic.Bool
	count    atomic.Uint64
	inflight atomic.Int64

	inst instruments
}

func newInputReader(src lineSource, low, high int, inst instruments) *inputReader {
	r := &inputReader{
		src:     src,
		buf:     make(chan IndexedLine, high),
		drained: make(chan struct{}, 1),
		done:    make(chan struct{}),
		low:     low,
		inst:    inst,
	}
	r.running.Store(true)
	return r
}

// run reads until end of input, an I/O error or cancellation.
func (r *inputReader) run(ctx context.Context) error {
	defer func() {
		r.running.Store(false)
		close(r.buf)
		close(r.done)
	}()

	var seq uint64
	for {
		text, err := r.src.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: read input at line %d: %w", Namespace, seq, err)
		}

		if len(r.buf) == cap(r.buf) {
			if err := r.waitBelowLow(ctx); err != nil {
				return err
			}
		}

		select {
		case r.buf <- IndexedLine{Seq: seq, Text: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
		seq++
		r.count.Store(seq)
		r.inst.read.Add(1)
	}
}

func (r *inputReader) waitBelowLow(ctx context.Context) error {
	for len(r.buf) >= r.low {
		select {
		case <-r.drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// lines is the consumer end of the input buffer.
func (r *inputReader) lines() <-chan IndexedLine { return r.buf }

// notifyDrained wakes a reader waiting for the low-water mark. Signals coalesce.
func (r *inputReader) notifyDrained() {
	select {
	case r.drained <- struct{}{}:
	default:
	}
}

// hasMoreLines reports whether workers may still receive input.
func (r *inputReader) hasMoreLines() bool {
	return r.running.Load() || len(r.buf) > 0
}

// acquire and release bracket a worker's hold on a line, from just before it receives
// until its result is published or the worker gives up.
func (r *inputReader) acquire() { r.inflight.Add(1) }

func (r *inputReader) release() { r.inflight.Add(-1) }

// idle reports that no line is buffered or held by a worker, so no further result can
// be produced.
func (r *inputReader) idle() bool {
	return !r.hasMoreLines() && r.inflight.Load() == 0
}

// total is the number of lines published so far; final once done is closed.
func (r *inputReader) total() uint64 { return r.count.Load() }
