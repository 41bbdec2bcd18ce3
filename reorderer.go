package linewise

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

type reorderer struct {
	results    <-chan IndexedResult
	readerDone <-chan struct{}
	total      func() uint64
	idle       func() bool
	sink       lineSink

	softCap int
	timeout time.Duration

	state     reorderState
	pending   map[uint64]IndexedResult
	next      uint64
	limit     uint64
	exhausted bool // limit is final

	written uint64
	dropped uint64

	inst instruments
	log  *slog.Logger
}

func newReorderer(
	results <-chan IndexedResult,
	readerDone <-chan struct{},
	total func() uint64,
	idle func() bool,
	sink lineSink,
	softCap int,
	timeout time.Duration,
	inst instruments,
	log *slog.Logger,
) *reorderer {
	return &reorderer{
		results:    results,
		readerDone: readerDone,
		total:      total,
		idle:       idle,
		sink:       sink,
		softCap:    softCap,
		timeout:    timeout,
		pending:    make(map[uint64]IndexedResult, softCap),
		inst:       inst,
		log:        log,
	}
}

// run drives the reorderer until every line is written, a fatal gap is detected,
// or ctx is cancelled.
//
// Once the reader is done the total is known and results are flushed as they arrive.
// A watchdog then fails the run if the watermark cannot advance for the reorder timeout
// while no line is buffered or being transformed; a slow transform keeps it waiting.
// When the results channel closes every worker has returned and the reorderer finishes.
func (r *reorderer) run(ctx context.Context) error {
	results := r.results
	readerDone := r.readerDone

	stall := time.NewTimer(r.timeout)
	stall.Stop()
	defer stall.Stop()
	var stallC <-chan time.Time

	for {
		if results == nil && readerDone == nil {
			return r.finish()
		}

		select {
		case <-readerDone:
			readerDone = nil
			r.limit = r.total()
			r.exhausted = true
			r.log.Debug("input exhausted", "lines", r.limit, "pending", len(r.pending), "next", r.next)
			if err := r.flush(); err != nil {
				return err
			}
			stall.Reset(r.timeout)
			stallC = stall.C

		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if err := r.store(res); err != nil {
				return err
			}
			if r.exhausted || len(r.pending) >= r.softCap {
				if err := r.flush(); err != nil {
					return err
				}
			}
			if stallC != nil {
				stall.Reset(r.timeout)
			}

		case <-stallC:
			if r.next < r.limit && r.idle() {
				return r.stalled()
			}
			stall.Reset(r.timeout)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// finish runs once every worker returned and the total is final.
func (r *reorderer) finish() error {
	r.state = stateFinishing
	if err := r.flush(); err != nil {
		return err
	}
	if r.next != r.limit {
		// nothing can fill the gap anymore
		return r.stalled()
	}
	return r.complete()
}

func (r *reorderer) store(res IndexedResult) error {
	_, dup := r.pending[res.Seq]
	if dup || res.Seq < r.next || (r.exhausted && res.Seq >= r.limit) {
		return newLineError(ErrDuplicateLine, res.Seq)
	}
	r.pending[res.Seq] = res
	r.inst.pending.Add(1)
	return nil
}

// flush writes the contiguous run of results starting at the watermark.
func (r *reorderer) flush() error {
	for {
		res, ok := r.pending[r.next]
		if !ok {
			return nil
		}
		if res.Present {
			if err := r.sink.writeLine(res.Text); err != nil {
				return fmt.Errorf("%s: write output at line %d: %w", Namespace, r.next, err)
			}
			r.written++
			r.inst.written.Add(1)
		} else {
			r.dropped++
			r.inst.dropped.Add(1)
		}
		delete(r.pending, r.next)
		r.inst.pending.Add(-1)
		r.next++
	}
}

func (r *reorderer) complete() error {
	if err := r.sink.flush(); err != nil {
		return fmt.Errorf("%s: flush output: %w", Namespace, err)
	}
	r.state = stateDone
	return nil
}

func (r *reorderer) stalled() error {
	r.log.Error("reorderer stalled",
		"missing", r.next, "lines", r.limit, "pending", len(r.pending), "timeout", r.timeout)
	return newLineError(ErrReorderStalled, r.next)
}
