package linewise

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

type worker struct {
	id          int
	input       *inputReader
	results     chan<- IndexedResult
	progress    *progress
	pollTimeout time.Duration
	inst        instruments
	log         *slog.Logger
}

// run builds the worker's private transform and processes lines until the input is exhausted.
func (w *worker) run(ctx context.Context, factory Factory) error {
	t, err := factory()
	if err != nil {
		return fmt.Errorf("%w: worker %d: %w", ErrTransformInit, w.id, err)
	}
	if t == nil {
		return fmt.Errorf("%w: worker %d: factory returned nil", ErrTransformInit, w.id)
	}

	abandoned, err := w.loop(ctx, t)
	if c, ok := t.(io.Closer); ok && !abandoned {
		if cerr := c.Close(); cerr != nil {
			w.log.Warn("closing line transform", "worker", w.id, "error", cerr)
		}
	}
	return err
}

// loop reports abandoned == true when it returned while a transform call was still running.
func (w *worker) loop(ctx context.Context, t Transform) (abandoned bool, err error) {
	timer := time.NewTimer(w.pollTimeout)
	defer timer.Stop()

	for {
		line, ok, err := w.next(ctx, timer)
		if err != nil || !ok {
			return false, err
		}

		abandoned, err = w.handle(ctx, t, line)
		if err != nil {
			return abandoned, err
		}
		w.inst.processed.Add(1)
		w.progress.add()
	}
}

// handle transforms a line received by next and publishes the result, releasing the line
// either way.
func (w *worker) handle(ctx context.Context, t Transform, line IndexedLine) (abandoned bool, err error) {
	defer w.input.release()

	res, err := w.execute(ctx, t, line)
	if err != nil {
		return ctx.Err() != nil, err
	}

	select {
	case w.results <- res:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// next waits for an input line. An idle worker re-checks every poll timeout whether the
// reader can still deliver; ok == false means there is no more work. A returned line is
// held (see inputReader.acquire) until handle releases it.
func (w *worker) next(ctx context.Context, timer *time.Timer) (line IndexedLine, ok bool, err error) {
	for {
		timer.Reset(w.pollTimeout)
		w.input.acquire()
		select {
		case line, ok = <-w.input.lines():
			if ok {
				w.input.notifyDrained()
				return line, true, nil
			}
			w.input.release()
			return IndexedLine{}, false, nil
		case <-timer.C:
			w.input.release()
			if !w.input.hasMoreLines() {
				return IndexedLine{}, false, nil
			}
			w.log.Debug("worker idle, waiting for input", "worker", w.id)
		case <-ctx.Done():
			w.input.release()
			return IndexedLine{}, false, ctx.Err()
		}
	}
}

// execute runs the transform on its own goroutine so cancellation never waits on a stuck call.
func (w *worker) execute(ctx context.Context, t Transform, line IndexedLine) (IndexedResult, error) {
	type outcome struct {
		text string
		ok   bool
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		text, ok, err := applyTransform(t, line.Text)
		done <- outcome{text: text, ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return IndexedResult{}, ctx.Err()
	case o := <-done:
		w.inst.latency.Record(time.Since(start).Seconds())
		if o.err != nil {
			return IndexedResult{}, newLineError(o.err, line.Seq)
		}
		if !o.ok {
			return IndexedResult{Seq: line.Seq}, nil
		}
		return IndexedResult{Seq: line.Seq, Text: o.text, Present: true}, nil
	}
}
