package linewise

// Output reorderer (order-restoring writer)
//
// Responsibility:
// - Consume IndexedResult values from workers in completion order and write them to the
//   destination strictly in input order.
// - Skip dropped lines (Present == false) while still advancing past them.
//
// Inputs:
// - results <-chan IndexedResult: written by every worker; closed by the driver after all
//   workers returned.
// - readerDone <-chan struct{}: closed by the input reader once it published its last line.
//   From that point total() is final.
// - idle func() bool: reports that no line is buffered or held by a worker.
// - sink lineSink: the destination. The reorderer is its only writer.
//
// State:
// - pending map[uint64]IndexedResult: results received ahead of the watermark. Owned by the
//   reorderer goroutine; workers reach it only through the results channel.
// - next (the watermark): the next sequence number to write. Only the reorderer mutates it.
//
// States:
// - running: store each result; when len(pending) reaches the soft cap, flush. Once the
//   reader is done total() is final and every result is flushed as it arrives. A watchdog
//   then fails the run with ErrReorderStalled if the watermark cannot advance for the
//   reorder timeout while no line is buffered or held by a worker. A transform that is slow
//   but still running never trips it; a hung one is ended by cancelling ctx.
// - finishing: entered when the results channel closes, i.e. every worker returned. Flush;
//   if next != total a result was lost upstream and the run fails with ErrReorderStalled at
//   once, since nothing can fill the gap. Writing around it would silently misorder or
//   truncate the output.
// - done: everything up to total was written and the sink flushed.
//
// Flush: while pending holds next, write it (if present), delete it and advance next.
//
// Edge cases:
// - Empty input: the reader finishes with total == 0; the reorderer flushes the sink and returns.
// - A result for a sequence already written, already pending, or at/after a known total is a
//   correctness violation reported as ErrDuplicateLine.

type reorderState int

const (
	stateRunning reorderState = iota
	stateFinishing
	stateDone
)

func (s reorderState) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateFinishing:
		return "finishing"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}
