// Package linewise turns a single-threaded per-line transformation into an order-preserving,
// multi-worker pipeline over line-oriented input.
//
// Pipeline
//   - Input reader: one goroutine reads the source sequentially, numbers lines from 0 and
//     publishes them into a bounded buffer (low/high water marks).
//   - Workers: N goroutines, each with a private Transform obtained from the Factory once.
//     Workers finish lines in any order.
//   - Output reorderer: one goroutine holds out-of-order results and writes them strictly in
//     input order. It is the only writer of the destination.
//
// Entry points
//   - New(factory, opts...) builds a Processor; ProcessFile and ProcessStream run it.
//   - ProcessLines is a one-shot helper over an in-memory slice.
//   - CountLines is the pre-scan ProcessFile uses for progress percentages.
//
// Defaults
// Unless overridden, the following defaults apply:
//   - Workers: runtime.NumCPU()
//   - Water marks: low 100, high 300
//   - SoftCap: 100
//   - ReorderTimeout: 10s
//   - PollTimeout: 5s
//   - ProgressEvery: 10000 lines
//   - Logger: discards everything
//   - Metrics: no-op provider
//
// Failures
// A missing input, a transform error or panic, a lost result and cancellation all fail the
// run; nothing is retried or skipped. The error identifies the cause with errors.Is against
// the package sentinels and, where it applies, the input line via ExtractLineSeq.
package linewise
