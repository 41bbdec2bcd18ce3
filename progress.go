package linewise

import (
	"log/slog"
	"math"
	"sync/atomic"
)

// progress counts completed lines across workers. It is advisory only.
type progress struct {
	count atomic.Uint64
	total uint64 // zero when unknown (streams)
	every uint64
	log   *slog.Logger
}

func newProgress(total, every uint64, log *slog.Logger) *progress {
	return &progress{total: total, every: every, log: log}
}

func (p *progress) add() {
	n := p.count.Add(1)
	if n%p.every != 0 && n != p.total {
		return
	}
	if p.total == 0 {
		p.log.Info("processed lines", "lines", n)
		return
	}
	p.log.Info("processed lines", "lines", n, "percent", percentOf(n, p.total))
}

// percentOf returns n/total as a percentage rounded to two decimals.
func percentOf(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*100/float64(total)*100) / 100
}
