package ingest

import "sync/atomic"

// Progress tracks one batch with two counter pairs. Totals are live: more
// files may join the batch while earlier ones are still compressing, so
// Done must be re-checked after every await point.
type Progress struct {
	read            atomic.Int64
	readingTotal    atomic.Int64
	processed       atomic.Int64
	processingTotal atomic.Int64
}

// AddFiles raises both totals for files joining the batch.
func (p *Progress) AddFiles(n int) {
	p.readingTotal.Add(int64(n))
	p.processingTotal.Add(int64(n))
}

func (p *Progress) MarkRead()      { p.read.Add(1) }
func (p *Progress) MarkProcessed() { p.processed.Add(1) }

// RollbackFailed removes n files that were read but failed compression.
// Counters and totals both drop, so the surviving siblings still satisfy
// Done and the batch is never aborted by one bad file.
func (p *Progress) RollbackFailed(n int) {
	p.read.Add(-int64(n))
	p.readingTotal.Add(-int64(n))
	p.processingTotal.Add(-int64(n))
}

// Done is the single batch-complete predicate.
func (p *Progress) Done() bool {
	return p.read.Load() == p.readingTotal.Load() &&
		p.processed.Load() == p.processingTotal.Load()
}

// Snapshot returns read, readingTotal, processed, processingTotal.
func (p *Progress) Snapshot() (int64, int64, int64, int64) {
	return p.read.Load(), p.readingTotal.Load(), p.processed.Load(), p.processingTotal.Load()
}
