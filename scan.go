// Parallel Scanner: partitions an index file into contiguous slot
// ranges and walks them concurrently, invoking a caller-supplied visitor
// per live entry (spec §4.4).
//
// The fan-out shape — N-1 ranges each on their own goroutine, the last
// range on the calling goroutine, and a WaitGroup joining before
// returning an aggregated error — mirrors the producer/consumer
// goroutine lifecycle in the teacher pack's
// _examples/PriyanshuSharma23-FlashLog/wal_writer.go (a
// sync.WaitGroup-joined worker loop reading from a channel), adapted
// from a single writer loop to many independent range-readers. Per spec
// §9's "stack-allocated worker array" redesign note, per-worker state is
// a heap-allocated slice sized at run time rather than a fixed-size
// array.
package ledger

import (
	"sync"
	"sync/atomic"
)

// Visitor is invoked once per live (FlagRemove unset) index slot found
// during a scan. payload is nil unless the scan was constructed with
// readPayload=true. Returning a non-nil error fails that worker's shard
// of the scan; the first non-nil error across all workers is what Scan
// ultimately returns (spec §4.4, §7).
type Visitor func(h DiskControlHeader, payload []byte, slot int64) error

// Scan partitions lp's index into threads contiguous ranges and invokes
// visit for every live slot. If readPayload is true, the record's
// payload bytes are read from the blob file (via pread at
// header.Position) before the visitor is called. All workers are
// joined before Scan returns, even if one fails (spec §4.4, §7).
func Scan(lp *LogPair, threads int, readPayload bool, visit Visitor) error {
	total := lp.IndexPos
	if total == 0 {
		return nil
	}
	if threads < 1 {
		threads = 1
	}

	per := total / int64(threads)
	if per == 0 {
		// Fewer slots than threads: one slot per worker, no more
		// workers than slots.
		threads = int(total)
		per = 1
	}

	ranges := make([][2]int64, threads)
	for i := 0; i < threads; i++ {
		start := int64(i) * per
		end := start + per
		if i == threads-1 {
			end = total // the last range absorbs the remainder
		}
		ranges[i] = [2]int64{start, end}
	}

	var firstErr atomic.Pointer[error]
	report := func(err error) {
		if err == nil {
			return
		}
		firstErr.CompareAndSwap(nil, &err)
	}

	var wg sync.WaitGroup
	for i := 0; i < threads-1; i++ {
		wg.Add(1)
		go func(rng [2]int64) {
			defer wg.Done()
			report(scanRange(lp, rng[0], rng[1], readPayload, visit))
		}(ranges[i])
	}

	// The last shard runs on the calling goroutine (spec §4.4 step 2).
	report(scanRange(lp, ranges[threads-1][0], ranges[threads-1][1], readPayload, visit))

	wg.Wait()

	if p := firstErr.Load(); p != nil {
		return *p
	}
	return nil
}

func scanRange(lp *LogPair, start, end int64, readPayload bool, visit Visitor) error {
	for slot := start; slot < end; slot++ {
		h, err := lp.ReadIndexSlot(slot)
		if err != nil {
			return err
		}
		if h.Removed() {
			continue
		}

		var payload []byte
		if readPayload {
			payload, err = lp.ReadPayload(int64(h.Position)+DCHSize, int64(h.DataSize))
			if err != nil {
				return err
			}
		}

		if err := visit(h, payload, slot); err != nil {
			return err
		}
	}
	return nil
}
