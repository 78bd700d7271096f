// LIST: a batched, id-range-filterable stream of (id, flags) tuples for
// every live record in the history log, driven by the parallel scanner
// (spec §4.7).
//
// The scan-and-yield shape (drive the scanner, filter, batch, flush) is
// grounded on the teacher's own scan-and-collect list/all operations
// (_examples/jpl-au-folio/list.go, all.go), which return a plain slice;
// the bounded-batch flush loop here is new because §4.7 requires replies
// to be flushed mid-scan rather than buffered in full.
package ledger

import "sync"

// ListBatchSize is the fixed capacity of one LIST reply batch (spec
// §4.7).
const ListBatchSize = 10_240

// ListItem is one entry of a LIST reply: an object id and the flags
// recorded on its first history entry (spec §4.7 step 4).
type ListItem struct {
	ID    ObjectID
	Flags uint64
}

// ListRequest describes one LIST command. When Ranged is true, only ids
// in the half-open range [Lower, Upper) are returned (spec §4.7 step 1).
type ListRequest struct {
	Ranged bool
	Lower  ObjectID
	Upper  ObjectID
}

// ReplySink is the network collaborator LIST flushes completed batches
// to (spec §1's "request source" collaborator, specialised to LIST's
// batched reply shape).
type ReplySink interface {
	FlushBatch(items []ListItem) error
}

// List implements the LIST command (spec §4.7). It scans the history
// log with b.cfg.IterateThreadNum workers, decoding each live record's
// history metadata block via b.codec and filtering by req when ranged.
func (b *Backend) List(req ListRequest, sink ReplySink) error {
	var mu sync.Mutex
	batch := make([]ListItem, 0, ListBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := sink.FlushBatch(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	visit := func(h DiskControlHeader, payload []byte, slot int64) error {
		if req.Ranged && !InRange(h.ID, req.Lower, req.Upper) {
			return nil
		}

		entries, err := b.codec.Decode(payload)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ErrCorruptIndex
		}

		mu.Lock()
		defer mu.Unlock()
		batch = append(batch, ListItem{ID: h.ID, Flags: entries[0].Flags})
		if len(batch) == ListBatchSize {
			return flush()
		}
		return nil
	}

	if err := Scan(b.historyLog, b.cfg.IterateThreadNum, true, visit); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	return flush()
}
