// LIST tests: range filtering, tombstone exclusion, and batching (spec
// §4.7, §8 scenario S5).
package ledger

import "testing"

type collectingSink struct {
	batches [][]ListItem
}

func (s *collectingSink) FlushBatch(items []ListItem) error {
	cp := make([]ListItem, len(items))
	copy(cp, items)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *collectingSink) ids() map[ObjectID]bool {
	out := make(map[ObjectID]bool)
	for _, batch := range s.batches {
		for _, item := range batch {
			out[item.ID] = true
		}
	}
	return out
}

func (s *collectingSink) count() int {
	n := 0
	for _, batch := range s.batches {
		n += len(batch)
	}
	return n
}

// writeIDs writes n distinct data-with-history records with ids 0..n-1
// stored big-endian in the first two bytes.
func writeIDs(t *testing.T, b *Backend, n int) []ObjectID {
	t.Helper()
	ids := make([]ObjectID, n)
	for i := 0; i < n; i++ {
		var id ObjectID
		id[0] = byte(i >> 8)
		id[1] = byte(i)
		ids[i] = id
		if _, err := b.Write(id, []byte("v"), 0); err != nil {
			t.Fatalf("Write(%d): %v", i, err)
		}
	}
	return ids
}

// TestListReturnsAllLiveRecords verifies an unfiltered LIST yields
// exactly the set of ids written.
func TestListReturnsAllLiveRecords(t *testing.T) {
	b := newTestBackend(t)
	ids := writeIDs(t, b, 25)

	sink := &collectingSink{}
	if err := b.List(ListRequest{}, sink); err != nil {
		t.Fatalf("List: %v", err)
	}

	got := sink.ids()
	if len(got) != len(ids) {
		t.Fatalf("List returned %d ids, want %d", len(got), len(ids))
	}
	for _, id := range ids {
		if !got[id] {
			t.Errorf("List missing id %x", id)
		}
	}
}

// TestListSkipsTombstoned verifies a deleted id's history record is
// excluded from LIST output.
func TestListSkipsTombstoned(t *testing.T) {
	b := newTestBackend(t)
	ids := writeIDs(t, b, 5)

	if err := b.Del(ids[2]); err != nil {
		t.Fatalf("Del: %v", err)
	}

	sink := &collectingSink{}
	if err := b.List(ListRequest{}, sink); err != nil {
		t.Fatalf("List: %v", err)
	}

	if got := sink.ids(); got[ids[2]] {
		t.Error("List included a tombstoned id")
	} else if len(got) != 4 {
		t.Errorf("List returned %d ids, want 4", len(got))
	}
}

// TestListRangeFilter verifies the half-open [Lower, Upper) id-range
// filter excludes ids outside the range.
func TestListRangeFilter(t *testing.T) {
	b := newTestBackend(t)
	writeIDs(t, b, 20)

	var lower, upper ObjectID
	lower[1] = 5
	upper[1] = 10

	sink := &collectingSink{}
	req := ListRequest{Ranged: true, Lower: lower, Upper: upper}
	if err := b.List(req, sink); err != nil {
		t.Fatalf("List: %v", err)
	}

	for id := range sink.ids() {
		if !InRange(id, lower, upper) {
			t.Errorf("List returned out-of-range id %x", id)
		}
	}
	if got := len(sink.ids()); got != 5 {
		t.Errorf("List(range) returned %d ids, want 5", got)
	}
}

// TestListBatching is scenario S5: 10 241 distinct records produce
// exactly two reply batches, of sizes 10 240 and 1, whose union is the
// full set of written ids.
func TestListBatching(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large batching scenario in short mode")
	}

	b := newTestBackend(t)
	ids := writeIDs(t, b, ListBatchSize+1)

	sink := &collectingSink{}
	if err := b.List(ListRequest{}, sink); err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(sink.batches) != 2 {
		t.Fatalf("batch count = %d, want 2", len(sink.batches))
	}
	if len(sink.batches[0]) != ListBatchSize {
		t.Errorf("first batch size = %d, want %d", len(sink.batches[0]), ListBatchSize)
	}
	if len(sink.batches[1]) != 1 {
		t.Errorf("second batch size = %d, want 1", len(sink.batches[1]))
	}

	got := sink.ids()
	if len(got) != len(ids) {
		t.Fatalf("union of batches has %d ids, want %d", len(got), len(ids))
	}
	for _, id := range ids {
		if !got[id] {
			t.Errorf("List missing id %x", id)
		}
	}
}
