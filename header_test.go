// Disk Control Header codec tests.
//
// Every other component trusts that a decoded DCH faithfully reflects
// what was encoded — a dropped or misordered field here would corrupt
// every offset calculation downstream (scan, read, tombstoning) without
// any single one of those components being at fault.
package ledger

import "testing"

// TestDCHSize guards the constant every offset arithmetic in the
// package depends on: IDSize plus four 8-byte fields.
func TestDCHSize(t *testing.T) {
	if DCHSize != 40 {
		t.Errorf("DCHSize = %d, want 40", DCHSize)
	}
}

// TestEncodeDecodeRoundTrip verifies decode(encode(h)) == h for a
// well-formed header with every field populated (spec §8).
func TestEncodeDecodeRoundTrip(t *testing.T) {
	var id ObjectID
	copy(id[:], []byte{1, 2, 3, 4, 5, 6, 7, 8})

	h := DiskControlHeader{
		ID:       id,
		Flags:    FlagRemove | FlagHistory,
		DataSize: 5,
		DiskSize: 45,
		Position: 1000,
	}

	buf := make([]byte, DCHSize)
	Encode(h, buf)

	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != h {
		t.Errorf("round trip = %+v, want %+v", got, h)
	}
}

// TestDecodeShortBuffer verifies that a buffer shorter than DCHSize
// fails with ErrBadHeader rather than panicking or reading past the end.
func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode(make([]byte, DCHSize-1))
	if err != ErrBadHeader {
		t.Errorf("Decode short buffer: got %v, want ErrBadHeader", err)
	}
}

// TestRemovedHistoryFlags verifies the independent flag-bit accessors
// don't bleed into each other.
func TestRemovedHistoryFlags(t *testing.T) {
	h := DiskControlHeader{Flags: FlagRemove}
	if !h.Removed() {
		t.Error("Removed() should be true with FlagRemove set")
	}
	if h.History() {
		t.Error("History() should be false without FlagHistory set")
	}

	h = DiskControlHeader{Flags: FlagHistory}
	if h.Removed() {
		t.Error("Removed() should be false without FlagRemove set")
	}
	if !h.History() {
		t.Error("History() should be true with FlagHistory set")
	}
}

// TestAlignNoBlockSize verifies the bsize=0 boundary: disk_size equals
// sizeof(DCH)+data_size exactly, with no padding (spec §8).
func TestAlignNoBlockSize(t *testing.T) {
	if got := align(DCHSize+5, 0); got != DCHSize+5 {
		t.Errorf("align(bsize=0) = %d, want %d", got, DCHSize+5)
	}
}

// TestAlignToBlockSize verifies bsize=512, data_size=1 rounds the total
// footprint up to exactly one block (spec §8).
func TestAlignToBlockSize(t *testing.T) {
	got := align(DCHSize+1, 512)
	if got != 512 {
		t.Errorf("align(bsize=512) = %d, want 512", got)
	}
}

// TestAlignExactMultiple verifies a size that already lands on a block
// boundary is not padded further.
func TestAlignExactMultiple(t *testing.T) {
	if got := align(1024, 512); got != 1024 {
		t.Errorf("align(exact multiple) = %d, want 1024", got)
	}
}
