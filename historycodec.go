// Metadata codec: the collaborator that folds a new history entry into
// an object-id's existing history blob (spec §1, §4.5.2). The core only
// guarantees the collaborator is invoked with the current payload (or
// an empty buffer if none existed) and writes back whatever buffer it
// returns; it never inspects the format itself.
//
// The default implementation below is the one concrete MetadataCodec
// the core ships so the seam is exercised and testable. Per spec §4.7
// step 3, a history payload holds a metadata block tagged with kind
// HISTORY whose body is a whole multiple of the fixed-width entry
// encoding; a block of any other kind, or whose body size doesn't
// divide evenly, is CORRUPT_INDEX. The entries themselves are packed
// with encoding/binary the same fixed-width way header.go packs a DCH;
// the {kind, entries} envelope around them is serialised with
// github.com/goccy/go-json the way the teacher's record types round-
// trip through encoding/json (_examples/jpl-au-folio/record.go), and
// the whole envelope is compressed with
// github.com/klauspost/compress/zstd using reusable package-level
// encoder/decoder instances, the same shape as the teacher's
// package-level zstd codec in _examples/jpl-au-folio/compress.go (there
// used to wrap an ascii85 text envelope; here used directly on the
// binary history blob, since this wire format has no text-safety
// requirement).
package ledger

import (
	"encoding/binary"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// HistoryEntrySize is the fixed encoded width of one HistoryEntry. The
// history metadata block's entry bytes must be a whole multiple of this
// size; a block whose size isn't, or whose kind tag isn't
// historyBlockKind, fails the record with ErrCorruptIndex (spec §4.7
// step 3).
const HistoryEntrySize = IDSize + 8 + 8 + 8

// historyBlockKind is the only metadata block kind this codec ever
// writes or accepts (spec §4.7 step 3's "metadata block of kind
// HISTORY").
const historyBlockKind = "HISTORY"

// HistoryEntry is one entry in an object-id's history list: the write
// that produced it, and where it landed (spec §4.5.3).
type HistoryEntry struct {
	ID     ObjectID
	Size   uint64
	Offset uint64
	Flags  uint64
}

// MetadataCodec folds a new entry into an existing (possibly empty)
// history payload and returns the updated payload, or decodes a stored
// history payload back into its entries. Named an external collaborator
// in spec §1; DefaultMetadataCodec is the one concrete implementation
// the core ships.
type MetadataCodec interface {
	// Merge appends entry to the entries already present in current
	// (current may be empty) and returns the new serialised payload.
	Merge(current []byte, entry HistoryEntry) ([]byte, error)

	// Decode parses a stored history payload back into its entries.
	// Returns ErrCorruptIndex if payload is non-empty but its metadata
	// block is missing the HISTORY kind tag or its entry bytes aren't a
	// whole multiple of HistoryEntrySize.
	Decode(payload []byte) ([]HistoryEntry, error)
}

// historyBlock is the envelope serialised by DefaultMetadataCodec:
// Kind names the metadata block (spec §4.7 step 3), Entries is the
// concatenated fixed-width encoding of every HistoryEntry. The whole
// envelope is compressed as one unit with zstd before being written as
// a history record's payload.
type historyBlock struct {
	Kind    string
	Entries []byte
}

// putHistoryEntry encodes e into buf[:HistoryEntrySize], little-endian,
// mirroring header.go's Encode.
func putHistoryEntry(e HistoryEntry, buf []byte) {
	_ = buf[HistoryEntrySize-1]
	copy(buf[:IDSize], e.ID[:])
	off := IDSize
	binary.LittleEndian.PutUint64(buf[off:], e.Size)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], e.Offset)
	off += 8
	binary.LittleEndian.PutUint64(buf[off:], e.Flags)
}

// getHistoryEntry decodes one HistoryEntry from buf[:HistoryEntrySize].
func getHistoryEntry(buf []byte) HistoryEntry {
	var e HistoryEntry
	copy(e.ID[:], buf[:IDSize])
	off := IDSize
	e.Size = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	e.Offset = binary.LittleEndian.Uint64(buf[off:])
	off += 8
	e.Flags = binary.LittleEndian.Uint64(buf[off:])
	return e
}

// defaultCodec is the reference MetadataCodec: goccy/go-json for the
// entry list, zstd for the compressed-on-disk form.
type defaultCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewDefaultMetadataCodec builds the reference MetadataCodec. The
// returned encoder/decoder pair is safe for reuse across calls (spec
// §4.5.2's repeated invocation per write), matching the teacher's
// package-level codec reuse.
func NewDefaultMetadataCodec() (MetadataCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &defaultCodec{enc: enc, dec: dec}, nil
}

func (c *defaultCodec) Merge(current []byte, entry HistoryEntry) ([]byte, error) {
	entries, err := c.Decode(current)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)

	packed := make([]byte, len(entries)*HistoryEntrySize)
	for i, e := range entries {
		putHistoryEntry(e, packed[i*HistoryEntrySize:])
	}

	raw, err := json.Marshal(historyBlock{Kind: historyBlockKind, Entries: packed})
	if err != nil {
		return nil, err
	}
	return c.enc.EncodeAll(raw, nil), nil
}

func (c *defaultCodec) Decode(payload []byte) ([]HistoryEntry, error) {
	if len(payload) == 0 {
		return nil, nil
	}

	raw, err := c.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, ErrCorruptIndex
	}

	var block historyBlock
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, ErrCorruptIndex
	}
	if block.Kind != historyBlockKind {
		return nil, ErrCorruptIndex
	}
	if len(block.Entries)%HistoryEntrySize != 0 {
		return nil, ErrCorruptIndex
	}

	count := len(block.Entries) / HistoryEntrySize
	entries := make([]HistoryEntry, count)
	for i := range entries {
		entries[i] = getHistoryEntry(block.Entries[i*HistoryEntrySize:])
	}
	return entries, nil
}
