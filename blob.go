// Append-Only Log Pair: a blob file storing (header, payload, padding)
// tuples and a parallel index file storing only headers, in insertion
// order (spec §3, §4.2).
//
// Appends and in-place flag flips are the only mutations a LogPair ever
// performs; reads use WriteAt/ReadAt (pread/pwrite) rather than a shared
// file cursor, the same bounded, concurrency-safe access pattern as the
// teacher's line/align primitives over io.SectionReader
// (_examples/jpl-au-folio/read.go), generalised here from newline-
// delimited records to fixed-offset/size ones.
package ledger

import (
	"encoding/binary"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
)

// LogPair owns the two file handles backing one logical log (data or
// history), plus the running append offsets and a bloom filter over the
// ids it has ever seen live. Callers serialise all calls that advance
// Offset/IndexPos through the backend's single mutation mutex (spec §5);
// LogPair itself does no locking.
type LogPair struct {
	blob  *os.File
	index *os.File

	Offset   int64
	IndexPos int64
	bsize    int64

	filter *bloom.BloomFilter
}

// OpenLogPair opens path (the blob file) and path+".index" (the index
// file), creating either if absent, and records both files' current
// lengths as the append positions. The index file's length must be a multiple of DCHSize; if not,
// the pair refuses to open with ErrCorruptIndex (spec §4.2).
func OpenLogPair(path string, bsize int64) (*LogPair, error) {
	blob, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	index, err := os.OpenFile(path+".index", os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		blob.Close()
		return nil, err
	}

	blobInfo, err := blob.Stat()
	if err != nil {
		blob.Close()
		index.Close()
		return nil, err
	}
	indexInfo, err := index.Stat()
	if err != nil {
		blob.Close()
		index.Close()
		return nil, err
	}

	if indexInfo.Size()%DCHSize != 0 {
		blob.Close()
		index.Close()
		return nil, ErrCorruptIndex
	}

	adviseSequential(blob)

	return &LogPair{
		blob:     blob,
		index:    index,
		Offset:   blobInfo.Size(),
		IndexPos: indexInfo.Size() / DCHSize,
		bsize:    bsize,
		filter:   bloom.NewWithEstimates(1_000_000, 0.01),
	}, nil
}

// DoneScanning switches the blob file's readahead hint from sequential
// (used by the initial startup scan) to random (the steady-state READ
// access pattern).
func (lp *LogPair) DoneScanning() {
	adviseRandom(lp.blob)
}

// AppendRecord writes header ‖ payload ‖ zero-padding at the log's
// current tail and advances Offset by header.DiskSize. header.Position
// must already equal the pre-call Offset. Short writes are retried
// until complete or a genuine I/O error occurs (spec §4.2); on error the
// log may contain a partial tail record, which is harmless because no
// index slot will be appended for it.
func (lp *LogPair) AppendRecord(header DiskControlHeader, payload []byte) error {
	buf := make([]byte, header.DiskSize)
	Encode(header, buf)
	copy(buf[DCHSize:], payload)
	// Remainder of buf is already zero-valued padding.

	if err := writeAllAt(lp.blob, buf, header.Position); err != nil {
		return err
	}
	lp.Offset += int64(header.DiskSize)
	lp.filter.Add(header.ID[:])
	return nil
}

// AppendIndex writes header at slot lp.IndexPos and advances IndexPos.
func (lp *LogPair) AppendIndex(header DiskControlHeader) (slot int64, err error) {
	buf := make([]byte, DCHSize)
	Encode(header, buf)

	slot = lp.IndexPos
	if err := writeAllAt(lp.index, buf, slot*DCHSize); err != nil {
		return 0, err
	}
	lp.IndexPos++
	return slot, nil
}

// MarkRemovedBlob OR's the FlagRemove bit into the DCH at the given
// blob-file offset. Idempotent: re-tombstoning an already-removed
// record is a no-op write of the same bits.
func (lp *LogPair) MarkRemovedBlob(offset int64) error {
	return markRemoved(lp.blob, offset)
}

// MarkRemovedIndex OR's the FlagRemove bit into the DCH at the given
// index slot.
func (lp *LogPair) MarkRemovedIndex(slot int64) error {
	return markRemoved(lp.index, slot*DCHSize)
}

// markRemoved performs a single 8-byte read-modify-write of the flags
// field at headerOffset (spec §4.2). The write is 8-byte aligned in the
// index file; in the blob file it is aligned only when the record's
// offset is.
func markRemoved(f *os.File, headerOffset int64) error {
	flagsOff := headerOffset + IDSize
	var buf [8]byte
	if _, err := f.ReadAt(buf[:], flagsOff); err != nil {
		return err
	}
	flags := binary.LittleEndian.Uint64(buf[:])
	flags |= FlagRemove
	binary.LittleEndian.PutUint64(buf[:], flags)
	return writeAllAt(f, buf[:], flagsOff)
}

// ReadPayload reads size bytes at the given blob-file byte offset
// (already past the DCH) — the pread primitive used by both READ and
// LIST's optional payload fetch (spec §4.4, §4.6).
func (lp *LogPair) ReadPayload(offset int64, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := lp.blob.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadHeaderAt decodes the DCH at the given blob-file offset.
func (lp *LogPair) ReadHeaderAt(offset int64) (DiskControlHeader, error) {
	buf := make([]byte, DCHSize)
	if _, err := lp.blob.ReadAt(buf, offset); err != nil {
		return DiskControlHeader{}, err
	}
	return Decode(buf)
}

// ReadIndexSlot decodes the DCH stored at index slot.
func (lp *LogPair) ReadIndexSlot(slot int64) (DiskControlHeader, error) {
	buf := make([]byte, DCHSize)
	if _, err := lp.index.ReadAt(buf, slot*DCHSize); err != nil {
		return DiskControlHeader{}, err
	}
	return Decode(buf)
}

// BlobFd exposes the blob file descriptor for zero-copy reply
// construction by the network collaborator (spec §4.6).
func (lp *LogPair) BlobFd() uintptr {
	return lp.blob.Fd()
}

// MaybeContains consults the bloom filter for a fast negative before a
// caller bothers with a hash-table Lookup. A false return means id was
// definitely never appended live; a true return is not a guarantee.
func (lp *LogPair) MaybeContains(id ObjectID) bool {
	return lp.filter.Test(id[:])
}

// ObserveID marks id as present in the bloom filter without appending a
// new record. Used by the startup rebuild scan to repopulate a fresh
// filter from records that already exist on disk, since a freshly
// opened LogPair's filter starts empty regardless of what the blob and
// index files already hold.
func (lp *LogPair) ObserveID(id ObjectID) {
	lp.filter.Add(id[:])
}

// IndexLen returns the current slot count of the index file.
func (lp *LogPair) IndexLen() int64 {
	return lp.IndexPos
}

// Close releases both file handles. Scoped so that a failure on the
// second close doesn't leak the first.
func (lp *LogPair) Close() error {
	err1 := lp.blob.Close()
	err2 := lp.index.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// writeAllAt retries partial writes until complete or a real error
// occurs (spec §4.2).
func writeAllAt(f *os.File, buf []byte, offset int64) error {
	for len(buf) > 0 {
		n, err := f.WriteAt(buf, offset)
		if err != nil {
			return err
		}
		buf = buf[n:]
		offset += int64(n)
	}
	return nil
}
