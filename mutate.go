// Mutation Engine: WRITE (data and history) and DEL, serialised by a
// single per-backend mutex (spec §4.5, §5).
//
// The append-then-install-then-tombstone ordering below follows spec
// §4.5.1's rationale verbatim; the shape — snapshot offsets under a
// lock, append, then update auxiliary structures — is the same
// single-writer discipline the teacher enforces with its own mutex
// around `set`/`delete` (_examples/jpl-au-folio/set.go,
// _examples/jpl-au-folio/delete.go), generalised here from a single
// document store to the two-log-pair, two-kind layout.
package ledger

import "sync"

// Backend owns both log pairs, the in-memory index, and the external
// collaborators, and serialises all mutating operations through mu
// (spec §5).
type Backend struct {
	mu sync.Mutex

	cfg Config

	dataLog    *LogPair
	historyLog *LogPair

	index  HashTable
	codec  MetadataCodec
	logger Logger
	stat   StatProvider
}

// writeData appends a new data-record generation for key and installs
// it as the live entry, tombstoning whatever it superseded (spec
// §4.5.1). Must be called with b.mu held.
func (b *Backend) writeData(kind Kind, id ObjectID, payload []byte, flags uint64) (RamControl, error) {
	lp := b.logForKind(kind)
	key := Key{ID: id, Kind: kind}

	diskSize := align(int64(DCHSize)+int64(len(payload)), lp.bsize)

	position := lp.Offset
	indexPos := lp.IndexPos

	header := DiskControlHeader{
		ID:       id,
		Flags:    flags | kindFlag(kind),
		DataSize: uint64(len(payload)),
		DiskSize: uint64(diskSize),
		Position: uint64(position),
	}

	if err := lp.AppendRecord(header, payload); err != nil {
		return RamControl{}, err
	}

	prev, hadPrev := b.index.Lookup(key)

	rc := RamControl{
		Key:      key,
		Offset:   position,
		Size:     int64(len(payload)),
		IndexPos: indexPos,
	}
	b.index.Replace(key, rc)

	if _, err := lp.AppendIndex(header); err != nil {
		return RamControl{}, err
	}

	if hadPrev {
		if err := lp.MarkRemovedIndex(prev.IndexPos); err != nil {
			b.logger.Printf("ledger: tombstone index slot %d failed: %v", prev.IndexPos, err)
		}
		if err := lp.MarkRemovedBlob(prev.Offset); err != nil {
			b.logger.Printf("ledger: tombstone blob offset %d failed: %v", prev.Offset, err)
		}
	}

	return rc, nil
}

// writeHistory folds entry into the current history blob for id,
// tombstoning the superseded blob before the replacement is constructed
// (spec §4.5.2).
func (b *Backend) writeHistory(id ObjectID, entry HistoryEntry) error {
	key := Key{ID: id, Kind: KindHistory}

	var current []byte
	prev, hadPrev := b.index.Lookup(key)
	if hadPrev {
		buf, err := b.historyLog.ReadPayload(prev.Offset+DCHSize, prev.Size)
		if err != nil {
			return err
		}
		current = buf

		// Tombstone the superseded history blob before the replacement
		// exists on disk, per spec §4.5.2 step 2.
		if err := b.historyLog.MarkRemovedBlob(prev.Offset); err != nil {
			b.logger.Printf("ledger: tombstone history blob offset %d failed: %v", prev.Offset, err)
		}
		if err := b.historyLog.MarkRemovedIndex(prev.IndexPos); err != nil {
			b.logger.Printf("ledger: tombstone history index slot %d failed: %v", prev.IndexPos, err)
		}
		b.index.Delete(key)
	}

	updated, err := b.codec.Merge(current, entry)
	if err != nil {
		return err
	}

	_, err = b.writeData(KindHistory, id, updated, 0)
	return err
}

// Write flag bits, distinct from the on-disk DCH flags (spec §4.5.3).
const (
	WriteHistory         uint64 = 1 << 0 // this WRITE targets the history record directly
	WriteNoHistoryUpdate uint64 = 1 << 1 // skip the synthesised history-entry fold
)

// Write implements the combined WRITE command (spec §4.5.3): a plain
// write of a data record, optionally folding a synthesised history
// entry describing it, or — with WriteHistory set — a direct history
// write.
func (b *Backend) Write(id ObjectID, payload []byte, cmdFlags uint64) (RamControl, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if cmdFlags&WriteHistory != 0 {
		entry := HistoryEntry{ID: id, Size: uint64(len(payload))}
		return RamControl{}, b.writeHistory(id, entry)
	}

	rc, err := b.writeData(KindData, id, payload, 0)
	if err != nil {
		return RamControl{}, err
	}

	if cmdFlags&WriteNoHistoryUpdate == 0 {
		entry := HistoryEntry{
			ID:     id,
			Size:   uint64(len(payload)),
			Offset: uint64(rc.Offset),
			Flags:  cmdFlags,
		}
		if err := b.writeHistory(id, entry); err != nil {
			return rc, err
		}
	}

	return rc, nil
}

// Del tombstones both the data and history records for id. Both kinds
// are always attempted; per DESIGN.md's resolution of spec §9's open
// question, the first non-nil error is returned (not the second, as the
// source's reused-variable bug would produce). The in-memory entry is
// left in place after a successful delete (a subsequent READ still
// finds the now-tombstoned offset), which is what spec §4.5.4 requires
// to make a second Del of the same key idempotent without error (spec
// §4.5.4, §9).
func (b *Backend) Del(id ObjectID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	errData := b.delOne(Key{ID: id, Kind: KindData})
	errHistory := b.delOne(Key{ID: id, Kind: KindHistory})

	if errData != nil {
		return errData
	}
	return errHistory
}

func (b *Backend) delOne(key Key) error {
	lp := b.logForKind(key.Kind)

	// Fast negative, same role as in Read (spec SPEC_FULL.md §C).
	if !lp.MaybeContains(key.ID) {
		return ErrNotFound
	}

	rc, ok := b.index.Lookup(key)
	if !ok {
		return ErrNotFound
	}

	if err := lp.MarkRemovedBlob(rc.Offset); err != nil {
		return err
	}
	if err := lp.MarkRemovedIndex(rc.IndexPos); err != nil {
		return err
	}

	// The in-memory entry is left in place rather than evicted: both
	// on-disk tombstone writes are idempotent OR's of the REMOVE bit, so
	// leaving the entry is what makes a second Del of the same key a
	// true no-op (lookup still succeeds, re-marking changes nothing) —
	// see DESIGN.md for why eviction would break that guarantee.
	return nil
}

func (b *Backend) logForKind(kind Kind) *LogPair {
	if kind == KindHistory {
		return b.historyLog
	}
	return b.dataLog
}

func kindFlag(kind Kind) uint64 {
	if kind == KindHistory {
		return FlagHistory
	}
	return 0
}
