// Package ledger implements the core of a log-structured blob storage
// backend: two append-only log pairs ("data" and "history"), an in-memory
// index from object key to log offset, and a command dispatcher servicing
// WRITE, READ, DEL, LIST, and STAT requests over those logs.
//
// The network framing, the metadata codec for history entries, config
// loading, the logging sink, and the hash-table primitive backing the
// in-memory index are all named as external collaborators — this package
// consumes them through small interfaces (Logger, MetadataCodec,
// HashTable, StatProvider) rather than owning their implementations.
package ledger

import "errors"

// Sentinel errors returned by core operations. See spec §7 for the full
// error taxonomy and propagation policy.
var (
	// ErrIO names the class of underlying read/write/seek failures. No
	// operation in this package returns it: an I/O failure is returned as
	// the underlying os error, unwrapped. The operation that hit it is
	// aborted; any partially-written tail bytes are left in place rather
	// than being rolled back.
	ErrIO = errors.New("ledger: io error")

	// ErrNotFound is returned when a key is absent from the in-memory
	// index on READ or DEL.
	ErrNotFound = errors.New("ledger: not found")

	// ErrCorruptIndex is returned when an index file's length is not a
	// multiple of sizeof(DCH), or when a history payload's metadata size
	// is not a multiple of the history-entry size.
	ErrCorruptIndex = errors.New("ledger: corrupt index")

	// ErrCorruptRecord names a referenced on-disk offset that yields a
	// header that fails to decode. No operation in this package returns
	// it: such a header surfaces as ErrBadHeader from the codec.
	ErrCorruptRecord = errors.New("ledger: corrupt record")

	// ErrBadHeader is returned by the codec when a buffer is too short
	// or otherwise malformed to decode as a DiskControlHeader.
	ErrBadHeader = errors.New("ledger: bad header")

	// ErrOOM names a failed buffer allocation, notably of the history
	// merge buffer. No operation in this package returns it.
	ErrOOM = errors.New("ledger: allocation failed")

	// ErrConfig is returned for an unknown configuration key, or a
	// missing "data"/"history" path at startup.
	ErrConfig = errors.New("ledger: invalid configuration")

	// ErrUnsupported is returned for an unrecognised command code.
	ErrUnsupported = errors.New("ledger: unsupported command")

	// ErrClosed names an operation on a backend that has already been
	// shut down. Backend does not track whether it is closed, so no
	// operation in this package returns it; an operation after Close
	// fails with the os error of the closed file.
	ErrClosed = errors.New("ledger: backend closed")
)
