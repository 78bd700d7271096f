package ledger

import "bytes"

// IDSize is the fixed width of an object identifier in bytes. See
// DESIGN.md for how this value is derived from spec §8 scenario S1's
// concrete byte counts.
const IDSize = 8

// ObjectID is a fixed-width, opaque, lexicographically ordered object
// identifier (spec §3).
type ObjectID [IDSize]byte

// Compare orders two object ids lexicographically.
func (id ObjectID) Compare(other ObjectID) int {
	return bytes.Compare(id[:], other[:])
}

// Kind discriminates the two records a single object-id may own: the
// current data record, or the merged history record. Wire-compatible
// with the single HISTORY flag bit (spec §9 redesign note: expressed
// here as a tagged variant rather than a reinterpreted trailing byte).
type Kind uint8

const (
	// KindData identifies the current-value record for an object id.
	KindData Kind = 0
	// KindHistory identifies the merged history record for an object id.
	KindHistory Kind = 1
)

func (k Kind) String() string {
	if k == KindHistory {
		return "history"
	}
	return "data"
}

// Key is the logical lookup key for the in-memory index: an object id
// tagged with which of its two records (data or history) is meant.
type Key struct {
	ID   ObjectID
	Kind Kind
}

// InRange reports whether id falls in the half-open range [lower, upper).
// This is the module's single canonical id-range predicate (spec §4.7),
// used everywhere a range check is needed so the comparison semantics
// can never drift between call sites.
func InRange(id, lower, upper ObjectID) bool {
	return id.Compare(lower) >= 0 && id.Compare(upper) < 0
}
