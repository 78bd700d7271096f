// In-memory index: a mapping from (object-id, kind) to the RAM control
// record pointing at its on-disk DCH (spec §4.3).
//
// The hash-table primitive itself is named an external collaborator in
// spec §1 — HashTable is the seam. The default implementation below
// shards by a configurable hash algorithm, the same multi-algorithm-
// selected-by-a-config-flag shape as the teacher's Config.HashAlgorithm
// (_examples/jpl-au-folio/hash.go), so hash_table_flags picks xxHash3,
// FNV-1a, or Blake2b for shard selection. Per-shard state is guarded by
// its own RWMutex: replace calls arrive serialised by the backend's
// single mutation mutex, but Lookup is called lock-free by readers and
// scanners, so the map itself still needs its own synchronisation
// against a concurrent writer (spec §9 "re-architect as single-writer /
// many-readers").
package ledger

import (
	"hash/fnv"
	"sync"

	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// RamControl is the in-memory value pointing at a live on-disk record
// (spec §3).
type RamControl struct {
	Key      Key
	Offset   int64
	Size     int64
	IndexPos int64
}

// HashTable is the pluggable primitive backing the in-memory index.
// Replace is atomic: it returns the value the entry held immediately
// before the call, if any.
type HashTable interface {
	Lookup(key Key) (RamControl, bool)
	Replace(key Key, val RamControl) (prev RamControl, hadPrev bool)
	Delete(key Key)
}

// Hash algorithm selectors for hash_table_flags (spec §6).
const (
	HashXXH3    = 0 // default
	HashFNV1a   = 1
	HashBlake2b = 2
)

func shardHash(key Key, alg int) uint64 {
	buf := make([]byte, IDSize+1)
	copy(buf, key.ID[:])
	buf[IDSize] = byte(key.Kind)

	switch alg {
	case HashFNV1a:
		h := fnv.New64a()
		h.Write(buf)
		return h.Sum64()
	case HashBlake2b:
		sum := blake2b.Sum512(buf)
		var v uint64
		for i := 0; i < 8; i++ {
			v = v<<8 | uint64(sum[i])
		}
		return v
	default:
		return xxh3.Hash(buf)
	}
}

// shardedTable is the default HashTable: a fixed number of independently
// locked shards, selected by shardHash. numShards is derived from the
// configured bucket count but capped to keep the default of ten million
// buckets from allocating ten million mutexes.
type shardedTable struct {
	shards []shard
	mask   uint64
	alg    int
}

type shard struct {
	mu sync.RWMutex
	m  map[Key]RamControl
}

const maxShards = 4096

// NewHashTable builds the default sharded HashTable. bucketHint is the
// hash_table_size config value; alg is hash_table_flags.
func NewHashTable(bucketHint, alg int) HashTable {
	n := 1
	for n < maxShards && n < bucketHint {
		n <<= 1
	}
	if n < 1 {
		n = 1
	}

	t := &shardedTable{
		shards: make([]shard, n),
		mask:   uint64(n - 1),
		alg:    alg,
	}
	for i := range t.shards {
		t.shards[i].m = make(map[Key]RamControl)
	}
	return t
}

func (t *shardedTable) shardFor(key Key) *shard {
	return &t.shards[shardHash(key, t.alg)&t.mask]
}

func (t *shardedTable) Lookup(key Key) (RamControl, bool) {
	s := t.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (t *shardedTable) Replace(key Key, val RamControl) (RamControl, bool) {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.m[key]
	s.m[key] = val
	return prev, had
}

func (t *shardedTable) Delete(key Key) {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}
