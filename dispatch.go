// Command Dispatcher: the single entry point mapping command codes to
// the Mutation Engine, Read Path, and LIST (spec §4.8), plus the
// explicit-factory backend construction spec §9 asks for in place of a
// process-wide registry.
//
// NewBackend's "open both log pairs, run the startup scan, release
// everything already acquired if a later step fails" shape is grounded
// on the teacher's own Open(dir, name, Config) constructor
// (_examples/jpl-au-folio/db.go), generalised from one directory handle
// to two independent log pairs.
package ledger

import "fmt"

// Code identifies a command for Dispatch (spec §4.8).
type Code int

const (
	CodeWrite Code = iota
	CodeRead
	CodeDel
	CodeList
	CodeStat
)

// StatProvider is the external collaborator STAT delegates to (spec §1,
// §4.8). The core ships no implementation; STAT commands fail with
// ErrUnsupported unless one is supplied to NewBackend.
type StatProvider interface {
	Stat(id ObjectID) (any, error)
}

// Command is one decoded request handed to Dispatch (spec §6's
// "(cmd-code, attrs, io-descriptor, payload)" tuple, adapted to typed
// per-command fields rather than an untyped attrs blob).
type Command struct {
	Code Code

	// WRITE
	ID        ObjectID
	Payload   []byte
	WriteFlags uint64

	// READ
	Read ReadRequest
	// Capacity is the caller's reply-buffer capacity for READ; <= 0
	// requests the zero-copy descriptor mode.
	Capacity int

	// LIST
	List ListRequest
	Sink ReplySink
}

// Reply is the result of Dispatch for commands that return data (READ,
// STAT); WRITE and DEL return only an error, and LIST delivers its
// results through cmd.Sink.
type Reply struct {
	Read ReadReply
	Stat any
}

// NewBackend opens both log pairs, rebuilds the in-memory index and
// bloom filters by scanning each with cfg.IterateThreadNum workers, and
// returns a ready Backend. Any failure after the data log is opened
// closes it before returning, so no file descriptor is ever leaked on a
// startup error path (spec §5).
func NewBackend(cfg Config, index HashTable, codec MetadataCodec, logger Logger, stat StatProvider) (*Backend, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	dataLog, err := OpenLogPair(cfg.DataPath, cfg.DataBlockSize)
	if err != nil {
		return nil, fmt.Errorf("open data log: %w", err)
	}

	historyLog, err := OpenLogPair(cfg.HistoryPath, cfg.HistoryBlockSize)
	if err != nil {
		dataLog.Close()
		return nil, fmt.Errorf("open history log: %w", err)
	}

	b := &Backend{
		cfg:        cfg,
		dataLog:    dataLog,
		historyLog: historyLog,
		index:      index,
		codec:      codec,
		logger:     logger,
		stat:       stat,
	}

	if err := b.rebuild(dataLog, KindData); err != nil {
		dataLog.Close()
		historyLog.Close()
		return nil, fmt.Errorf("rebuild data index: %w", err)
	}
	if err := b.rebuild(historyLog, KindHistory); err != nil {
		dataLog.Close()
		historyLog.Close()
		return nil, fmt.Errorf("rebuild history index: %w", err)
	}

	dataLog.DoneScanning()
	historyLog.DoneScanning()

	return b, nil
}

// rebuild replays lp's index into b.index (spec §4.4 "startup rebuild").
// Within a log, two live slots should never name the same key; if they
// do, the later slot wins — permitted but not required to be logged,
// per spec §4.4. Shards may be visited in any order, so each insertion
// runs under b.mu and an entry already installed from a later slot is
// kept.
func (b *Backend) rebuild(lp *LogPair, kind Kind) error {
	return Scan(lp, b.cfg.IterateThreadNum, false, func(h DiskControlHeader, _ []byte, slot int64) error {
		key := Key{ID: h.ID, Kind: kind}
		b.mu.Lock()
		defer b.mu.Unlock()
		if prev, had := b.index.Lookup(key); had {
			b.logger.Printf("ledger: duplicate live slot for key %x/%s during rebuild", h.ID, kind)
			if prev.IndexPos > slot {
				return nil
			}
		}
		b.index.Replace(key, RamControl{
			Key:      key,
			Offset:   int64(h.Position),
			Size:     int64(h.DataSize),
			IndexPos: slot,
		})
		lp.ObserveID(h.ID)
		return nil
	})
}

// Close releases both log pairs' file descriptors.
func (b *Backend) Close() error {
	err1 := b.dataLog.Close()
	err2 := b.historyLog.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Dispatch maps cmd to the Mutation Engine, Read Path, or LIST, per the
// §4.8 table. Unrecognised codes fail with ErrUnsupported.
func (b *Backend) Dispatch(cmd Command) (Reply, error) {
	switch cmd.Code {
	case CodeWrite:
		_, err := b.Write(cmd.ID, cmd.Payload, cmd.WriteFlags)
		return Reply{}, err

	case CodeRead:
		reply, err := b.Read(cmd.Read, cmd.Capacity)
		return Reply{Read: reply}, err

	case CodeDel:
		return Reply{}, b.Del(cmd.ID)

	case CodeList:
		return Reply{}, b.List(cmd.List, cmd.Sink)

	case CodeStat:
		if b.stat == nil {
			return Reply{}, ErrUnsupported
		}
		result, err := b.stat.Stat(cmd.ID)
		return Reply{Stat: result}, err

	default:
		return Reply{}, ErrUnsupported
	}
}
