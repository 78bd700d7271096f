// Configuration keys consumed by the core (spec §6). Loading the config
// from a file or environment is an external collaborator's job; this
// package only validates and applies defaults to an already-parsed
// key/value map, the same shape as the teacher's Open(dir, name, Config{})
// default-filling block.
package ledger

import "strconv"

// Default values applied when a key is absent (spec §6).
const (
	DefaultHashTableSize    = 10_485_760
	DefaultIterateThreadNum = 1
)

// Config holds the fully-validated configuration for a backend instance.
type Config struct {
	DataPath          string // path prefix of the data blob pair
	HistoryPath       string // path prefix of the history blob pair
	DataBlockSize     int64  // alignment for data-log records, 0 = none
	HistoryBlockSize  int64  // alignment for history-log records, 0 = none
	HashTableSize     int    // bucket count for the in-memory index
	HashTableFlags    int    // implementation-defined hash-table tuning
	IterateThreadNum  int    // scanner fan-out
	Sync              int    // opaque OS flush hint, stored for the caller
}

// known config keys, per spec §6.
const (
	keyData             = "data"
	keyHistory          = "history"
	keyDataBlockSize    = "data_block_size"
	keyHistoryBlockSize = "history_block_size"
	keyHashTableSize    = "hash_table_size"
	keyHashTableFlags   = "hash_table_flags"
	keyIterateThreads   = "iterate_thread_num"
	keySync             = "sync"
)

// ParseConfig validates raw and applies defaults. Unknown keys are
// rejected with ErrConfig, as are a missing "data" or "history" path.
func ParseConfig(raw map[string]string) (Config, error) {
	cfg := Config{
		HashTableSize:    DefaultHashTableSize,
		IterateThreadNum: DefaultIterateThreadNum,
	}

	for k, v := range raw {
		switch k {
		case keyData:
			cfg.DataPath = v
		case keyHistory:
			cfg.HistoryPath = v
		case keyDataBlockSize:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.DataBlockSize = n
		case keyHistoryBlockSize:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.HistoryBlockSize = n
		case keyHashTableSize:
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.HashTableSize = n
		case keyHashTableFlags:
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.HashTableFlags = n
		case keyIterateThreads:
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.IterateThreadNum = n
		case keySync:
			n, err := strconv.Atoi(v)
			if err != nil {
				return Config{}, ErrConfig
			}
			cfg.Sync = n
		default:
			return Config{}, ErrConfig
		}
	}

	if cfg.DataPath == "" || cfg.HistoryPath == "" {
		return Config{}, ErrConfig
	}
	if cfg.IterateThreadNum < 1 {
		cfg.IterateThreadNum = 1
	}

	return cfg, nil
}
