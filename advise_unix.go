//go:build unix

package ledger

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints that a blob file will be read sequentially,
// used for the initial startup scan (spec §4.2).
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

// adviseRandom hints that subsequent access to a blob file is random,
// the steady-state access pattern once the backend is serving READ.
func adviseRandom(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
