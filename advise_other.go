//go:build !unix

package ledger

import "os"

func adviseSequential(f *os.File) {}

func adviseRandom(f *os.File) {}
