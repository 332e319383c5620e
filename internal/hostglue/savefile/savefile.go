// Package savefile manages battery-backed cartridge RAM persistence: the
// .sav path derived from a ROM path, loading it into a fixed-size
// buffer, and writing it back out only when its content actually
// changed.
package savefile

import (
	"os"
	"strings"

	"github.com/cespare/xxhash"
)

// Path derives the save-file path for a ROM at romPath, replacing its
// extension with ".sav".
func Path(romPath string) string {
	if i := strings.LastIndexByte(romPath, '.'); i >= 0 {
		return romPath[:i] + ".sav"
	}
	return romPath + ".sav"
}

// Load reads path into a size-byte buffer. A missing or short file is
// zero-padded; a missing file is not an error.
func Load(path string, size int) []byte {
	buf := make([]byte, size)
	data, err := os.ReadFile(path)
	if err != nil {
		return buf
	}
	copy(buf, data)
	return buf
}

// Persister writes cart RAM to path only when its content hash has
// changed since the last successful write, avoiding redundant disk I/O
// on hosts that call Save once per frame.
type Persister struct {
	path     string
	lastHash uint64
	hasLast  bool
}

// NewPersister builds a Persister targeting path.
func NewPersister(path string) *Persister {
	return &Persister{path: path}
}

// Save writes data to p's path if its content differs from the last
// successful write, returning whether a write happened.
func (p *Persister) Save(data []byte) (bool, error) {
	h := xxhash.Sum64(data)
	if p.hasLast && h == p.lastHash {
		return false, nil
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return false, err
	}
	p.lastHash = h
	p.hasLast = true
	return true, nil
}
