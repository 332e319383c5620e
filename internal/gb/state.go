package gb

import (
	"bytes"
	"encoding/gob"

	"github.com/corvidae-labs/dmgcore/internal/bus"
	"github.com/corvidae-labs/dmgcore/internal/cpu"
)

// snapshot is the gob-encodable whole-machine state GetState/SetState
// round-trip: CPU registers plus everything Bus.SaveState already nests
// (PPU, timer, serial, interrupt, cart), modeled on the teacher's
// per-component SaveState()/LoadState() composition (bus.go, apu.go).
// This is pure host convenience (SPEC_FULL.md §3); it changes no
// semantics spec.md defines.
type snapshot struct {
	CPU cpu.Snapshot
	Bus bus.Snapshot
}

// GetState serializes the entire machine into an opaque blob a host can
// stash and later hand back to SetState.
func (g *GB) GetState() []byte {
	s := snapshot{CPU: g.cpu.SaveState(), Bus: g.bus.SaveState()}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil
	}
	return buf.Bytes()
}

// SetState restores a blob produced by GetState for the same cartridge
// and MBC type. A malformed blob is ignored rather than panicking,
// matching the "recoverable conditions are silently dropped" policy in
// spec.md §7.
func (g *GB) SetState(data []byte) {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return
	}
	g.cpu.LoadState(s.CPU)
	g.bus.LoadState(s.Bus)
}
