// Package timer implements the Game Boy's DIV/TIMA/TMA/TAC subsystem
// (spec.md §4.4): a free-running divider plus a programmable counter
// that raises interrupt.Timer on overflow.
package timer

import "github.com/corvidae-labs/dmgcore/internal/interrupt"

// tacCycles is the number of CPU cycles between TIMA increments for each
// TAC rate-select value (spec.md §4.4): {4096, 262144, 65536, 16384} Hz
// expressed as a period against the 4.194304 MHz master clock.
var tacCycles = [4]int{1024, 16, 64, 256}

// Controller owns DIV, TIMA, TMA, TAC and their free-running cycle
// accumulators.
type Controller struct {
	DIV  uint8
	TIMA uint8
	TMA  uint8
	TAC  uint8

	divCount  int
	timaCount int

	irq *interrupt.Controller
}

// New returns a Controller wired to irq for raising interrupt.Timer.
func New(irq *interrupt.Controller) *Controller {
	return &Controller{irq: irq}
}

// Reset restores power-on register values. DIV starts at 0xAB on a
// no-boot-ROM reset per spec.md §4.7; callers needing the boot-ROM path
// (DIV=0x00) set c.DIV directly afterward.
func (c *Controller) Reset() {
	c.DIV = 0xAB
	c.TIMA = 0
	c.TMA = 0
	c.TAC = 0
	c.divCount = 0
	c.timaCount = 0
}

// Tick advances DIV and, if enabled, TIMA by cycles CPU cycles, exactly
// per spec.md §4.4: both are modular accumulators drained in a while
// loop so a cycle count longer than one TIMA period is handled
// correctly in one call.
func (c *Controller) Tick(cycles uint8) {
	c.divCount += int(cycles)
	for c.divCount >= 256 {
		c.DIV++
		c.divCount -= 256
	}

	if c.TAC&0x04 == 0 {
		return
	}
	period := tacCycles[c.TAC&0x03]
	c.timaCount += int(cycles)
	for c.timaCount >= period {
		c.timaCount -= period
		c.TIMA++
		if c.TIMA == 0 {
			c.TIMA = c.TMA
			c.irq.Request(interrupt.Timer)
		}
	}
}

// ReadDIV, ReadTIMA, ReadTMA, ReadTAC implement the bus-facing reads for
// FF04-FF07. TAC's upper bits always read back as 1.
func (c *Controller) ReadDIV() uint8  { return c.DIV }
func (c *Controller) ReadTIMA() uint8 { return c.TIMA }
func (c *Controller) ReadTMA() uint8  { return c.TMA }
func (c *Controller) ReadTAC() uint8  { return c.TAC | 0xF8 }

// WriteDIV resets DIV (and its internal accumulator) to zero regardless
// of the value written, per spec.md §4.1 and the round-trip property in
// §8.
func (c *Controller) WriteDIV(uint8) {
	c.DIV = 0
	c.divCount = 0
}

// WriteTIMA and WriteTMA store the written byte directly; WriteTAC keeps
// only TAC's 3 meaningful bits, and ReadTAC reports the rest as 1.
func (c *Controller) WriteTIMA(v uint8) { c.TIMA = v }
func (c *Controller) WriteTMA(v uint8)  { c.TMA = v }
func (c *Controller) WriteTAC(v uint8)  { c.TAC = v & 0x07 }

// Snapshot is the gob-encodable subset of Controller captured by
// SaveState.
type Snapshot struct {
	DIV, TIMA, TMA, TAC   uint8
	DivCount, TimaCount int
}

func (c *Controller) SaveState() Snapshot {
	return Snapshot{c.DIV, c.TIMA, c.TMA, c.TAC, c.divCount, c.timaCount}
}

func (c *Controller) LoadState(s Snapshot) {
	c.DIV, c.TIMA, c.TMA, c.TAC = s.DIV, s.TIMA, s.TMA, s.TAC
	c.divCount, c.timaCount = s.DivCount, s.TimaCount
}
