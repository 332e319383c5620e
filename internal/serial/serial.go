// Package serial implements the byte-shift serial transfer placeholder
// described by spec.md §4.5: no link-partner negotiation, just SB/SC
// timing and a pair of host callbacks.
package serial

import (
	"github.com/corvidae-labs/dmgcore/internal/interrupt"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
)

// transferCycles is the number of CPU cycles a single-byte exchange
// takes to complete once started (spec.md §4.5).
const transferCycles = 4096

// Controller owns SB/SC and the in-flight transfer's cycle accumulator.
type Controller struct {
	SB uint8
	SC uint8

	count int
	hooks iohooks.Hooks

	irq *interrupt.Controller
}

// New returns a Controller. hooks may be nil until SetHooks is called;
// a nil hooks value disables tx/rx callbacks entirely. An internal-clock
// transfer then still completes after transferCycles with SB=0xFF and
// raises interrupt.Serial; an external-clock transfer stays pending.
func New(irq *interrupt.Controller) *Controller {
	return &Controller{irq: irq}
}

// SetHooks installs the host callbacks used for tx/rx.
func (c *Controller) SetHooks(hooks iohooks.Hooks) { c.hooks = hooks }

// Reset clears SB/SC and the transfer accumulator.
func (c *Controller) Reset() {
	c.SB = 0
	c.SC = 0
	c.count = 0
}

// ReadSB, ReadSC implement the bus-facing reads for FF01/FF02.
func (c *Controller) ReadSB() uint8 { return c.SB }
func (c *Controller) ReadSC() uint8 { return c.SC | 0x7E }

// WriteSB stores the byte to be shifted out on the next transfer.
func (c *Controller) WriteSB(v uint8) { c.SB = v }

// WriteSC starts (or leaves alone) a transfer. Setting bit 7 while no
// transfer is already running resets the cycle accumulator so the next
// Tick begins counting from zero and fires the tx callback exactly
// once for the new transfer.
func (c *Controller) WriteSC(v uint8) {
	starting := v&0x80 != 0 && c.SC&0x80 == 0
	c.SC = v
	if starting {
		c.count = 0
		if c.hooks != nil {
			c.hooks.SerialTx(c.SB)
		}
	}
}

// Tick advances the in-flight transfer, if any, by cycles CPU cycles.
func (c *Controller) Tick(cycles uint8) {
	if c.SC&0x80 == 0 {
		return
	}
	c.count += int(cycles)
	if c.count < transferCycles {
		return
	}

	if c.hooks != nil {
		if value, result := c.hooks.SerialRx(); result == iohooks.SerialSuccess {
			c.SB = value
			c.SC &= 0x01
			c.irq.Request(interrupt.Serial)
			c.count = 0
			return
		}
	}
	if c.SC&0x01 != 0 {
		// Internal clock, no connected peer: shift in all-ones.
		c.SB = 0xFF
		c.SC &= 0x01
		c.irq.Request(interrupt.Serial)
		c.count = 0
		return
	}
	// External clock with no partner: SB is left unchanged and the
	// transfer never completes until SC is rewritten by the program;
	// serial_count is deliberately left at/above threshold so the next
	// Tick retries immediately.
}

// Snapshot is the gob-encodable subset of Controller captured by
// SaveState.
type Snapshot struct {
	SB, SC uint8
	Count  int
}

func (c *Controller) SaveState() Snapshot {
	return Snapshot{c.SB, c.SC, c.count}
}

func (c *Controller) LoadState(s Snapshot) {
	c.SB, c.SC, c.count = s.SB, s.SC, s.Count
}
