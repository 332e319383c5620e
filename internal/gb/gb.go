// Package gb is the core's single public entry point (spec.md §6): one
// GB instance per loaded cartridge, created by Init and driven by
// repeated RunFrame calls. It owns no cartridge bytes, VRAM dumps, or
// file paths of its own — every byte not produced by the core itself
// comes from the host's Hooks implementation.
package gb

import (
	"github.com/corvidae-labs/dmgcore/internal/bus"
	"github.com/corvidae-labs/dmgcore/internal/cart"
	"github.com/corvidae-labs/dmgcore/internal/cpu"
)

// GB is the context record spec.md §3 describes: created once by Init,
// reinitialized by Reset, driven by RunFrame, and destroyed by the host
// simply dropping the reference.
type GB struct {
	cpu  *cpu.CPU
	bus  *bus.Bus
	cart *cart.Cart

	hooks      Hooks
	header     cart.Header
	bootHooked bool
}

// New allocates a GB with no cartridge loaded. Call Init before Reset
// or RunFrame.
func New() *GB {
	return &GB{}
}

// Init probes the cartridge header through hooks.RomRead (spec.md
// §4.7) and wires the bus/CPU for it. The header probe is the only
// place the core ever looks at ROM bytes directly, and it keeps none of
// them afterward.
func (g *GB) Init(hooks Hooks) InitError {
	headerBuf := make([]byte, 0x0150)
	for i := range headerBuf {
		headerBuf[i] = hooks.RomRead(uint32(i))
	}
	if !cart.ChecksumOK(headerBuf) {
		return InvalidChecksum
	}
	header := cart.ParseHeader(headerBuf)
	if header.MBCType == cart.MBCUnsupported {
		return CartridgeUnsupported
	}

	g.hooks = hooks
	g.header = header
	g.cart = cart.New(header, hooks)
	g.bus = bus.New(g.cart, hooks)
	g.cpu = cpu.New(g.bus)
	return NoError
}

// GetSaveSize reports the cart-RAM size in bytes a host should persist
// across sessions (spec.md §6): 0 for RAM-less cartridges, 512 for
// MBC2's 4-bit cell array, else RAMBanks*8192.
func (g *GB) GetSaveSize() int {
	switch {
	case g.header.MBCType == cart.MBC2:
		return 512
	case !g.header.HasRAM:
		return 0
	default:
		return g.header.RAMBanks * 0x2000
	}
}

// SetRTC overwrites the MBC3 real-time-clock record (spec.md §6); a
// no-op on any other cartridge type.
func (g *GB) SetRTC(days uint16, hour, min, sec uint8) {
	if g.header.MBCType == cart.MBC3 {
		g.cart.SetRTC(days, hour, min, sec)
	}
}

// ColourHash sums header bytes 0x0134-0x0143 (spec.md §6). It re-probes
// through RomRead rather than keeping the header buffer around, since
// the core never owns cartridge bytes past Init.
func (g *GB) ColourHash() uint8 {
	var sum uint8
	for i := uint32(0x0134); i <= 0x0143; i++ {
		sum += g.hooks.RomRead(i)
	}
	return sum
}

// GetROMName returns the cartridge title decoded at Init (spec.md §6).
func (g *GB) GetROMName() string { return g.header.Title }

// SetBootROM toggles whether 0x0000-0x00FF is overlaid by
// hooks.BootROMRead while IO[BOOT]==0 (spec.md §4.1, §6). Takes effect
// on the next Reset.
func (g *GB) SetBootROM(enabled bool) {
	g.bootHooked = enabled
	g.bus.SetBootROMConfigured(enabled)
}

// SetSerial rewires the hooks used for serial_tx/serial_rx (and every
// other callback, since Hooks is one interface) without requiring a
// fresh Init (spec.md §6).
func (g *GB) SetSerial(hooks Hooks) {
	g.hooks = hooks
	g.bus.SetHooks(hooks)
}

// SetLCD rewires the draw_line sink (spec.md §6).
func (g *GB) SetLCD(fn DrawLineFunc) {
	g.bus.PPU().SetDrawLine(fn)
}

// SetJoypad updates the host-facing joypad byte (spec.md §6): a cleared
// bit means the corresponding button is pressed. Safe to call only
// between RunFrame calls (spec.md §5).
func (g *GB) SetJoypad(value uint8) { g.bus.SetJoypad(value) }

// SetFrameSkip and SetInterlace expose the host-mutable direct.{frame_skip,
// interlace} flags from spec.md §5.
func (g *GB) SetFrameSkip(v bool) { g.bus.PPU().SetFrameSkip(v) }
func (g *GB) SetInterlace(v bool) { g.bus.PPU().SetInterlace(v) }

// CPU and Bus expose the owned components for tests and hostglue code
// that needs to reach past the public API (e.g. cmd/cpurunner reading
// serial output, or property tests checking invariants).
func (g *GB) CPU() *cpu.CPU { return g.cpu }
func (g *GB) Bus() *bus.Bus { return g.bus }

// RunFrame drives step_cpu until the PPU's frame-ready flag is set
// (spec.md §4.7): exactly one call produces exactly one frame, whether
// or not the LCD is currently on. The first call after Reset is shorter:
// Reset leaves the PPU in mode 1 on line 0, so line 0 is not drawn and
// that frame ends at line 144 after 65664 cycles instead of 70224.
func (g *GB) RunFrame() {
	g.bus.PPU().ClearFrameReady()
	for !g.bus.PPU().FrameReady() {
		g.cpu.Step()
	}
}
