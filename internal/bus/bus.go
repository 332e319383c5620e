// Package bus implements the 16-bit memory-mapped address space
// (spec.md §4.1): decoding by top nibble into cartridge, VRAM/OAM (via
// ppu.PPU), WRAM, HRAM, and the IO register file, including OAM DMA and
// the JOYP/APU register quirks.
package bus

import (
	"github.com/corvidae-labs/dmgcore/internal/cart"
	"github.com/corvidae-labs/dmgcore/internal/interrupt"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
	"github.com/corvidae-labs/dmgcore/internal/ppu"
	"github.com/corvidae-labs/dmgcore/internal/serial"
	"github.com/corvidae-labs/dmgcore/internal/timer"
)

// Joypad button bitmasks for the host-set joypad byte (spec.md §6): a
// cleared bit means the button is pressed.
const (
	JoypA      uint8 = 0x01
	JoypB      uint8 = 0x02
	JoypSelect uint8 = 0x04
	JoypStart  uint8 = 0x08
	JoypRight  uint8 = 0x10
	JoypLeft   uint8 = 0x20
	JoypUp     uint8 = 0x40
	JoypDown   uint8 = 0x80
)

// apuOrMask is the static read-back or-mask for FF10-FF3F, used whenever
// the host hasn't wired real audio_read/audio_write hooks (spec.md §6):
// unused bits of each NRxx register always read as 1; wave RAM
// (FF30-FF3F) has no unused bits.
var apuOrMask = [0x30]uint8{
	0x00: 0x80, 0x01: 0x3F, 0x02: 0x00, 0x03: 0xFF, 0x04: 0xBF,
	0x05: 0xFF, 0x06: 0x3F, 0x07: 0x00, 0x08: 0xFF, 0x09: 0xBF,
	0x0A: 0x7F, 0x0B: 0xFF, 0x0C: 0x9F, 0x0D: 0xFF, 0x0E: 0xBF,
	0x0F: 0xFF, 0x10: 0xFF, 0x11: 0x00, 0x12: 0x00, 0x13: 0xBF,
	0x14: 0x00, 0x15: 0x00, 0x16: 0x70,
	0x17: 0xFF, 0x18: 0xFF, 0x19: 0xFF, 0x1A: 0xFF, 0x1B: 0xFF,
	0x1C: 0xFF, 0x1D: 0xFF, 0x1E: 0xFF, 0x1F: 0xFF,
	// 0x20-0x2F: FF30-FF3F wave RAM, no unused bits.
}

// Bus wires the CPU-visible address space to the cartridge, PPU, WRAM,
// HRAM, and the timer/serial/interrupt controllers.
type Bus struct {
	cart   *cart.Cart
	ppu    *ppu.PPU
	timer  *timer.Controller
	serial *serial.Controller
	irq    *interrupt.Controller
	hooks  iohooks.Hooks

	wram [0x2000]byte
	hram [0x7F]byte

	joypSelect uint8
	joypad     uint8
	joypLower4 uint8

	dma       uint8
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	bootConfigured bool
	bootDisabled   bool
}

// New wires a Bus to its cartridge and host hooks, constructing the
// timer/serial/interrupt/ppu controllers it owns.
func New(c *cart.Cart, hooks iohooks.Hooks) *Bus {
	irq := interrupt.New()
	s := serial.New(irq)
	s.SetHooks(hooks)
	b := &Bus{
		cart:   c,
		ppu:    ppu.New(irq),
		timer:  timer.New(irq),
		serial: s,
		irq:    irq,
		hooks:  hooks,
		joypad: 0xFF,
	}
	b.ppu.SetDrawLine(func(line uint8, pixels [160]uint8) {
		if b.hooks != nil {
			b.hooks.DrawLine(line, pixels)
		}
	})
	return b
}

// PPU, Timer, Serial, Interrupt, Cart expose the owned controllers to
// the CPU and the core's public API.
func (b *Bus) PPU() *ppu.PPU                    { return b.ppu }
func (b *Bus) Timer() *timer.Controller         { return b.timer }
func (b *Bus) Serial() *serial.Controller       { return b.serial }
func (b *Bus) Interrupt() *interrupt.Controller { return b.irq }
func (b *Bus) Cart() *cart.Cart                 { return b.cart }

// Hooks exposes the host hooks for the CPU's invalid-opcode reporting.
func (b *Bus) Hooks() iohooks.Hooks { return b.hooks }

// SetHooks rewires the hooks used for ROM/RAM/boot-ROM/serial/audio/
// draw-line/error. Used by gb.SetSerial; it reinstalls the PPU's
// draw-line sink as a bridge to hooks.DrawLine, replacing any function
// set through gb.SetLCD (which calls PPU().SetDrawLine directly).
func (b *Bus) SetHooks(hooks iohooks.Hooks) {
	b.hooks = hooks
	b.serial.SetHooks(hooks)
	b.ppu.SetDrawLine(func(line uint8, pixels [160]uint8) {
		if b.hooks != nil {
			b.hooks.DrawLine(line, pixels)
		}
	})
}

// SetBootROMConfigured records whether a boot-ROM hook is installed;
// only then does 0x0000-0x00FF overlay the boot ROM while IO[BOOT]==0.
func (b *Bus) SetBootROMConfigured(v bool) { b.bootConfigured = v }

// Reset clears WRAM/HRAM, the DMA and joypad latch state, and the
// boot-ROM-disable latch. ppuStat selects the PPU's post-reset STAT
// value (0x85 without a boot ROM, 0x84 with one), matching spec.md §4.7.
func (b *Bus) Reset(ppuStat uint8, bootDisabled bool) {
	b.wram = [0x2000]byte{}
	b.hram = [0x7F]byte{}
	b.joypSelect = 0
	b.joypad = 0xFF
	b.joypLower4 = 0x0F
	b.dma = 0
	b.dmaActive = false
	b.dmaSrc = 0
	b.dmaIndex = 0
	b.bootDisabled = bootDisabled
	b.ppu.Reset(ppuStat)
	b.timer.Reset()
	b.serial.Reset()
	b.irq.Flag = 0
	b.irq.Enable = 0
	b.irq.IME = false
}

// SetJoypad updates the host-facing joypad byte (bit cleared = pressed,
// spec.md §6) and raises JOYPAD_INTR on any newly-pressed (1->0) line.
func (b *Bus) SetJoypad(value uint8) {
	b.joypad = value
	b.updateJoypadIRQ()
}

// Read serves a CPU memory read, decoding addr by its top nibble per
// spec.md §4.1.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x4000:
		if b.bootConfigured && !b.bootDisabled && addr < 0x0100 {
			return b.hooks.BootROMRead(addr)
		}
		return b.cart.RomRead(addr)
	case addr < 0x8000:
		return b.cart.RomRead(addr)
	case addr < 0xA000:
		return b.ppu.CPURead(addr)
	case addr < 0xC000:
		return b.cart.ReadRAM(addr)
	case addr < 0xE000:
		return b.wram[addr-0xC000]
	case addr < 0xFE00:
		return b.wram[addr-0x2000-0xC000]
	default:
		return b.readIO(addr)
	}
}

func (b *Bus) readIO(addr uint16) uint8 {
	switch {
	case addr < 0xFEA0:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr < 0xFF00:
		return 0xFF
	case addr == 0xFF00:
		return b.readJOYP()
	case addr == 0xFF01:
		return b.serial.ReadSB()
	case addr == 0xFF02:
		return b.serial.ReadSC()
	case addr == 0xFF04:
		return b.timer.ReadDIV()
	case addr == 0xFF05:
		return b.timer.ReadTIMA()
	case addr == 0xFF06:
		return b.timer.ReadTMA()
	case addr == 0xFF07:
		return b.timer.ReadTAC()
	case addr == 0xFF0F:
		return b.irq.ReadIF()
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		if b.bootDisabled {
			return 0xFF
		}
		return 0xFE
	case addr >= 0xFF10 && addr <= 0xFF3F:
		return b.readAPU(addr)
	case addr >= 0xFF40 && addr <= 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr < 0xFF80:
		return 0xFF
	case addr < 0xFFFF:
		return b.hram[addr-0xFF80]
	default:
		return b.irq.ReadIE()
	}
}

func (b *Bus) readAPU(addr uint16) uint8 {
	if b.hooks != nil {
		return b.hooks.AudioRead(addr)
	}
	idx := addr - 0xFF10
	if int(idx) < len(apuOrMask) {
		return apuOrMask[idx]
	}
	return 0xFF
}

// readJOYP computes FF00's value: bits 7-6 read as 1, bits 5-4 reflect
// the last-written selection, bits 3-0 are the wired-AND of whichever
// line group(s) are selected (spec.md §4.1).
func (b *Bus) readJOYP() uint8 {
	low := uint8(0x0F)
	if b.joypSelect&0x10 == 0 {
		low &= (b.joypad >> 4) & 0x0F
	}
	if b.joypSelect&0x20 == 0 {
		low &= b.joypad & 0x0F
	}
	return 0xC0 | b.joypSelect&0x30 | low
}

// Write serves a CPU memory write, mirroring Read's decode.
func (b *Bus) Write(addr uint16, value uint8) {
	switch {
	case addr < 0x8000:
		b.cart.WriteROM(addr, value)
	case addr < 0xA000:
		b.ppu.CPUWrite(addr, value)
	case addr < 0xC000:
		b.cart.WriteRAM(addr, value)
	case addr < 0xE000:
		b.wram[addr-0xC000] = value
	case addr < 0xFE00:
		b.wram[addr-0x2000-0xC000] = value
	default:
		b.writeIO(addr, value)
	}
}

func (b *Bus) writeIO(addr uint16, value uint8) {
	switch {
	case addr < 0xFEA0:
		if b.dmaActive {
			return
		}
		b.ppu.CPUWrite(addr, value)
	case addr < 0xFF00:
		// Unusable region: writes ignored.
	case addr == 0xFF00:
		b.joypSelect = value & 0x30
		b.updateJoypadIRQ()
	case addr == 0xFF01:
		b.serial.WriteSB(value)
	case addr == 0xFF02:
		b.serial.WriteSC(value)
	case addr == 0xFF04:
		b.timer.WriteDIV(value)
	case addr == 0xFF05:
		b.timer.WriteTIMA(value)
	case addr == 0xFF06:
		b.timer.WriteTMA(value)
	case addr == 0xFF07:
		b.timer.WriteTAC(value)
	case addr == 0xFF0F:
		b.irq.WriteIF(value)
	case addr == 0xFF46:
		b.startDMA(value)
	case addr == 0xFF50:
		if value != 0 {
			b.bootDisabled = true
		}
	case addr >= 0xFF10 && addr <= 0xFF3F:
		if b.hooks != nil {
			b.hooks.AudioWrite(addr, value)
		}
	case addr >= 0xFF40 && addr <= 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr < 0xFF80:
		// Unmapped IO: writes ignored.
	case addr < 0xFFFF:
		b.hram[addr-0xFF80] = value
	default:
		b.irq.WriteIE(value)
	}
}

func (b *Bus) startDMA(value uint8) {
	b.dma = value
	b.dmaActive = true
	b.dmaSrc = uint16(value) << 8
	b.dmaIndex = 0
}

// Tick advances the timer (DIV and TIMA together), then the cartridge
// RTC, then serial, then the PPU by cycles CPU cycles, and steps any
// in-flight OAM DMA one byte per cycle (DMA is independent of that
// ordering since it only touches OAM, which the CPU cannot observe
// mid-transfer).
func (b *Bus) Tick(cycles uint8) {
	b.timer.Tick(cycles)
	b.cart.Tick(cycles)
	b.serial.Tick(cycles)
	b.ppu.Tick(cycles)

	for i := uint8(0); i < cycles && b.dmaActive; i++ {
		v := b.Read(b.dmaSrc + uint16(b.dmaIndex))
		b.ppu.WriteOAMByte(b.dmaIndex, v)
		b.dmaIndex++
		if b.dmaIndex >= 0xA0 {
			b.dmaActive = false
		}
	}
}

// Snapshot is the gob-encodable subset of Bus captured by SaveState,
// nesting each owned controller's own Snapshot (mirrors the teacher's
// per-component SaveState/LoadState composition in bus.go).
type Snapshot struct {
	WRAM [0x2000]byte
	HRAM [0x7F]byte

	JoypSelect, Joypad, JoypLower4 uint8

	DMA       uint8
	DMAActive bool
	DMASrc    uint16
	DMAIndex  int

	BootConfigured, BootDisabled bool

	PPU       ppu.Snapshot
	Timer     timer.Snapshot
	Serial    serial.Snapshot
	Interrupt interrupt.Snapshot
	Cart      cart.Snapshot
}

// SaveState captures WRAM/HRAM, the DMA and joypad latch state, and
// every owned peripheral's own state.
func (b *Bus) SaveState() Snapshot {
	return Snapshot{
		WRAM: b.wram, HRAM: b.hram,
		JoypSelect: b.joypSelect, Joypad: b.joypad, JoypLower4: b.joypLower4,
		DMA: b.dma, DMAActive: b.dmaActive, DMASrc: b.dmaSrc, DMAIndex: b.dmaIndex,
		BootConfigured: b.bootConfigured, BootDisabled: b.bootDisabled,
		PPU:       b.ppu.SaveState(),
		Timer:     b.timer.SaveState(),
		Serial:    b.serial.SaveState(),
		Interrupt: b.irq.SaveState(),
		Cart:      b.cart.SaveState(),
	}
}

// LoadState restores everything SaveState captured.
func (b *Bus) LoadState(s Snapshot) {
	b.wram, b.hram = s.WRAM, s.HRAM
	b.joypSelect, b.joypad, b.joypLower4 = s.JoypSelect, s.Joypad, s.JoypLower4
	b.dma, b.dmaActive, b.dmaSrc, b.dmaIndex = s.DMA, s.DMAActive, s.DMASrc, s.DMAIndex
	b.bootConfigured, b.bootDisabled = s.BootConfigured, s.BootDisabled
	b.ppu.LoadState(s.PPU)
	b.timer.LoadState(s.Timer)
	b.serial.LoadState(s.Serial)
	b.irq.LoadState(s.Interrupt)
	b.cart.LoadState(s.Cart)
}

// updateJoypadIRQ recomputes JOYP's active-low lower nibble for both
// line groups and raises interrupt.Joypad on any 1->0 transition.
func (b *Bus) updateJoypadIRQ() {
	newLower := uint8(0x0F)
	if b.joypSelect&0x10 == 0 {
		newLower &= (b.joypad >> 4) & 0x0F
	}
	if b.joypSelect&0x20 == 0 {
		newLower &= b.joypad & 0x0F
	}
	if b.joypLower4&^newLower != 0 {
		b.irq.Request(interrupt.Joypad)
	}
	b.joypLower4 = newLower
}
