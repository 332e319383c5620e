// Package ppu implements the pixel-processing-unit mode machine and
// scanline renderer (spec.md §4.6): LY/STAT timing against a CPU-cycle
// accumulator, and background/window/sprite composition into the
// 160-byte line buffer handed to the host's draw_line hook.
package ppu

import "github.com/corvidae-labs/dmgcore/internal/interrupt"

// Mode-timing constants, dots within a 456-dot line (spec.md §4.6).
const (
	modeOAMEnd  = 80
	modeDrawEnd = 252
	dotsPerLine = 456
	linesPerFrame = 154
	vblankLine    = 144
	frameDots     = dotsPerLine * linesPerFrame
)

// LCDC/STAT bit constants.
const (
	lcdcBGEnable     = 0x01
	lcdcOBJEnable    = 0x02
	lcdcOBJSize      = 0x04
	lcdcBGMapSelect  = 0x08
	lcdcTileSelect   = 0x10
	lcdcWinEnable    = 0x20
	lcdcWinMapSelect = 0x40
	lcdcEnable       = 0x80

	statLYCIntEnable  = 0x40
	statMode2IntEnable = 0x20
	statMode1IntEnable = 0x10
	statMode0IntEnable = 0x08
	statLYCFlag       = 0x04
)

// DrawLineFunc is the host frame-sink callback (spec.md §6).
type DrawLineFunc func(line uint8, pixels [160]uint8)

// PPU owns VRAM, OAM, the LCD register file, and the mode-machine +
// renderer state. It calls into irq to raise VBlank/LCD interrupts and
// into drawLine once per visible scanline.
type PPU struct {
	vram [0x2000]byte
	oam  [0xA0]byte

	lcdc, stat       uint8
	scy, scx         uint8
	ly, lyc          uint8
	bgp, obp0, obp1  uint8
	wy, wx           uint8

	lcdCount    int
	lcdOffCount int

	lcdBlank    bool
	frameReady  bool
	windowClear uint8
	wyLatch     uint8

	frameSkip      bool
	skipThisFrame  bool
	interlace      bool
	interlaceField uint8

	irq      *interrupt.Controller
	drawLine DrawLineFunc
}

// New returns a PPU wired to irq for interrupt requests. drawLine may be
// nil; SetDrawLine installs it later (matching the core-exposed set_lcd
// operation in spec.md §6).
func New(irq *interrupt.Controller) *PPU {
	return &PPU{irq: irq}
}

// SetDrawLine installs (or replaces) the frame-sink callback.
func (p *PPU) SetDrawLine(fn DrawLineFunc) { p.drawLine = fn }

// SetFrameSkip and SetInterlace expose the host-mutable direct.{frame_skip,
// interlace} flags from spec.md §5.
func (p *PPU) SetFrameSkip(v bool) { p.frameSkip = v }
func (p *PPU) SetInterlace(v bool) { p.interlace = v }

// Reset restores the power-on LCD register state (spec.md §4.7):
// LCDC=0x91, STAT=0x85 with no boot ROM, or STAT=0x84 if a boot ROM
// hook is installed (handled by the caller selecting the right Reset).
func (p *PPU) Reset(stat uint8) {
	p.vram = [0x2000]byte{}
	p.oam = [0xA0]byte{}
	p.lcdc = 0x91
	p.stat = stat
	p.scy, p.scx = 0, 0
	p.ly, p.lyc = 0, 0
	p.bgp = 0xFC
	p.obp0, p.obp1 = 0xFF, 0xFF
	p.wy, p.wx = 0, 0
	p.lcdCount = 0
	p.lcdOffCount = 0
	p.lcdBlank = false
	p.frameReady = false
	p.windowClear = 0
	p.wyLatch = 0
	p.interlaceField = 0
}

// FrameReady reports whether the current run_frame call should stop.
func (p *PPU) FrameReady() bool { return p.frameReady }

// ClearFrameReady resets the frame-boundary flag at the start of a new
// run_frame call.
func (p *PPU) ClearFrameReady() { p.frameReady = false }

// LY exposes the current scanline for property tests and save state.
func (p *PPU) LY() uint8 { return p.ly }

// Mode returns the current STAT mode bits (0-3).
func (p *PPU) Mode() uint8 { return p.stat & 0x03 }

// CPURead serves bus reads of VRAM, OAM, and the PPU's IO registers.
func (p *PPU) CPURead(addr uint16) uint8 {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		return p.vram[addr-0x8000]
	case addr >= 0xFE00 && addr <= 0xFE9F:
		return p.oam[addr-0xFE00]
	case addr == 0xFF40:
		return p.lcdc
	case addr == 0xFF41:
		return p.stat | 0x80
	case addr == 0xFF42:
		return p.scy
	case addr == 0xFF43:
		return p.scx
	case addr == 0xFF44:
		return p.ly
	case addr == 0xFF45:
		return p.lyc
	case addr == 0xFF47:
		return p.bgp
	case addr == 0xFF48:
		return p.obp0
	case addr == 0xFF49:
		return p.obp1
	case addr == 0xFF4A:
		return p.wy
	case addr == 0xFF4B:
		return p.wx
	default:
		return 0xFF
	}
}

// CPUWrite serves bus writes to the same range as CPURead.
func (p *PPU) CPUWrite(addr uint16, value uint8) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		p.vram[addr-0x8000] = value
	case addr >= 0xFE00 && addr <= 0xFE9F:
		p.oam[addr-0xFE00] = value
	case addr == 0xFF40:
		p.writeLCDC(value)
	case addr == 0xFF41:
		p.stat = p.stat&0x07 | value&0x78
	case addr == 0xFF42:
		p.scy = value
	case addr == 0xFF43:
		p.scx = value
	case addr == 0xFF44:
		// LY is read-only on real hardware; ignored here.
	case addr == 0xFF45:
		p.lyc = value
	case addr == 0xFF47:
		p.bgp = value
	case addr == 0xFF48:
		p.obp0 = value
	case addr == 0xFF49:
		p.obp1 = value
	case addr == 0xFF4A:
		p.wy = value
	case addr == 0xFF4B:
		p.wx = value
	}
}

// WriteOAMByte writes OAM directly, bypassing CPU-facing restrictions;
// used by DMA (spec.md §4.1).
func (p *PPU) WriteOAMByte(idx int, value uint8) { p.oam[idx] = value }

func (p *PPU) writeLCDC(value uint8) {
	prev := p.lcdc
	p.lcdc = value
	wasOn := prev&lcdcEnable != 0
	isOn := value&lcdcEnable != 0
	if wasOn && !isOn {
		p.stat = p.stat &^ 0x03
		p.ly = 0
		p.lcdOffCount += p.lcdCount
		p.lcdCount = 0
	} else if !wasOn && isOn {
		p.lcdBlank = true
		p.lcdCount = 0
		p.ly = 0
	}
}

// Tick advances the PPU state machine and scanline renderer by cycles
// CPU cycles (spec.md §4.6).
func (p *PPU) Tick(cycles uint8) {
	if p.lcdc&lcdcEnable == 0 {
		p.lcdOffCount += int(cycles)
		if p.lcdOffCount >= frameDots {
			p.frameReady = true
			p.lcdOffCount -= frameDots
		}
		return
	}

	p.lcdCount += int(cycles)

	if p.lcdCount >= dotsPerLine {
		p.lcdCount -= dotsPerLine
		p.ly = (p.ly + 1) % linesPerFrame
		p.updateLYCCoincidence()

		switch {
		case p.ly == vblankLine:
			p.setMode(1)
			p.frameReady = true
			p.irq.Request(vblankBit)
			if p.stat&statMode1IntEnable != 0 {
				p.irq.Request(lcdBit)
			}
			if p.frameSkip {
				p.skipThisFrame = !p.skipThisFrame
			}
			if p.interlace {
				p.interlaceField ^= 1
			}
			p.lcdBlank = false
		case p.ly < vblankLine:
			if p.ly == 0 {
				p.wyLatch = p.wy
				p.windowClear = 0
			}
			p.setMode(2)
			if p.stat&statMode2IntEnable != 0 {
				p.irq.Request(lcdBit)
			}
		}
		return
	}

	switch p.Mode() {
	case 3:
		if p.lcdCount >= modeDrawEnd {
			p.setMode(0)
			if p.stat&statMode0IntEnable != 0 {
				p.irq.Request(lcdBit)
			}
		}
	case 2:
		if p.lcdCount >= modeOAMEnd {
			p.setMode(3)
			if !p.lcdBlank {
				p.renderLine()
			}
		}
	}
}

func (p *PPU) setMode(mode uint8) {
	p.stat = p.stat&^0x03 | mode&0x03
}

func (p *PPU) updateLYCCoincidence() {
	if p.ly == p.lyc {
		p.stat |= statLYCFlag
		if p.stat&statLYCIntEnable != 0 {
			p.irq.Request(lcdBit)
		}
	} else {
		p.stat &^= statLYCFlag
	}
}

// vblankBit/lcdBit mirror interrupt.VBlank/interrupt.LCD; re-declared
// locally to avoid importing interrupt.Bit's alias noise at every call
// site.
const (
	vblankBit = interrupt.VBlank
	lcdBit    = interrupt.LCD
)

// Snapshot is the gob-encodable subset of PPU captured by SaveState.
type Snapshot struct {
	VRAM [0x2000]byte
	OAM  [0xA0]byte

	LCDC, STAT      uint8
	SCY, SCX        uint8
	LY, LYC         uint8
	BGP, OBP0, OBP1 uint8
	WY, WX          uint8

	LCDCount, LCDOffCount int
	LCDBlank, FrameReady  bool
	WindowClear, WYLatch  uint8

	FrameSkip, SkipThisFrame bool
	Interlace                bool
	InterlaceField           uint8
}

// SaveState captures every field a reset or a fresh frame-boundary
// doesn't already imply (SPEC_FULL.md §3).
func (p *PPU) SaveState() Snapshot {
	return Snapshot{
		VRAM: p.vram, OAM: p.oam,
		LCDC: p.lcdc, STAT: p.stat,
		SCY: p.scy, SCX: p.scx,
		LY: p.ly, LYC: p.lyc,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,
		WY: p.wy, WX: p.wx,
		LCDCount: p.lcdCount, LCDOffCount: p.lcdOffCount,
		LCDBlank: p.lcdBlank, FrameReady: p.frameReady,
		WindowClear: p.windowClear, WYLatch: p.wyLatch,
		FrameSkip: p.frameSkip, SkipThisFrame: p.skipThisFrame,
		Interlace: p.interlace, InterlaceField: p.interlaceField,
	}
}

func (p *PPU) LoadState(s Snapshot) {
	p.vram, p.oam = s.VRAM, s.OAM
	p.lcdc, p.stat = s.LCDC, s.STAT
	p.scy, p.scx = s.SCY, s.SCX
	p.ly, p.lyc = s.LY, s.LYC
	p.bgp, p.obp0, p.obp1 = s.BGP, s.OBP0, s.OBP1
	p.wy, p.wx = s.WY, s.WX
	p.lcdCount, p.lcdOffCount = s.LCDCount, s.LCDOffCount
	p.lcdBlank, p.frameReady = s.LCDBlank, s.FrameReady
	p.windowClear, p.wyLatch = s.WindowClear, s.WYLatch
	p.frameSkip, p.skipThisFrame = s.FrameSkip, s.SkipThisFrame
	p.interlace, p.interlaceField = s.Interlace, s.InterlaceField
}
