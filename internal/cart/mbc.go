package cart

import "github.com/corvidae-labs/dmgcore/internal/iohooks"

// Cart is the single context record holding every MBC/RTC register the
// bus needs to translate an address and call through to the host's ROM
// and cartridge-RAM hooks. It deliberately owns no cartridge bytes
// itself (spec.md §1, §9): RomRead/CartRAMRead/CartRAMWrite do that.
type Cart struct {
	hooks iohooks.Hooks

	id             MBC
	hasRAM         bool
	numROMBanks    int
	numROMBankMask uint16
	numRAMBanks    int
	isOversizeMBC3 bool

	selectedROMBank uint16
	cartRAMBank     uint8
	enableCartRAM   bool
	modeSelect      uint8

	rtcReal    rtc
	rtcLatched rtc
	rtcCount   int
	latchPrev  uint8
}

// New builds a Cart from a parsed Header, wired to hooks for all ROM and
// RAM byte access.
func New(h Header, hooks iohooks.Hooks) *Cart {
	c := &Cart{
		hooks:           hooks,
		id:              h.MBCType,
		hasRAM:          h.HasRAM,
		numROMBanks:     h.ROMBanks,
		numRAMBanks:     h.RAMBanks,
		isOversizeMBC3:  h.IsMBC3Oversize,
		selectedROMBank: 1,
	}
	if h.ROMBanks > 0 {
		c.numROMBankMask = uint16(h.ROMBanks - 1)
	}
	return c
}

// MBCType reports which bank-switching scheme this cartridge uses.
func (c *Cart) MBCType() MBC { return c.id }

// RomRead resolves addr (always in 0x0000-0x7FFF) into an absolute ROM
// offset and calls the host hook. The 0x0000-0x3FFF fixed window is
// passed straight through; the switchable 0x4000-0x7FFF window adds the
// bank offset. MBC1's advanced-mode bank-0 remap only ever affects this
// 0x4000-0x7FFF arithmetic, matching the reference this core preserves
// (spec.md §9 Open Questions).
func (c *Cart) RomRead(addr uint16) uint8 {
	if addr < 0x4000 {
		return c.hooks.RomRead(uint32(addr))
	}
	bank := c.selectedROMBank
	if c.id == MBC1 && c.modeSelect == 1 {
		bank = (bank & 0x1F) - 1
	} else {
		bank--
	}
	offset := uint32(bank)*0x4000 + uint32(addr)
	return c.hooks.RomRead(offset)
}

// WriteROM dispatches a CPU write in 0x0000-0x7FFF to the bank-select
// logic for this cartridge's MBC (spec.md §4.2).
func (c *Cart) WriteROM(addr uint16, value uint8) {
	switch c.id {
	case MBC1:
		c.writeMBC1(addr, value)
	case MBC2:
		c.writeMBC2(addr, value)
	case MBC3:
		c.writeMBC3(addr, value)
	case MBC5:
		c.writeMBC5(addr, value)
	default:
		// MBC0/unsupported: writes to the ROM window are ignored.
	}
}

func (c *Cart) maskROMBank() {
	c.selectedROMBank &= c.numROMBankMask
}

func (c *Cart) writeMBC1(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.enableCartRAM = value&0x0F == 0x0A
	case addr < 0x4000:
		low5 := value & 0x1F
		if low5 == 0 {
			low5 = 1
		}
		c.selectedROMBank = c.selectedROMBank&0x60 | uint16(low5)
		c.maskROMBank()
	case addr < 0x6000:
		c.cartRAMBank = value & 0x03
		c.selectedROMBank = c.selectedROMBank&0x1F | uint16(c.cartRAMBank)<<5
		c.maskROMBank()
	default:
		c.modeSelect = value & 0x01
	}
}

func (c *Cart) writeMBC2(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		if addr&0x100 == 0 {
			c.enableCartRAM = value&0x0F == 0x0A
		}
	case addr < 0x4000:
		if addr&0x100 != 0 {
			bank := value & 0x0F
			if bank == 0 {
				bank = 1
			}
			c.selectedROMBank = uint16(bank)
			c.maskROMBank()
		}
	}
}

func (c *Cart) writeMBC3(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.enableCartRAM = value&0x0F == 0x0A
	case addr < 0x4000:
		bank := value
		if !c.isOversizeMBC3 {
			bank &= 0x7F
		}
		if bank == 0 {
			bank = 1
		}
		c.selectedROMBank = uint16(bank)
		c.maskROMBank()
	case addr < 0x6000:
		if value >= 0x08 && value <= 0x0C {
			c.cartRAMBank = value
		} else if !c.isOversizeMBC3 {
			c.cartRAMBank = value & 0x03
		} else {
			c.cartRAMBank = value
		}
	default:
		if value&0x01 != 0 && c.latchPrev == 0 {
			c.latch()
		}
		c.latchPrev = value & 0x01
		c.modeSelect = value & 0x01
	}
}

func (c *Cart) writeMBC5(addr uint16, value uint8) {
	switch {
	case addr < 0x2000:
		c.enableCartRAM = value&0x0F == 0x0A
	case addr < 0x3000:
		c.selectedROMBank = c.selectedROMBank&0x100 | uint16(value)
		c.maskROMBank()
	case addr < 0x4000:
		c.selectedROMBank = c.selectedROMBank&0x0FF | uint16(value&0x01)<<8
		c.maskROMBank()
	case addr < 0x6000:
		c.cartRAMBank = value & 0x0F
	}
}

// ReadRAM serves a CPU read from 0xA000-0xBFFF: cartridge RAM, the MBC2
// 4-bit cell array, or an MBC3 RTC register, per spec.md §4.2.
func (c *Cart) ReadRAM(addr uint16) uint8 {
	if c.id == MBC3 && c.cartRAMBank >= 0x08 && c.cartRAMBank <= 0x0C {
		return c.rtcLatched.readReg(int(c.cartRAMBank - 0x08))
	}
	if !c.enableCartRAM || !c.hasRAM {
		return 0xFF
	}
	if c.id == MBC2 {
		offset := uint32(addr) & 0x1FF
		return c.hooks.CartRAMRead(offset) | 0xF0
	}
	bank := c.ramBank()
	offset := uint32(bank)*0x2000 + uint32(addr-0xA000)
	return c.hooks.CartRAMRead(offset)
}

// WriteRAM serves a CPU write to 0xA000-0xBFFF, mirroring ReadRAM's
// routing.
func (c *Cart) WriteRAM(addr uint16, value uint8) {
	if c.id == MBC3 && c.cartRAMBank >= 0x08 && c.cartRAMBank <= 0x0C {
		c.rtcReal.writeReg(int(c.cartRAMBank-0x08), value)
		return
	}
	if !c.enableCartRAM || !c.hasRAM {
		return
	}
	if c.id == MBC2 {
		offset := uint32(addr) & 0x1FF
		c.hooks.CartRAMWrite(offset, value&0x0F)
		return
	}
	bank := c.ramBank()
	offset := uint32(bank)*0x2000 + uint32(addr-0xA000)
	c.hooks.CartRAMWrite(offset, value)
}

// ramBank returns the cart-RAM bank selected for 0xA000-0xBFFF access.
// MBC1 in base (non-advanced) mode always uses bank 0.
func (c *Cart) ramBank() uint8 {
	if c.id == MBC1 && c.modeSelect == 0 {
		return 0
	}
	return c.cartRAMBank
}

// Tick advances the MBC3 RTC by cycles CPU cycles (spec.md §4.4). A
// no-op for every other MBC.
func (c *Cart) Tick(cycles uint8) {
	if c.id == MBC3 {
		c.tickRTC(cycles)
	}
}

// SetRTC overwrites the real-time-clock record's broken-down fields,
// matching the core-exposed set_rtc operation in spec.md §6.
func (c *Cart) SetRTC(days uint16, hour, min, sec uint8) {
	c.rtcReal.Sec = sec & rtcRegMask[0]
	c.rtcReal.Min = min & rtcRegMask[1]
	c.rtcReal.Hour = hour & rtcRegMask[2]
	c.rtcReal.DayLow = uint8(days & 0xFF)
	dayHigh := c.rtcReal.DayHigh&0xC0 | uint8(days>>8)&0x01
	c.rtcReal.DayHigh = dayHigh & rtcRegMask[4]
}

// SelectedROMBank reports the current bank selected for the
// 0x4000-0x7FFF window, masked by the ROM size, for property tests
// (spec.md §8 invariants).
func (c *Cart) SelectedROMBank() uint16 { return c.selectedROMBank }

// Snapshot is the gob-encodable subset of Cart captured by SaveState:
// every banking register and the RTC record, never cartridge bytes
// themselves (those stay with the host, spec.md §9).
type Snapshot struct {
	SelectedROMBank uint16
	CartRAMBank     uint8
	EnableCartRAM   bool
	ModeSelect      uint8

	RTCReal, RTCLatched rtc
	RTCCount            int
	LatchPrev           uint8
}

func (c *Cart) SaveState() Snapshot {
	return Snapshot{
		SelectedROMBank: c.selectedROMBank,
		CartRAMBank:     c.cartRAMBank,
		EnableCartRAM:   c.enableCartRAM,
		ModeSelect:      c.modeSelect,
		RTCReal:         c.rtcReal,
		RTCLatched:      c.rtcLatched,
		RTCCount:        c.rtcCount,
		LatchPrev:       c.latchPrev,
	}
}

func (c *Cart) LoadState(s Snapshot) {
	c.selectedROMBank = s.SelectedROMBank
	c.cartRAMBank = s.CartRAMBank
	c.enableCartRAM = s.EnableCartRAM
	c.modeSelect = s.ModeSelect
	c.rtcReal = s.RTCReal
	c.rtcLatched = s.RTCLatched
	c.rtcCount = s.RTCCount
	c.latchPrev = s.LatchPrev
}
