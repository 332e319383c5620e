package bus

import (
	"testing"

	"github.com/corvidae-labs/dmgcore/internal/cart"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
)

type fakeHooks struct {
	rom       []byte
	ram       []byte
	bootROM   []byte
	drawCalls int
}

func (h *fakeHooks) RomRead(addr uint32) uint8 {
	if int(addr) < len(h.rom) {
		return h.rom[addr]
	}
	return 0xFF
}
func (h *fakeHooks) CartRAMRead(addr uint32) uint8 {
	if int(addr) < len(h.ram) {
		return h.ram[addr]
	}
	return 0xFF
}
func (h *fakeHooks) CartRAMWrite(addr uint32, v uint8) {
	if int(addr) < len(h.ram) {
		h.ram[addr] = v
	}
}
func (h *fakeHooks) BootROMRead(addr uint16) uint8 {
	if int(addr) < len(h.bootROM) {
		return h.bootROM[addr]
	}
	return 0xFF
}
func (h *fakeHooks) SerialTx(uint8) {}
func (h *fakeHooks) SerialRx() (uint8, iohooks.SerialResult) {
	return 0, iohooks.SerialNoConnection
}
func (h *fakeHooks) AudioRead(uint16) uint8   { return 0xFF }
func (h *fakeHooks) AudioWrite(uint16, uint8) {}
func (h *fakeHooks) DrawLine(uint8, [160]uint8) {
	h.drawCalls++
}
func (h *fakeHooks) Error(iohooks.ErrorKind, uint16) {}

func newTestBus() (*Bus, *fakeHooks) {
	hooks := &fakeHooks{rom: make([]byte, 0x8000), ram: make([]byte, 0x2000)}
	c := cart.New(cart.Header{MBCType: cart.MBC0, ROMBanks: 2}, hooks)
	b := New(c, hooks)
	b.Reset(0x85, true)
	return b, hooks
}

func TestWRAMReadWriteIsIdentity(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xC123, 0x42)
	if got := b.Read(0xC123); got != 0x42 {
		t.Fatalf("WRAM round-trip got %#02x want 0x42", got)
	}
}

func TestEchoRAMAliasesWRAM(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xC005, 0x99)
	if got := b.Read(0xE005); got != 0x99 {
		t.Fatalf("echo RAM at E005 got %#02x want 0x99 (aliases C005)", got)
	}
}

func TestHRAMReadWriteIsIdentity(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xFF90, 0x7E)
	if got := b.Read(0xFF90); got != 0x7E {
		t.Fatalf("HRAM round-trip got %#02x want 0x7E", got)
	}
}

func TestUnusableRegionReadsFF(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xFEA0, 0x11) // write ignored
	if got := b.Read(0xFEA0); got != 0xFF {
		t.Fatalf("unusable region read got %#02x want 0xFF", got)
	}
}

func TestWriteDIVAlwaysResetsToZero(t *testing.T) {
	b, _ := newTestBus()
	b.Tick(100) // let the timer run before the write
	b.Write(0xFF04, 0x77)
	if got := b.Read(0xFF04); got != 0 {
		t.Fatalf("DIV after write got %#02x want 0", got)
	}
}

func TestIFUpperBitsAlwaysReadAsOne(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xFF0F, 0x00)
	if got := b.Read(0xFF0F); got != 0xE0 {
		t.Fatalf("IF after writing 0 got %#02x want 0xE0", got)
	}
	b.Write(0xFF0F, 0xFF)
	if got := b.Read(0xFF0F); got != 0xFF {
		t.Fatalf("IF after writing 0xFF got %#02x want 0xFF", got)
	}
}

func TestJoypadWiredAND(t *testing.T) {
	b, _ := newTestBus()
	b.SetJoypad(0xFF &^ JoypA) // A pressed, everything else released
	b.Write(0xFF00, 0x10)      // select button line group (bit5=0)
	if got := b.Read(0xFF00); got&0x01 != 0 {
		t.Fatalf("JOYP low bit got set, want A (bit0) pressed/cleared: %#02x", got)
	}
	b.Write(0xFF00, 0x20) // select direction line group (bit4=0): nothing pressed there
	if got := b.Read(0xFF00); got&0x0F != 0x0F {
		t.Fatalf("JOYP direction read got %#02x want 0x0F (nothing pressed)", got)
	}
}

func TestOAMDMACopies160Bytes(t *testing.T) {
	b, _ := newTestBus()
	for i := 0; i < 160; i++ {
		b.Write(0xC000+uint16(i), uint8(0xA0+i))
	}
	b.Write(0xFF46, 0xC0) // source = 0xC000
	b.Tick(160)           // OAM DMA steps one byte per cycle
	for i := 0; i < 160; i++ {
		if got := b.Read(0xFE00 + uint16(i)); got != uint8(0xA0+i) {
			t.Fatalf("OAM[%d] got %#02x want %#02x", i, got, uint8(0xA0+i))
		}
	}
}

func TestBootROMOverlayDisablesOnWrite(t *testing.T) {
	b, hooks := newTestBus()
	hooks.bootROM = []byte{0xAB}
	b.SetBootROMConfigured(true)
	b.Reset(0x84, false)
	if got := b.Read(0x0000); got != 0xAB {
		t.Fatalf("boot ROM overlay read got %#02x want 0xAB", got)
	}
	b.Write(0xFF50, 0x01)
	if got := b.Read(0xFF50); got != 0xFF {
		t.Fatalf("IO[BOOT] after disable got %#02x want 0xFF", got)
	}
	if got := b.Read(0x0000); got == 0xAB {
		t.Fatalf("boot ROM overlay still active after disabling it")
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	b, _ := newTestBus()
	b.Write(0xC000, 0x55)
	b.Write(0xFF47, 0x1B)
	snap := b.SaveState()

	b2, _ := newTestBus()
	b2.LoadState(snap)
	if got := b2.Read(0xC000); got != 0x55 {
		t.Fatalf("WRAM after LoadState got %#02x want 0x55", got)
	}
	if got := b2.Read(0xFF47); got != 0x1B {
		t.Fatalf("BGP after LoadState got %#02x want 0x1B", got)
	}
}
