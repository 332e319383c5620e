package cpu

import (
	"testing"

	"github.com/corvidae-labs/dmgcore/internal/bus"
	"github.com/corvidae-labs/dmgcore/internal/cart"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
)

// fakeHooks backs a flat ROM/RAM byte slice for CPU tests; every other
// hook is a no-op.
type fakeHooks struct {
	rom []byte
	ram []byte
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
func (h *fakeHooks) BootROMRead(uint16) uint8 { return 0xFF }
func (h *fakeHooks) SerialTx(uint8)           {}
func (h *fakeHooks) SerialRx() (uint8, iohooks.SerialResult) {
	return 0, iohooks.SerialNoConnection
}
func (h *fakeHooks) AudioRead(uint16) uint8       { return 0xFF }
func (h *fakeHooks) AudioWrite(uint16, uint8)     {}
func (h *fakeHooks) DrawLine(uint8, [160]uint8)   {}
func (h *fakeHooks) Error(iohooks.ErrorKind, uint16) {}

func newCPUWithROM(code []byte) *CPU {
	rom := make([]byte, 0x8000)
	copy(rom, code)
	hooks := &fakeHooks{rom: rom, ram: make([]byte, 0x2000)}
	c := cart.New(cart.Header{MBCType: cart.MBC0, ROMBanks: 2}, hooks)
	b := bus.New(c, hooks)
	b.Reset(0x85, true)
	cp := New(b)
	cp.PC = 0x0100
	return cp
}

func TestNopAndPC(t *testing.T) {
	c := newCPUWithROM([]byte{0x00})
	c.PC = 0
	if cycles := c.Step(); cycles != 4 {
		t.Fatalf("NOP cycles got %d want 4", cycles)
	}
	if c.PC != 1 {
		t.Fatalf("PC after NOP got %#04x want 0x0001", c.PC)
	}
}

func TestLDImmediateAndXOR(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x12, 0xAF})
	c.PC = 0
	c.Step() // LD A,0x12
	if c.A != 0x12 {
		t.Fatalf("A after LD got %#02x want 0x12", c.A)
	}
	c.Step() // XOR A
	if c.A != 0 {
		t.Fatalf("A after XOR got %#02x want 0", c.A)
	}
	if c.F&flagZ == 0 {
		t.Fatalf("Z flag not set after XOR A")
	}
	if c.F&0x0F != 0 {
		t.Fatalf("F low nibble not zero: %#02x", c.F)
	}
}

func TestLDAbsoluteRoundTrip(t *testing.T) {
	prog := []byte{0x3E, 0x77, 0xEA, 0x00, 0xC0, 0x3E, 0x00, 0xFA, 0x00, 0xC0}
	c := newCPUWithROM(prog)
	c.PC = 0
	c.Step() // LD A,0x77
	c.Step() // LD (0xC000),A
	if v := c.bus.Read(0xC000); v != 0x77 {
		t.Fatalf("WRAM at C000 got %#02x want 0x77", v)
	}
	c.Step() // LD A,0x00
	c.Step() // LD A,(0xC000)
	if c.A != 0x77 {
		t.Fatalf("A after LD A,(C000) got %#02x want 0x77", c.A)
	}
}

// INC rr / DEC rr must not collide (regression for the 0xC7-vs-0xCF
// bit-mask bug): incrementing then decrementing the same pair must be
// the identity, and the two opcode families must produce opposite
// effects on BC.
func TestIncDecRegisterPairsDoNotCollide(t *testing.T) {
	c := newCPUWithROM([]byte{0x03, 0x03, 0x0B}) // INC BC; INC BC; DEC BC
	c.PC = 0
	c.setBC(0x00FF)
	c.Step() // INC BC -> 0x0100
	if got := c.getBC(); got != 0x0100 {
		t.Fatalf("BC after first INC got %#04x want 0x0100", got)
	}
	c.Step() // INC BC -> 0x0101
	if got := c.getBC(); got != 0x0101 {
		t.Fatalf("BC after second INC got %#04x want 0x0101", got)
	}
	c.Step() // DEC BC -> 0x0100
	if got := c.getBC(); got != 0x0100 {
		t.Fatalf("BC after DEC got %#04x want 0x0100 (INC/DEC rr collided)", got)
	}
}

func TestLDrrImmediateAndAddHL(t *testing.T) {
	// LD BC,0x1234; LD DE,0x0001; ADD HL,BC
	prog := []byte{0x01, 0x34, 0x12, 0x11, 0x01, 0x00, 0x09}
	c := newCPUWithROM(prog)
	c.PC = 0
	c.Step() // LD BC,0x1234
	if got := c.getBC(); got != 0x1234 {
		t.Fatalf("BC got %#04x want 0x1234", got)
	}
	c.Step() // LD DE,0x0001
	c.setHL(0x0000)
	c.Step() // ADD HL,BC
	if got := c.getHL(); got != 0x1234 {
		t.Fatalf("HL after ADD HL,BC got %#04x want 0x1234", got)
	}
}

func TestPushPopRoundTrip(t *testing.T) {
	c := newCPUWithROM(nil)
	c.SP = 0xFFFE
	c.setBC(0xBEEF)
	c.push16(c.getBC())
	c.setBC(0)
	c.setBC(c.pop16())
	if got := c.getBC(); got != 0xBEEF {
		t.Fatalf("BC after PUSH/POP got %#04x want 0xBEEF", got)
	}
	if c.SP != 0xFFFE {
		t.Fatalf("SP after PUSH/POP got %#04x want 0xFFFE", c.SP)
	}
}

func TestAddWithOverflow(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0xFF, 0xC6, 0x01})
	c.PC = 0
	c.Step() // LD A,0xFF
	c.Step() // ADD A,0x01
	if c.A != 0 {
		t.Fatalf("A got %#02x want 0", c.A)
	}
	if c.F&flagZ == 0 || c.F&flagH == 0 || c.F&flagC == 0 || c.F&flagN != 0 {
		t.Fatalf("flags after overflowing ADD got %#02x want ZHC set, N clear", c.F)
	}
}

func TestDecToZeroSetsHalfCarryOnlyWhenBorrowed(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x01, 0x3D}) // LD A,1; DEC A
	c.PC = 0
	c.Step()
	c.Step()
	if c.A != 0 {
		t.Fatalf("A got %#02x want 0", c.A)
	}
	if c.F&flagZ == 0 || c.F&flagN == 0 || c.F&flagH != 0 {
		t.Fatalf("flags after DEC 1 got %#02x want Z,N set H clear", c.F)
	}
}

func TestIncToCarrySetsHalfCarry(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x0F, 0x3C}) // LD A,0x0F; INC A
	c.PC = 0
	c.Step()
	c.Step()
	if c.A != 0x10 {
		t.Fatalf("A got %#02x want 0x10", c.A)
	}
	if c.F&flagZ != 0 || c.F&flagH == 0 || c.F&flagN != 0 {
		t.Fatalf("flags after INC 0x0F got %#02x want H set, Z/N clear", c.F)
	}
}

func TestDAAAfterAdd(t *testing.T) {
	c := newCPUWithROM([]byte{0x3E, 0x0F, 0xC6, 0x01, 0x27}) // LD A,0x0F; ADD A,1; DAA
	c.PC = 0
	c.Step()
	c.Step()
	c.Step()
	if c.A != 0x16 {
		t.Fatalf("A after DAA got %#02x want 0x16", c.A)
	}
	if c.F&flagH != 0 {
		t.Fatalf("H after DAA got set, want clear")
	}
}

func TestCBBitResSet(t *testing.T) {
	// LD A,0x00; CB C7 (SET 0,A); CB 87 (RES 0,A); CB 47 (BIT 0,A)
	prog := []byte{0x3E, 0x00, 0xCB, 0xC7, 0xCB, 0x87, 0xCB, 0x47}
	c := newCPUWithROM(prog)
	c.PC = 0
	c.Step() // LD A,0
	c.Step() // SET 0,A -> A=1
	if c.A != 1 {
		t.Fatalf("A after SET 0,A got %#02x want 1", c.A)
	}
	c.Step() // RES 0,A -> A=0
	if c.A != 0 {
		t.Fatalf("A after RES 0,A got %#02x want 0", c.A)
	}
	c.Step() // BIT 0,A -> Z set
	if c.F&flagZ == 0 {
		t.Fatalf("Z after BIT 0,A(=0) not set")
	}
}

func TestInvalidOpcodeReportsError(t *testing.T) {
	reported := false
	hooks := &fakeHooks{rom: make([]byte, 0x8000), ram: make([]byte, 0x2000)}
	hooks.rom[0] = 0xD3 // undefined opcode
	wrapped := &errorReportingHooks{fakeHooks: hooks, onError: func() { reported = true }}
	cc := cart.New(cart.Header{MBCType: cart.MBC0, ROMBanks: 2}, wrapped)
	b := bus.New(cc, wrapped)
	c := New(b)
	c.PC = 0
	c.Step()
	if !reported {
		t.Fatalf("invalid opcode 0xD3 did not report through Hooks.Error")
	}
}

type errorReportingHooks struct {
	*fakeHooks
	onError func()
}

func (h *errorReportingHooks) Error(kind iohooks.ErrorKind, addr uint16) {
	h.onError()
}
