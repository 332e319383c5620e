// Package cart implements the cartridge header parser, the MBC0/1/2/3/5
// bank-switching model, and the MBC3 real-time clock (spec.md §3, §4.2,
// §4.7). Cartridge ROM and RAM storage is never owned here: every byte
// is fetched through the host's iohooks.Hooks, and Cart only tracks the
// bank-select registers that translate a CPU address into the absolute
// offset passed to those hooks.
package cart

// MBC identifies which bank-switching scheme a cartridge uses.
type MBC int8

const (
	MBC0 MBC = 0
	MBC1 MBC = 1
	MBC2 MBC = 2
	MBC3 MBC = 3
	MBC5 MBC = 5
	// MBCUnsupported marks a cartridge type this core cannot run
	// (spec.md Non-goals: MBC6/7, MMM01, HuC1/3, Camera, TAMA5).
	MBCUnsupported MBC = -1
)

// mbcTable maps the cartridge-type byte at 0x0147 to an MBC id.
var mbcTable = [32]MBC{
	0x00: MBC0,
	0x01: MBC1, 0x02: MBC1, 0x03: MBC1,
	0x04: MBCUnsupported,
	0x05: MBC2, 0x06: MBC2,
	0x07: MBCUnsupported,
	0x08: MBC0, 0x09: MBC0,
	0x0A: MBCUnsupported,
	0x0B: MBCUnsupported, 0x0C: MBCUnsupported, 0x0D: MBCUnsupported, // MMM01
	0x0E: MBCUnsupported,
	0x0F: MBC3, 0x10: MBC3, 0x11: MBC3, 0x12: MBC3, 0x13: MBC3,
	0x14: MBCUnsupported, 0x15: MBCUnsupported, 0x16: MBCUnsupported, // MBC6/7 family
	0x17: MBCUnsupported, 0x18: MBCUnsupported,
	0x19: MBC5, 0x1A: MBC5, 0x1B: MBC5, 0x1C: MBC5, 0x1D: MBC5, 0x1E: MBC5,
	0x1F: MBCUnsupported, // Pocket Camera
}

// romBankCountTable maps the ROM-size code at 0x0148 to a bank count, a
// power of two from 2 through 512 (spec.md §4.7).
var romBankCountTable = [9]int{2, 4, 8, 16, 32, 64, 128, 256, 512}

// ramBankCountTable maps the RAM-size code at 0x0149 to a bank count
// (each bank 8 KiB, except code 1's legacy partial bank), per spec.md §4.7.
var ramBankCountTable = [6]int{0, 1, 1, 4, 16, 8}

// Header is the decoded subset of the cartridge header this core needs.
type Header struct {
	Title          string
	MBCType        MBC
	ROMBanks       int
	RAMBanks       int
	HasRAM         bool
	IsMBC3Oversize bool
}

// ChecksumOK recomputes the header checksum at 0x014D the way the boot
// ROM does (spec.md §4.7): x = x - rom[i] - 1 for i in [0x0134, 0x014C].
func ChecksumOK(rom []byte) bool {
	if len(rom) <= 0x014D {
		return false
	}
	var x uint8
	for i := 0x0134; i <= 0x014C; i++ {
		x = x - rom[i] - 1
	}
	return x == rom[0x014D]
}

// ColourHash sums the bytes at 0x0134-0x0143, matching the core-exposed
// colour_hash operation in spec.md §6.
func ColourHash(rom []byte) uint8 {
	var sum uint8
	for i := 0x0134; i <= 0x0143 && i < len(rom); i++ {
		sum += rom[i]
	}
	return sum
}

// ParseHeader decodes Header from a ROM image's first 0x150 bytes. The
// caller is expected to have already validated ChecksumOK.
func ParseHeader(rom []byte) Header {
	var h Header
	if len(rom) > 0x0144 {
		title := rom[0x0134:0x0144]
		end := len(title)
		for i, b := range title {
			if b == 0 {
				end = i
				break
			}
		}
		h.Title = string(title[:end])
	}

	mbcCode := byte(0)
	if len(rom) > 0x0147 {
		mbcCode = rom[0x0147]
	}
	if int(mbcCode) < len(mbcTable) {
		h.MBCType = mbcTable[mbcCode]
	} else {
		h.MBCType = MBCUnsupported
	}

	romCode := byte(0)
	if len(rom) > 0x0148 {
		romCode = rom[0x0148]
	}
	if int(romCode) < len(romBankCountTable) {
		h.ROMBanks = romBankCountTable[romCode]
	} else {
		h.ROMBanks = 2
	}

	ramCode := byte(0)
	if len(rom) > 0x0149 {
		ramCode = rom[0x0149]
	}
	if int(ramCode) < len(ramBankCountTable) {
		h.RAMBanks = ramBankCountTable[ramCode]
	}
	if h.MBCType == MBC2 {
		// MBC2 carries its own 512x4-bit RAM, independent of 0x0149.
		h.RAMBanks = 1
	}
	h.HasRAM = h.RAMBanks > 0

	h.IsMBC3Oversize = h.ROMBanks > 128 || h.RAMBanks > 4
	return h
}
