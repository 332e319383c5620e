package romsource

import "github.com/corvidae-labs/dmgcore/internal/iohooks"

// FileHooks is the natural host-side implementation of iohooks.Hooks for
// a desktop or headless runner: ROM and boot ROM are held as flat byte
// slices loaded once at startup, cartridge RAM is a byte slice the host
// persists itself, and every other callback forwards to optional
// function fields so a caller only has to wire what it actually needs.
type FileHooks struct {
	ROM     []byte
	RAM     []byte
	BootROM []byte

	OnSerialTx   func(value uint8)
	OnSerialRx   func() (uint8, iohooks.SerialResult)
	OnAudioRead  func(addr uint16) uint8
	OnAudioWrite func(addr uint16, value uint8)
	OnDrawLine   func(line uint8, pixels [160]uint8)
	OnError      func(kind iohooks.ErrorKind, addr uint16)
}

func (h *FileHooks) RomRead(addr uint32) uint8 {
	if int(addr) < len(h.ROM) {
		return h.ROM[addr]
	}
	return 0xFF
}

func (h *FileHooks) CartRAMRead(addr uint32) uint8 {
	if int(addr) < len(h.RAM) {
		return h.RAM[addr]
	}
	return 0xFF
}

func (h *FileHooks) CartRAMWrite(addr uint32, value uint8) {
	if int(addr) < len(h.RAM) {
		h.RAM[addr] = value
	}
}

func (h *FileHooks) BootROMRead(addr uint16) uint8 {
	if int(addr) < len(h.BootROM) {
		return h.BootROM[addr]
	}
	return 0xFF
}

func (h *FileHooks) SerialTx(value uint8) {
	if h.OnSerialTx != nil {
		h.OnSerialTx(value)
	}
}

func (h *FileHooks) SerialRx() (uint8, iohooks.SerialResult) {
	if h.OnSerialRx != nil {
		return h.OnSerialRx()
	}
	return 0, iohooks.SerialNoConnection
}

func (h *FileHooks) AudioRead(addr uint16) uint8 {
	if h.OnAudioRead != nil {
		return h.OnAudioRead(addr)
	}
	return 0xFF
}

func (h *FileHooks) AudioWrite(addr uint16, value uint8) {
	if h.OnAudioWrite != nil {
		h.OnAudioWrite(addr, value)
	}
}

func (h *FileHooks) DrawLine(line uint8, pixels [160]uint8) {
	if h.OnDrawLine != nil {
		h.OnDrawLine(line, pixels)
	}
}

func (h *FileHooks) Error(kind iohooks.ErrorKind, addr uint16) {
	if h.OnError != nil {
		h.OnError(kind, addr)
		return
	}
	panic(kind.String())
}
