package gb

import (
	"github.com/corvidae-labs/dmgcore/internal/bus"
	"github.com/corvidae-labs/dmgcore/internal/iohooks"
	"github.com/corvidae-labs/dmgcore/internal/ppu"
)

// Hooks is the host I/O boundary (spec.md §6), re-exported here so
// callers of package gb never need to import internal/iohooks directly.
type Hooks = iohooks.Hooks

// SerialResult, ErrorKind, and their constants mirror iohooks for the
// same reason.
type SerialResult = iohooks.SerialResult

const (
	SerialSuccess      = iohooks.SerialSuccess
	SerialNoConnection = iohooks.SerialNoConnection
)

type ErrorKind = iohooks.ErrorKind

const (
	ErrorInvalidOpcode = iohooks.ErrorInvalidOpcode
	ErrorInvalidRead   = iohooks.ErrorInvalidRead
	ErrorInvalidWrite  = iohooks.ErrorInvalidWrite
)

// DrawLineFunc is the host frame-sink signature passed to SetLCD.
type DrawLineFunc = ppu.DrawLineFunc

// Joypad button bitmasks (spec.md §6): a cleared bit means the button
// is pressed.
const (
	JoypadA      = bus.JoypA
	JoypadB      = bus.JoypB
	JoypadSelect = bus.JoypSelect
	JoypadStart  = bus.JoypStart
	JoypadRight  = bus.JoypRight
	JoypadLeft   = bus.JoypLeft
	JoypadUp     = bus.JoypUp
	JoypadDown   = bus.JoypDown
)
