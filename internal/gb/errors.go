package gb

// InitError is the result of Init (spec.md §7): NO_ERROR on success, or
// one of the two fatal header conditions.
type InitError uint8

const (
	NoError InitError = iota
	CartridgeUnsupported
	InvalidChecksum
)

func (e InitError) String() string {
	switch e {
	case NoError:
		return "no error"
	case CartridgeUnsupported:
		return "cartridge unsupported"
	case InvalidChecksum:
		return "invalid checksum"
	default:
		return "unknown init error"
	}
}
