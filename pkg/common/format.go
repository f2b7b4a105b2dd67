package common

// Trailing magic markers. The first byte is deliberately non-ASCII so the
// marker cannot collide with trailing text in an arbitrary executable, and the
// embedded version digit lets a reader disambiguate the two generations by
// tail inspection alone -- the container carries no leading signature.
var (
	V1MagicBytes = []byte{0x89, 0x43, 0x54, 0x4E, 0x31, 0x0D, 0x0A, 0x1A, 0x0A}
	V2MagicBytes = []byte{0x89, 0x43, 0x54, 0x4E, 0x32, 0x0D, 0x0A, 0x1A, 0x0A}
)

// LengthFieldSize is the width of the little-endian length field that sits
// between the payload (V1) or manifest (V2) and the magic marker.
const LengthFieldSize = 8

// LooseProjectFileName is the sibling file the dispatcher falls back to when
// an executable carries no trailer at all (development builds).
const LooseProjectFileName = "project.json"
