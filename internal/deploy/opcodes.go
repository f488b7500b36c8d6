package deploy

// Device-visible deploy opcodes.
const (
	OpRequestHash byte = 0x93
	OpBeginUpload byte = 0x94
	OpChunk       byte = 0x95
	OpFinalize    byte = 0x96
	OpReject      byte = 0xFF
)

// ChunkMaxBytes is the largest payload carried by a single 0x95 chunk.
const ChunkMaxBytes = 192

// ProgramMinLen is the smallest accepted program image.
const ProgramMinLen = 128

// programMagic is the required 8-byte prefix of a valid program image.
var programMagic = [8]byte{0x4A, 0x61, 0x63, 0x53, 0x0A, 0x7E, 0x6A, 0x9A}
