package deploy

import "fmt"

// ProgramTooShortError indicates a program image smaller than ProgramMinLen.
type ProgramTooShortError struct {
	Len int
}

func (e *ProgramTooShortError) Error() string {
	return fmt.Sprintf("program too short: %d bytes, want at least %d", e.Len, ProgramMinLen)
}

// BadMagicError indicates a program image whose first 8 bytes don't match
// the required magic.
type BadMagicError struct {
	Got [8]byte
}

func (e *BadMagicError) Error() string {
	return fmt.Sprintf("program has bad magic: got % x, want % x", e.Got, programMagic)
}

// HashMismatchError indicates the device reported an installed hash that
// disagrees with the expected deploy hash on the second-try re-verification,
// i.e. after a completed upload the device still doesn't report the hash
// that was just written.
type HashMismatchError struct {
	DevicePath string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("deploy %s: device hash disagrees after finalize", e.DevicePath)
}

// ProtocolMismatchError indicates the device sent a deploy opcode that
// doesn't match the engine's current expected state.
type ProtocolMismatchError struct {
	DevicePath string
	Got        byte
	Want       byte
}

func (e *ProtocolMismatchError) Error() string {
	return fmt.Sprintf("deploy %s: got opcode 0x%02x, engine expected 0x%02x", e.DevicePath, e.Got, e.Want)
}

// RejectedError indicates the device sent an explicit 0xFF reject.
type RejectedError struct {
	DevicePath string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("deploy %s: device rejected deploy", e.DevicePath)
}
