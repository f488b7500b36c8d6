package deploy

import "bytes"

// Validate checks a program image for the minimum size and required magic
// prefix before it is ever sent to a device, the same fail-fast shape as the
// pack's firmware-image parsers that reject malformed images before any
// device I/O begins.
func Validate(program []byte) error {
	if len(program) < ProgramMinLen {
		return &ProgramTooShortError{Len: len(program)}
	}
	var got [8]byte
	copy(got[:], program[:8])
	if !bytes.Equal(got[:], programMagic[:]) {
		return &BadMagicError{Got: got}
	}
	return nil
}
