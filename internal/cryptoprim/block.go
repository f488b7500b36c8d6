// Package cryptoprim implements the low-level cryptographic primitives used
// by the session handshake and record layer: single-block AES-256, AES-256
// CCM with a 4-byte tag, HKDF-SHA256 key derivation, and the 13-byte
// direction nonce counter.
package cryptoprim

import (
	"crypto/aes"
	"errors"
)

// ErrInvalidKeySize is returned when a key is not exactly 32 bytes.
var ErrInvalidKeySize = errors.New("cryptoprim: key must be 32 bytes")

// ErrInvalidBlockSize is returned when a block is not exactly 16 bytes.
var ErrInvalidBlockSize = errors.New("cryptoprim: block must be 16 bytes")

// Block encrypts a single 16-byte block with AES-256. Used only during v1
// (jacdac) key derivation; the CCM implementation below builds its own
// keystream directly from the block cipher.
func Block(key []byte, block []byte) ([16]byte, error) {
	var out [16]byte
	if len(key) != 32 {
		return out, ErrInvalidKeySize
	}
	if len(block) != 16 {
		return out, ErrInvalidBlockSize
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return out, err
	}
	c.Encrypt(out[:], block)
	return out, nil
}
