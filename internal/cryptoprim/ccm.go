package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"
)

// CCM parameters fixed by the protocol: 13-byte nonce, 4-byte tag, 2-byte
// length field (L = 15 - nonceSize = 2).
const (
	NonceSize     = 13
	TagSize       = 4
	lenSize       = 15 - NonceSize
	aesBlockBytes = 16
)

// ErrAuthFail is returned for any CCM decrypt failure: short payload, a
// corrupted tag, or a corrupted ciphertext. Callers outside the session
// layer must not be able to distinguish these cases by error value, kind,
// or timing.
var ErrAuthFail = errors.New("cryptoprim: ccm authentication failed")

// ccmCipher wraps an AES-256 block cipher configured for this protocol's
// fixed CCM parameters (L=2, N=13, tag=4). The construction follows
// NIST SP 800-38C / RFC 3610: a CBC-MAC tag over length-prefixed
// plaintext, masked by S_0, with the body encrypted via CTR mode starting
// at counter 1.
type ccmCipher struct {
	block cipher.Block
}

func newCCMCipher(key []byte) (*ccmCipher, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeySize
	}
	b, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &ccmCipher{block: b}, nil
}

// EncryptCCM seals plaintext under key/nonce, returning ciphertext || tag
// (4-byte tag).
func EncryptCCM(key, nonce, plaintext []byte) ([]byte, error) {
	c, err := newCCMCipher(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != NonceSize {
		return nil, errors.New("cryptoprim: nonce must be 13 bytes")
	}

	tag := c.computeTag(nonce, plaintext)
	s0 := c.generateS0(nonce)

	out := make([]byte, len(plaintext)+TagSize)
	c.ctrCrypt(nonce, out[:len(plaintext)], plaintext)
	for i := 0; i < TagSize; i++ {
		out[len(plaintext)+i] = tag[i] ^ s0[i]
	}
	return out, nil
}

// DecryptCCM opens payload (ciphertext || 4-byte tag) under key/nonce. Any
// failure — short payload, bad tag, corrupted ciphertext — returns
// ErrAuthFail and nothing else, per the auth-failure-opacity invariant.
func DecryptCCM(key, nonce, payload []byte) ([]byte, error) {
	if len(payload) < TagSize {
		return nil, ErrAuthFail
	}
	c, err := newCCMCipher(key)
	if err != nil {
		return nil, ErrAuthFail
	}
	if len(nonce) != NonceSize {
		return nil, ErrAuthFail
	}

	ctLen := len(payload) - TagSize
	ciphertext := payload[:ctLen]
	encTag := payload[ctLen:]

	s0 := c.generateS0(nonce)
	receivedTag := make([]byte, TagSize)
	for i := 0; i < TagSize; i++ {
		receivedTag[i] = encTag[i] ^ s0[i]
	}

	plaintext := make([]byte, ctLen)
	c.ctrCrypt(nonce, plaintext, ciphertext)

	expectedTag := c.computeTag(nonce, plaintext)
	if subtle.ConstantTimeCompare(receivedTag, expectedTag[:TagSize]) != 1 {
		return nil, ErrAuthFail
	}
	return plaintext, nil
}

// computeTag runs CBC-MAC over B_0 (flags | nonce | length) followed by the
// plaintext, with no associated data (this protocol never authenticates
// AAD separately from the plaintext record).
func (c *ccmCipher) computeTag(nonce, plaintext []byte) []byte {
	var b0 [aesBlockBytes]byte
	flags := byte((TagSize-2)/2) << 3 // M' in bits 3-5, Adata bit unset
	flags |= byte(lenSize - 1)        // L' in bits 0-2
	b0[0] = flags
	copy(b0[1:1+NonceSize], nonce)
	putLength(b0[1+NonceSize:], len(plaintext))

	mac := make([]byte, aesBlockBytes)
	c.block.Encrypt(mac, b0[:])

	remaining := plaintext
	for len(remaining) > 0 {
		var block [aesBlockBytes]byte
		n := copy(block[:], remaining)
		remaining = remaining[n:]
		for i := 0; i < aesBlockBytes; i++ {
			mac[i] ^= block[i]
		}
		c.block.Encrypt(mac, mac)
	}
	return mac[:TagSize]
}

// generateS0 computes S_0 = E(K, A_0), the keystream block used to mask the
// tag, with counter = 0.
func (c *ccmCipher) generateS0(nonce []byte) []byte {
	var a0 [aesBlockBytes]byte
	a0[0] = byte(lenSize - 1)
	copy(a0[1:1+NonceSize], nonce)
	s0 := make([]byte, aesBlockBytes)
	c.block.Encrypt(s0, a0[:])
	return s0
}

// ctrCrypt XORs src with the CTR keystream starting at counter 1, writing
// to dst. Used symmetrically for encryption and decryption.
func (c *ccmCipher) ctrCrypt(nonce []byte, dst, src []byte) {
	var ctr [aesBlockBytes]byte
	ctr[0] = byte(lenSize - 1)
	copy(ctr[1:1+NonceSize], nonce)
	ctr[aesBlockBytes-1] = 1

	var keystream [aesBlockBytes]byte
	for i := 0; i < len(src); i += aesBlockBytes {
		c.block.Encrypt(keystream[:], ctr[:])
		end := i + aesBlockBytes
		if end > len(src) {
			end = len(src)
		}
		for j := i; j < end; j++ {
			dst[j] = src[j] ^ keystream[j-i]
		}
		incrementCounter(ctr[aesBlockBytes-lenSize:])
	}
}

func putLength(dst []byte, length int) {
	for i := lenSize - 1; i >= 0; i-- {
		dst[i] = byte(length)
		length >>= 8
	}
}

func incrementCounter(ctr []byte) {
	for i := len(ctr) - 1; i >= 0; i-- {
		ctr[i]++
		if ctr[i] != 0 {
			break
		}
	}
}
