package storage

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"io"
)

// ErrInvalidKeyLength matches the teacher's file-encryption key-size check.
var ErrInvalidKeyLength = errors.New("storage: master key must be 32 bytes")

// encryptAESGCM seals plaintext under masterKey, prefixing the nonce, the
// same at-rest file encryption shape as the teacher's user-file encryption.
func encryptAESGCM(masterKey, plaintext []byte) ([]byte, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptAESGCM(masterKey, blob []byte) ([]byte, error) {
	if len(masterKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	ns := gcm.NonceSize()
	if len(blob) < ns {
		return nil, errors.New("storage: ciphertext too short")
	}
	nonce, ct := blob[:ns], blob[ns:]
	return gcm.Open(nil, nonce, ct, nil)
}
