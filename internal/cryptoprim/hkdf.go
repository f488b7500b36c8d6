package cryptoprim

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDFSHA256 derives L bytes from ikm with an empty salt and the given info,
// matching hkdf_sha256(ikm, salt=empty, info, L) from the handshake spec.
func HKDFSHA256(ikm, info []byte, l int) ([]byte, error) {
	r := hkdf.New(sha256.New, ikm, nil, info)
	out := make([]byte, l)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
