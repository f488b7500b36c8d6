package session

import (
	"github.com/harrylevesque/wssgateway/internal/cryptoprim"
)

// Version identifies which key-derivation scheme a handshake selector
// requested.
type Version int

const (
	// VersionJacdac is v1: concatenated AES-256 single-block encryptions of
	// client_random||server_random halves.
	VersionJacdac Version = 1
	// VersionDevs is v2: HKDF-SHA256 over client_random||server_random.
	VersionDevs Version = 2
)

// DeriveSessionKey computes the 32-byte session key per §4.2 step 3.
func DeriveSessionKey(version Version, devkey []byte, clientRandom, serverRandom [16]byte) ([32]byte, error) {
	var out [32]byte
	switch version {
	case VersionJacdac:
		first, err := cryptoprim.Block(devkey, concat16(clientRandom[:8], serverRandom[:8]))
		if err != nil {
			return out, err
		}
		second, err := cryptoprim.Block(devkey, concat16(clientRandom[8:], serverRandom[8:]))
		if err != nil {
			return out, err
		}
		copy(out[:16], first[:])
		copy(out[16:], second[:])
		return out, nil
	case VersionDevs:
		info := append(append([]byte{}, clientRandom[:]...), serverRandom[:]...)
		derived, err := cryptoprim.HKDFSHA256(devkey, info, 32)
		if err != nil {
			return out, err
		}
		copy(out[:], derived)
		return out, nil
	default:
		return out, ErrBadSelector
	}
}

func concat16(a, b []byte) []byte {
	out := make([]byte, 16)
	copy(out[:8], a)
	copy(out[8:], b)
	return out
}
