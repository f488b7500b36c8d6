package cryptoprim

import "errors"

// ErrNonceOverflow is returned when incrementing a nonce would carry into
// its leading direction byte (index 0, fixed at 1 for client-to-server and
// 2 for server-to-client). A session that hits this must be closed rather
// than reuse or corrupt the direction marker — see design note on nonce
// overflow.
var ErrNonceOverflow = errors.New("cryptoprim: nonce counter overflow")

// ClientNonceLeadByte and ServerNonceLeadByte mark the two directions of a
// session's nonce space so client→server and server→client records can
// never collide even if their counters happen to coincide.
const (
	ClientNonceLeadByte = 1
	ServerNonceLeadByte = 2
)

// NewNonce returns the initial 13-byte nonce for a direction: all-zero with
// the given leading byte.
func NewNonce(leadByte byte) [NonceSize]byte {
	var n [NonceSize]byte
	n[0] = leadByte
	return n
}

// IncNonce increments the low 12 bytes of n (indices 1..12) as a big-endian
// counter. The leading direction byte at index 0 is never modified; if the
// increment would carry into it, IncNonce returns ErrNonceOverflow and
// leaves n unchanged.
func IncNonce(n *[NonceSize]byte) error {
	tmp := *n
	for i := NonceSize - 1; i >= 1; i-- {
		tmp[i]++
		if tmp[i] != 0 {
			*n = tmp
			return nil
		}
	}
	return ErrNonceOverflow
}
