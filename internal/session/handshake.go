package session

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"regexp"

	"github.com/harrylevesque/wssgateway/internal/cryptoprim"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// ServerHelloMagic is the little-endian magic prefixing the cleartext
// server hello record.
const ServerHelloMagic uint32 = 0xCEE428CA

var selectorRe = regexp.MustCompile(`^(devs|jacdac)-key-([0-9a-fA-F]{32})$`)

// ErrBadSelector is returned by DeriveSessionKey for a Version that no
// selector names. A selector string that doesn't match the
// `(devs|jacdac)-key-<32-hex>` shape is rejected by ParseSelector with a
// *gatewaycore.AuthError instead.
var ErrBadSelector = errors.New("session: malformed protocol selector")

// ParseSelector parses a protocol selector string into its version and
// 16-byte client_random. Any other format fails with "no proto-key" /
// "wrong proto-key size" per §4.2 step 1.
func ParseSelector(selector string) (Version, [16]byte, error) {
	var clientRandom [16]byte
	m := selectorRe.FindStringSubmatch(selector)
	if m == nil {
		return 0, clientRandom, &gatewaycore.AuthError{Reason: "no proto-key"}
	}
	raw, err := hex.DecodeString(m[2])
	if err != nil || len(raw) != 16 {
		return 0, clientRandom, &gatewaycore.AuthError{Reason: "wrong proto-key size"}
	}
	copy(clientRandom[:], raw)
	if m[1] == "jacdac" {
		return VersionJacdac, clientRandom, nil
	}
	return VersionDevs, clientRandom, nil
}

// EncodeServerHello builds the 24-byte cleartext server hello: magic (LE),
// version (LE), server_random.
func EncodeServerHello(version Version, serverRandom [16]byte) []byte {
	out := make([]byte, 24)
	binary.LittleEndian.PutUint32(out[0:4], ServerHelloMagic)
	binary.LittleEndian.PutUint32(out[4:8], uint32(version))
	copy(out[8:24], serverRandom[:])
	return out
}

// Session is an authenticated record-layer session: a session key plus two
// independent, monotonic per-direction nonce counters over a Transport.
type Session struct {
	transport     Transport
	key           [32]byte
	clientNonce   [13]byte
	serverNonce   [13]byte
	authenticated bool
}

// Accept runs the server-initiated responder handshake described in §4.2:
// reads the selector, derives the session key, sends the cleartext hello
// and the encrypted auth record, then awaits and validates the device's
// first authenticated record (at least 32 bytes, the first 16 of them
// zero; the rest are ignored). Returns an established,
// Authenticated Session on success.
func Accept(transport Transport, devkey []byte) (*Session, error) {
	selectorMsg, err := transport.ReadMessage()
	if err != nil {
		return nil, &gatewaycore.TransportError{Reason: "read selector", Cause: err}
	}
	version, clientRandom, err := ParseSelector(string(selectorMsg))
	if err != nil {
		return nil, err
	}

	var serverRandom [16]byte
	if _, err := rand.Read(serverRandom[:]); err != nil {
		return nil, &gatewaycore.TransportError{Reason: "generate server_random", Cause: err}
	}

	key, err := DeriveSessionKey(version, devkey, clientRandom, serverRandom)
	if err != nil {
		return nil, &gatewaycore.AuthError{Reason: "key derivation failed"}
	}

	s := &Session{
		transport:   transport,
		key:         key,
		clientNonce: cryptoprim.NewNonce(cryptoprim.ClientNonceLeadByte),
		serverNonce: cryptoprim.NewNonce(cryptoprim.ServerNonceLeadByte),
	}

	if err := transport.WriteMessage(EncodeServerHello(version, serverRandom)); err != nil {
		return nil, &gatewaycore.TransportError{Reason: "write server hello", Cause: err}
	}

	authRecord, err := cryptoprim.EncryptCCM(s.key[:], s.serverNonce[:], make([]byte, 32))
	if err != nil {
		return nil, &gatewaycore.TransportError{Reason: "encrypt auth record", Cause: err}
	}
	if err := transport.WriteMessage(authRecord); err != nil {
		return nil, &gatewaycore.TransportError{Reason: "write auth record", Cause: err}
	}
	if err := cryptoprim.IncNonce(&s.serverNonce); err != nil {
		return nil, &gatewaycore.AuthError{Reason: "server nonce overflow"}
	}

	firstRaw, err := transport.ReadMessage()
	if err != nil {
		return nil, &gatewaycore.TransportError{Reason: "read first record", Cause: err}
	}
	plaintext, decErr := cryptoprim.DecryptCCM(s.key[:], s.clientNonce[:], firstRaw)
	// The client nonce increments exactly once per record regardless of
	// outcome (§4.2 record I/O contract).
	if incErr := cryptoprim.IncNonce(&s.clientNonce); incErr != nil {
		return nil, &gatewaycore.AuthError{Reason: "client nonce overflow"}
	}
	if decErr != nil {
		return nil, &gatewaycore.AuthError{Reason: "bad auth"}
	}
	if len(plaintext) < 32 || !bytes.Equal(plaintext[:16], make([]byte, 16)) {
		return nil, &gatewaycore.AuthError{Reason: "first record not zeros"}
	}

	s.authenticated = true
	return s, nil
}

// Authenticated reports whether the handshake completed successfully.
func (s *Session) Authenticated() bool { return s.authenticated }
