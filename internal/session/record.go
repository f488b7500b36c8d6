package session

import (
	"github.com/harrylevesque/wssgateway/internal/cryptoprim"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// ReadRecord reads one inbound transport message and decrypts it with the
// client nonce. The client nonce is incremented exactly once regardless of
// outcome, matching the record I/O contract in §4.2. A decrypt failure
// returns a *gatewaycore.AuthError{"bad auth"} — callers must treat this as
// fatal to the session (no retry).
func (s *Session) ReadRecord() ([]byte, error) {
	raw, err := s.transport.ReadMessage()
	if err != nil {
		return nil, &gatewaycore.TransportError{Reason: "read record", Cause: err}
	}
	plaintext, decErr := cryptoprim.DecryptCCM(s.key[:], s.clientNonce[:], raw)
	if incErr := cryptoprim.IncNonce(&s.clientNonce); incErr != nil {
		return nil, &gatewaycore.AuthError{Reason: "client nonce overflow"}
	}
	if decErr != nil {
		return nil, &gatewaycore.AuthError{Reason: "bad auth"}
	}
	return plaintext, nil
}

// WriteRecord encrypts plaintext with the server nonce and sends it.
// Outbound sends are expected to be serialized by the caller (C4's
// sendMsg) — Session does not add its own locking, matching the
// single-outbound-in-flight guarantee in §5.
func (s *Session) WriteRecord(plaintext []byte) error {
	ciphertext, err := cryptoprim.EncryptCCM(s.key[:], s.serverNonce[:], plaintext)
	if err != nil {
		return &gatewaycore.TransportError{Reason: "encrypt record", Cause: err}
	}
	if err := s.transport.WriteMessage(ciphertext); err != nil {
		return &gatewaycore.TransportError{Reason: "write record", Cause: err}
	}
	if err := cryptoprim.IncNonce(&s.serverNonce); err != nil {
		return &gatewaycore.AuthError{Reason: "server nonce overflow"}
	}
	return nil
}

// Close tears down the underlying transport with a human-readable reason.
func (s *Session) Close(reason string) error {
	return s.transport.Close(reason)
}
