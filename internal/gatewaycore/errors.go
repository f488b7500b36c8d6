package gatewaycore

import "fmt"

// AuthError covers handshake/record-auth failures: malformed selector, CCM
// tag mismatch, or a first record that isn't the all-zero auth challenge.
// These close the connection with no retry and no backend publish.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth failure: %s", e.Reason)
}

// ProtocolError covers malformed-but-recoverable device traffic: short
// frames, unknown opcodes, bad payload shapes. The session stays open; a
// warning event is published to the backend.
type ProtocolError struct {
	Opcode uint16
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error (opcode 0x%02x): %s", e.Opcode, e.Reason)
}

// DeployError covers deploy-engine failures: mismatched ack opcode, an
// explicit device reject, or a hash mismatch surviving the second-try
// check. The session stays open; backoff advances.
type DeployError struct {
	DevicePath string
	Reason     string
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deploy failed for %s: %s", e.DevicePath, e.Reason)
}

// TransportError covers socket-level failures. Teardown is idempotent
// regardless of how many times this fires.
type TransportError struct {
	Reason string
	Cause  error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("transport error: %s", e.Reason)
}

func (e *TransportError) Unwrap() error { return e.Cause }
