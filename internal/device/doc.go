// Package device implements one connected device's session: raw frame
// dispatch, the inbound device-opcode table, the outbound backend-command
// table, periodic stats flushing, and the deploy engine wiring.
package device
