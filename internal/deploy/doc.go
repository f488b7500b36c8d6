// Package deploy implements the device program-deployment state machine
// (opcodes 0x93-0x96, 0xFF) shared by every connected device session: hash
// verification, chunked upload, finalize, and a retry cooldown that grows
// with each consecutive failure up to a fixed cap.
package deploy
