package deploy

import "crypto/sha256"

// State is the per-device deploy state tracked across an ensureDeployed /
// device-record cycle. deployCmd names the currently awaited device
// response, matching the state table's use of the opcode value itself as
// the state name (0 means idle).
type State struct {
	DevicePath string

	program    []byte
	deployHash [sha256.Size]byte

	deployedHash  *[sha256.Size]byte
	hashConfirmed bool
	deployPtr     int
	deployID      string
	deployVersion string
	deployCmd     byte
}

// NewState creates idle deploy state for a device path.
func NewState(devicePath string) *State {
	return &State{DevicePath: devicePath}
}

// Idle reports whether the engine has no deploy in flight for this device.
func (s *State) Idle() bool { return s.deployCmd == 0 }

// DeployedHash returns the hash most recently confirmed installed on the
// device, or nil if none has ever been confirmed.
func (s *State) DeployedHash() *[sha256.Size]byte { return s.deployedHash }
