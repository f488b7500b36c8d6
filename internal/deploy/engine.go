package deploy

import (
	"crypto/sha256"
	"encoding/binary"
)

// Sender delivers a deploy opcode frame to the device. Implementations wrap
// a session record writer.
type Sender interface {
	SendDeployFrame(opcode byte, payload []byte) error
}

// SyncScript is the idle-state entry point: load and validate a program,
// and if its hash differs from the device's last confirmed install, kick
// off (or re-kick) verification via ensureDeployed. Called with a new
// (id, version) pair whenever the backend's desired script changes.
func SyncScript(s *State, program []byte, id, version string, sender Sender, backoff *Backoff) error {
	if err := Validate(program); err != nil {
		return err
	}
	s.program = program
	s.deployHash = sha256.Sum256(program)
	s.deployID = id
	s.deployVersion = version

	if s.deployedHash != nil && *s.deployedHash == s.deployHash {
		return nil
	}
	return ensureDeployed(s, sender, backoff)
}

// ensureDeployed asks the device to report its installed hash, unless the
// device path is still in backoff cooldown from a recent failure.
func ensureDeployed(s *State, sender Sender, backoff *Backoff) error {
	if backoff.InBackoff(s.DevicePath) {
		return nil
	}
	s.deployCmd = OpRequestHash
	return sender.SendDeployFrame(OpRequestHash, nil)
}

// HandleDeviceRecord feeds one device-originated deploy record (opcode plus
// payload) through the state machine in §4.3.
func HandleDeviceRecord(s *State, opcode byte, payload []byte, sender Sender, backoff *Backoff) error {
	if opcode == OpReject {
		fail(s, backoff)
		return &RejectedError{DevicePath: s.DevicePath}
	}

	switch opcode {
	case OpRequestHash:
		return handleHashReport(s, payload, sender, backoff)
	case OpBeginUpload, OpChunk:
		return handleUploadAck(s, opcode, sender, backoff)
	case OpFinalize:
		return handleFinalizeAck(s, opcode, sender, backoff)
	default:
		fail(s, backoff)
		return &ProtocolMismatchError{DevicePath: s.DevicePath, Got: opcode, Want: s.deployCmd}
	}
}

func handleHashReport(s *State, deviceHash []byte, sender Sender, backoff *Backoff) error {
	if s.deployCmd != OpRequestHash {
		fail(s, backoff)
		return &ProtocolMismatchError{DevicePath: s.DevicePath, Got: OpRequestHash, Want: s.deployCmd}
	}
	if len(deviceHash) == sha256.Size && [sha256.Size]byte(deviceHash[:sha256.Size]) == s.deployHash {
		backoff.Reset(s.DevicePath)
		confirmed := s.deployHash
		s.deployedHash = &confirmed
		s.deployCmd = 0
		s.hashConfirmed = false
		return nil
	}

	if s.hashConfirmed {
		fail(s, backoff)
		return &HashMismatchError{DevicePath: s.DevicePath}
	}

	s.deployPtr = 0
	s.deployCmd = OpBeginUpload
	lengthPayload := make([]byte, 4)
	binary.LittleEndian.PutUint32(lengthPayload, uint32(len(s.program)))
	return sender.SendDeployFrame(OpBeginUpload, lengthPayload)
}

func handleUploadAck(s *State, opcode byte, sender Sender, backoff *Backoff) error {
	if s.deployCmd != OpBeginUpload && s.deployCmd != OpChunk {
		fail(s, backoff)
		return &ProtocolMismatchError{DevicePath: s.DevicePath, Got: opcode, Want: s.deployCmd}
	}
	remaining := len(s.program) - s.deployPtr
	if remaining > 0 {
		n := min(remaining, ChunkMaxBytes)
		chunk := s.program[s.deployPtr : s.deployPtr+n]
		s.deployPtr += n
		s.deployCmd = OpChunk
		return sender.SendDeployFrame(OpChunk, chunk)
	}
	s.deployCmd = OpFinalize
	return sender.SendDeployFrame(OpFinalize, nil)
}

func handleFinalizeAck(s *State, opcode byte, sender Sender, backoff *Backoff) error {
	if s.deployCmd != OpFinalize {
		fail(s, backoff)
		return &ProtocolMismatchError{DevicePath: s.DevicePath, Got: opcode, Want: s.deployCmd}
	}
	confirmed := s.deployHash
	s.deployedHash = &confirmed
	s.deployCmd = 0
	// The finalize ack re-enters ensureDeployed as an explicit second-try
	// re-verification: a further hash mismatch at this point is a real
	// failure, not a fresh first attempt, which is why hashConfirmed is
	// recorded as a field rather than inferred from deployedHash identity.
	s.hashConfirmed = true
	return ensureDeployed(s, sender, backoff)
}

func fail(s *State, backoff *Backoff) {
	backoff.RecordFailure(s.DevicePath)
	s.deployCmd = 0
	s.hashConfirmed = false
}
