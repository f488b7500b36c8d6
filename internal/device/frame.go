package device

import (
	"encoding/binary"

	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// Frame is a parsed inbound device frame: either a compressed command frame
// (opcode-tagged) or a raw jacdac wire frame to be forwarded verbatim.
type Frame struct {
	Compressed bool
	Opcode     uint16
	Payload    []byte
	WireFrame  []byte
}

// ParseFrame distinguishes the two inbound shapes per the frame-dispatch
// rule in §4.4: msg[2] == 0 is a compressed command frame (opcode u16-LE at
// offset 0, payload at offset 4); otherwise it is a jacdac wire frame of
// length msg[2]+12.
func ParseFrame(msg []byte) (Frame, error) {
	if len(msg) < 4 {
		return Frame{}, &gatewaycore.ProtocolError{Reason: "frame too short"}
	}
	if msg[2] == 0 {
		return Frame{
			Compressed: true,
			Opcode:     binary.LittleEndian.Uint16(msg[0:2]),
			Payload:    msg[4:],
		}, nil
	}
	flen := int(msg[2]) + 12
	if flen > len(msg) {
		return Frame{}, &gatewaycore.ProtocolError{Reason: "frame too short"}
	}
	return Frame{WireFrame: msg[:flen]}, nil
}

// EncodeCompressedFrame builds the outbound mirror of a compressed command
// frame: opcode u16-LE, a zero marker byte, a reserved byte, then payload.
func EncodeCompressedFrame(opcode uint16, payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(out[0:2], opcode)
	copy(out[4:], payload)
	return out
}
