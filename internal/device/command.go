package device

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
)

// Command is the tagged sum type the backend publishes toward a device:
// method/frameTo/setfwd/ping/update.
type Command struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type methodCommand struct {
	RID    uint32    `json:"rid"`
	Method string    `json:"method"`
	Args   []float64 `json:"args"`
}

type frameToCommand struct {
	DataB64 string `json:"data"`
}

type setfwdCommand struct {
	Enabled bool `json:"enabled"`
}

type pingCommand struct {
	PayloadB64 string `json:"payload"`
}

type updateCommand struct {
	ScriptID      string `json:"scriptId"`
	ScriptVersion string `json:"scriptVersion"`
	ProgramHex    string `json:"programHex"`
}

// NewUpdateCommand builds the outbound "update" command a caller outside
// this package (the operator API forcing a manual syncScript) publishes
// toward a device, without needing to know the payload's unexported shape.
func NewUpdateCommand(scriptID, scriptVersion, programHex string) Command {
	payload, _ := json.Marshal(updateCommand{
		ScriptID:      scriptID,
		ScriptVersion: scriptVersion,
		ProgramHex:    programHex,
	})
	return Command{Type: "update", Payload: payload}
}

// encodeMethodFrame builds the 0x83 method-invocation frame: rid (u32-LE),
// the method name, a zero separator byte, then the numeric argument array
// packed as little-endian f64s.
func encodeMethodFrame(cmd methodCommand) []byte {
	payload := make([]byte, 4, 4+len(cmd.Method)+1+len(cmd.Args)*8)
	binary.LittleEndian.PutUint32(payload[0:4], cmd.RID)
	payload = append(payload, []byte(cmd.Method)...)
	payload = append(payload, 0)
	for _, v := range cmd.Args {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		payload = append(payload, buf[:]...)
	}
	return EncodeCompressedFrame(0x83, payload)
}

func decodeFrameToBytes(cmd frameToCommand) ([]byte, error) {
	return base64.StdEncoding.DecodeString(cmd.DataB64)
}

func encodeSetfwdFrame(cmd setfwdCommand) []byte {
	flag := byte(0)
	if cmd.Enabled {
		flag = 1
	}
	return []byte{0x90, flag}
}

func decodePingFrame(cmd pingCommand) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(cmd.PayloadB64)
	if err != nil {
		return nil, err
	}
	return append([]byte{0x91}, payload...), nil
}
