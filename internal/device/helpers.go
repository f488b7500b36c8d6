package device

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// unmarshalStrict decodes a command payload and rejects unknown fields, so a
// malformed payload surfaces as a warning rather than silently dropped data.
func unmarshalStrict(payload json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeProgramHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
