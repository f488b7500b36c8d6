// Package telemetry provides reference implementations of the
// TelemetryParser/TelemetrySink collaborators (§6): a length-prefixed
// binary record decoder and a no-op sink suitable for gatewayd standalone
// deployments.
package telemetry

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"

	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// ErrRecordTooShort is returned when a binary upload is too small to carry
// even the record header.
var ErrRecordTooShort = errors.New("telemetry: record too short")

// DecodingTelemetryParser decodes an 0x81 UploadBin payload of the shape:
// one zero-terminated UTF-8 "kind" label, then a u16-LE field count, then
// that many (u16-LE name-length, name bytes, f64-LE value) triples — a
// compact external binary format ("binfmt") for structured telemetry
// distinct from the single-label/value-array shape of 0x80 Upload.
type DecodingTelemetryParser struct{}

// Parse implements gatewaycore.TelemetryParser.
func (DecodingTelemetryParser) Parse(payload []byte) (gatewaycore.TelemetryRecord, error) {
	idx := indexZero(payload)
	if idx < 0 || idx+3 > len(payload) {
		return gatewaycore.TelemetryRecord{}, ErrRecordTooShort
	}
	kind := string(payload[:idx])
	rest := payload[idx+1:]
	if len(rest) < 2 {
		return gatewaycore.TelemetryRecord{}, ErrRecordTooShort
	}
	count := int(binary.LittleEndian.Uint16(rest[0:2]))
	rest = rest[2:]

	fields := make(map[string]float64, count)
	for i := 0; i < count; i++ {
		if len(rest) < 2 {
			return gatewaycore.TelemetryRecord{}, ErrRecordTooShort
		}
		nameLen := int(binary.LittleEndian.Uint16(rest[0:2]))
		rest = rest[2:]
		if len(rest) < nameLen+8 {
			return gatewaycore.TelemetryRecord{}, ErrRecordTooShort
		}
		name := string(rest[:nameLen])
		rest = rest[nameLen:]
		bits := binary.LittleEndian.Uint64(rest[:8])
		fields[name] = math.Float64frombits(bits)
		rest = rest[8:]
	}

	return gatewaycore.TelemetryRecord{Kind: kind, Fields: fields, RawHex: hex.EncodeToString(payload)}, nil
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
