package device

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/harrylevesque/wssgateway/internal/deploy"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/model"
)

// RecordWriter is the record-layer write side a Session needs; satisfied by
// *session.Session without importing it directly, the same decoupling the
// record layer itself applies to its transport.
type RecordWriter interface {
	WriteRecord(plaintext []byte) error
}

// Session is one connected device's command/telemetry/deploy state.
type Session struct {
	Identity model.DeviceIdentity

	writer  RecordWriter
	pubsub  gatewaycore.PubSub
	store   gatewaycore.DeviceStore
	scripts gatewaycore.ScriptStore
	parser  gatewaycore.TelemetryParser
	sink    gatewaycore.TelemetrySink
	metrics gatewaycore.Metrics

	deployState   *deploy.State
	deployBackoff *deploy.Backoff

	stats   model.Stats
	lastMsg bool
}

// Options bundles a Session's collaborators.
type Options struct {
	PubSub        gatewaycore.PubSub
	Store         gatewaycore.DeviceStore
	Scripts       gatewaycore.ScriptStore
	Parser        gatewaycore.TelemetryParser
	Sink          gatewaycore.TelemetrySink
	Metrics       gatewaycore.Metrics
	DeployBackoff *deploy.Backoff
}

// New builds a Session for an authenticated device identity.
func New(identity model.DeviceIdentity, writer RecordWriter, opts Options) *Session {
	return &Session{
		Identity:      identity,
		writer:        writer,
		pubsub:        opts.PubSub,
		store:         opts.Store,
		scripts:       opts.Scripts,
		parser:        opts.Parser,
		sink:          opts.Sink,
		metrics:       opts.Metrics,
		deployState:   deploy.NewState(identity.Path()),
		deployBackoff: opts.DeployBackoff,
	}
}

// SendDeployFrame implements deploy.Sender: deploy opcodes are sent as
// compressed command frames carrying the opcode itself and its payload.
func (s *Session) SendDeployFrame(opcode byte, payload []byte) error {
	return s.writer.WriteRecord(EncodeCompressedFrame(uint16(opcode), payload))
}

// HandleInboundFrame dispatches one raw device frame per §4.4.
func (s *Session) HandleInboundFrame(ctx context.Context, raw []byte) error {
	s.lastMsg = true
	frame, err := ParseFrame(raw)
	if err != nil {
		s.warn(ctx, err.Error())
		return nil
	}
	if !frame.Compressed {
		return s.publish(ctx, "frame", framePayload{Payload64: base64.StdEncoding.EncodeToString(frame.WireFrame)})
	}
	return s.dispatchOpcode(ctx, frame.Opcode, frame.Payload)
}

func (s *Session) dispatchOpcode(ctx context.Context, opcode uint16, payload []byte) error {
	switch opcode {
	case 0x80:
		return s.handleUpload(ctx, payload)
	case 0x81:
		return s.handleUploadBin(ctx, payload)
	case 0x83:
		return s.handleAckCloudCommand(ctx, payload)
	case 0x91:
		return s.publish(ctx, "pong", pongPayload{Payload64: base64.StdEncoding.EncodeToString(payload)})
	case 0x92:
		return s.writer.WriteRecord(EncodeCompressedFrame(0x92, payload))
	case uint16(deploy.OpRequestHash), uint16(deploy.OpBeginUpload), uint16(deploy.OpChunk),
		uint16(deploy.OpFinalize), uint16(deploy.OpReject):
		if err := deploy.HandleDeviceRecord(s.deployState, byte(opcode), payload, s, s.deployBackoff); err != nil {
			s.warn(ctx, err.Error())
		}
		return nil
	default:
		s.warn(ctx, fmt.Sprintf("unknown cmd 0x%02x", opcode))
		return nil
	}
}

func (s *Session) handleUpload(ctx context.Context, payload []byte) error {
	s.stats.D2C++
	idx := bytes.IndexByte(payload, 0)
	if idx < 0 || (len(payload)-idx-1)%8 != 0 {
		s.warn(ctx, "malformed upload frame")
		return nil
	}
	label := string(payload[:idx])
	rest := payload[idx+1:]
	values := make([]float64, len(rest)/8)
	for i := range values {
		bits := binary.LittleEndian.Uint64(rest[i*8 : i*8+8])
		values[i] = math.Float64frombits(bits)
	}
	return s.publish(ctx, "jacsUpload", jacsUploadPayload{Label: label, Values: values})
}

func (s *Session) handleUploadBin(ctx context.Context, payload []byte) error {
	s.stats.D2C++
	if s.parser != nil && s.sink != nil {
		record, err := s.parser.Parse(payload)
		if err != nil {
			s.warn(ctx, "telemetry parse failed: "+err.Error())
		} else if err := s.sink.Insert(ctx, s.Identity.PartitionKey, record); err != nil {
			s.warn(ctx, "telemetry insert failed: "+err.Error())
		}
	}
	return s.publish(ctx, "uploadBin", uploadBinPayload{Payload64: base64.StdEncoding.EncodeToString(payload)})
}

func (s *Session) handleAckCloudCommand(ctx context.Context, payload []byte) error {
	s.stats.C2DResp++
	if len(payload) < 8 || (len(payload)-8)%8 != 0 {
		s.warn(ctx, "malformed ack-cloud-command frame")
		return nil
	}
	rid := binary.LittleEndian.Uint32(payload[0:4])
	statusCode := binary.LittleEndian.Uint32(payload[4:8])
	rest := payload[8:]
	result := make([]float64, len(rest)/8)
	for i := range result {
		bits := binary.LittleEndian.Uint64(rest[i*8 : i*8+8])
		result[i] = math.Float64frombits(bits)
	}
	return s.publish(ctx, "methodRes", methodResPayload{RID: rid, StatusCode: statusCode, Result: result})
}

// HandleOutboundCommand dispatches a backend-published command toward the
// device per §4.4's outbound table.
func (s *Session) HandleOutboundCommand(ctx context.Context, cmd Command) error {
	switch cmd.Type {
	case "method":
		var m methodCommand
		if err := unmarshalStrict(cmd.Payload, &m); err != nil {
			s.warn(ctx, "method: non-numeric-array payload")
			return nil
		}
		s.stats.C2D++
		return s.writer.WriteRecord(encodeMethodFrame(m))
	case "frameTo":
		var m frameToCommand
		if err := unmarshalStrict(cmd.Payload, &m); err != nil {
			s.warn(ctx, "frameTo: bad payload")
			return nil
		}
		raw, err := decodeFrameToBytes(m)
		if err != nil {
			s.warn(ctx, "frameTo: bad base64")
			return nil
		}
		return s.writer.WriteRecord(raw)
	case "setfwd":
		var m setfwdCommand
		if err := unmarshalStrict(cmd.Payload, &m); err != nil {
			s.warn(ctx, "setfwd: bad payload")
			return nil
		}
		return s.writer.WriteRecord(encodeSetfwdFrame(m))
	case "ping":
		var m pingCommand
		if err := unmarshalStrict(cmd.Payload, &m); err != nil {
			s.warn(ctx, "ping: bad payload")
			return nil
		}
		raw, err := decodePingFrame(m)
		if err != nil {
			s.warn(ctx, "ping: bad base64")
			return nil
		}
		return s.writer.WriteRecord(raw)
	case "update":
		var m updateCommand
		if err := unmarshalStrict(cmd.Payload, &m); err != nil {
			s.warn(ctx, "update: bad payload")
			return nil
		}
		return s.syncScript(ctx, m)
	default:
		s.warn(ctx, "unknown outbound command type "+cmd.Type)
		return nil
	}
}

func (s *Session) syncScript(ctx context.Context, m updateCommand) error {
	program, err := decodeProgramHex(m.ProgramHex)
	if err != nil {
		s.warn(ctx, "update: bad program encoding")
		return nil
	}
	return deploy.SyncScript(s.deployState, program, m.ScriptID, m.ScriptVersion, s, s.deployBackoff)
}

func (s *Session) warn(ctx context.Context, message string) {
	_ = s.publish(ctx, "warning", warningPayload{Message: message})
}

func (s *Session) metricsTags() gatewaycore.MetricsTagOverrides {
	return gatewaycore.MetricsTagOverrides{
		SessionID:  s.Identity.Path(),
		UserID:     s.Identity.RowKey,
		AuthUserID: s.Identity.DisplayName,
	}
}

func (s *Session) publish(ctx context.Context, typ string, payload any) error {
	if s.pubsub == nil {
		return nil
	}
	event, err := newEvent(typ, payload)
	if err != nil {
		return err
	}
	return s.pubsub.PubFromDevice(ctx, s.Identity.Path(), event)
}
