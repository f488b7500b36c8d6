// Package gatewaycore defines the external collaborator interfaces the
// device gateway depends on (§6) and the structured error types used across
// the session/deploy/device layers (§7). None of these interfaces are
// implemented here — concrete, swappable implementations live in
// internal/storage, internal/pubsub, internal/telemetry, and
// internal/metrics.
package gatewaycore

import (
	"context"

	"github.com/harrylevesque/wssgateway/internal/model"
)

// AuthResolver maps an incoming connection request to a DeviceIdentity.
type AuthResolver interface {
	ResolveDevice(ctx context.Context, partitionKey, rowKey string) (model.DeviceIdentity, error)
}

// DeviceStore is the persistent device-record collaborator: reads and
// read-modify-writes a device's Record under single-writer semantics.
type DeviceStore interface {
	GetDevice(ctx context.Context, partitionKey, rowKey string) (model.Record, error)
	UpdateDevice(ctx context.Context, partitionKey, rowKey string, mutate func(*model.Record)) error
}

// ScriptBody is a compiled program body as returned by the script store:
// hex-encoded bytes, matching storage.getScriptBody's wire shape.
type ScriptBody struct {
	ProgramBinaryHex string
}

// ScriptStore fetches compiled program bodies by (scriptId, scriptVersion).
type ScriptStore interface {
	GetScriptBody(ctx context.Context, scriptID, scriptVersion string) (ScriptBody, error)
}

// PubSub is the backend pub/sub plane: one inbound subscription per device
// path, outbound publishes of device-originated events.
type PubSub interface {
	PubFromDevice(ctx context.Context, devicePath string, message any) error
	SubToDevice(ctx context.Context, devicePath string, handler func(message any)) (unsub func(), err error)
}

// CommandPublisher is the operator-facing half of PubSub: pushing a
// command at a device path that may or may not have a live subscriber.
// Implemented by the same pubsub.ChannelPubSub a Gateway wires for
// SubToDevice, exposed separately here so the operator API depends only on
// the capability it actually uses.
type CommandPublisher interface {
	PublishCommand(devicePath string, command any) (delivered bool)
}

// DeviceLister is an optional DeviceStore capability for enumerating every
// known device record, used by the operator API's device list endpoint.
// Not every DeviceStore need support it (a pure key-value backend might
// not), so it is a separate interface rather than a method on DeviceStore.
type DeviceLister interface {
	ListDevices(ctx context.Context) ([]model.Record, error)
}

// SelfHoster is an optional DeviceStore capability reporting the host a
// device should reconnect to, used only for emitting wssk:// connection
// strings from the operator API's device-detail view. Kept separate from
// DeviceStore for the same reason as DeviceLister: not every backend has a
// notion of "which host answers for this record."
type SelfHoster interface {
	SelfHost() string
}

// TelemetryRecord is the decoded shape of a device-uploaded binary
// telemetry record, as produced by the telemetry parser collaborator.
type TelemetryRecord struct {
	Kind    string
	Fields  map[string]float64
	RawHex  string
}

// TelemetryParser decodes a raw UploadBin payload.
type TelemetryParser interface {
	Parse(payload []byte) (TelemetryRecord, error)
}

// TelemetrySink persists a decoded telemetry record under a partition key.
type TelemetrySink interface {
	Insert(ctx context.Context, partitionKey string, record TelemetryRecord) error
}

// TelemetryInspector is an optional TelemetrySink capability for reading
// back recently retained records, used by the operator API's
// device-inspection view. Not every sink can support it (a warehouse-backed
// sink is typically write-only from the gateway's perspective), so it is a
// separate interface rather than a method on TelemetrySink.
type TelemetryInspector interface {
	Recent(partitionKey string) []TelemetryRecord
}

// MetricsTagOverrides carries the three override keys the spec names:
// session correlation id, device row key as user id, display name as
// auth user id.
type MetricsTagOverrides struct {
	SessionID      string
	UserID         string
	AuthUserID     string
}

// Metrics is the operational event/measurement sink.
type Metrics interface {
	Track(event string, properties map[string]any, measurements map[string]float64, tags MetricsTagOverrides)
}
