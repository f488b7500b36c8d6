package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/harrylevesque/wssgateway/internal/deploy"
	"github.com/harrylevesque/wssgateway/internal/device"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/logging"
	"github.com/harrylevesque/wssgateway/internal/session"
)

// tickPeriod is the periodic stats-flush interval named in §4.4.
const tickPeriod = 2 * time.Second

// Collaborators bundles every swappable dependency a Gateway needs to
// drive a device connection, mirroring device.Options plus the handshake
// and cross-session pieces C5 owns.
type Collaborators struct {
	Auth          gatewaycore.AuthResolver
	Store         gatewaycore.DeviceStore
	Scripts       gatewaycore.ScriptStore
	PubSub        gatewaycore.PubSub
	Parser        gatewaycore.TelemetryParser
	Sink          gatewaycore.TelemetrySink
	Metrics       gatewaycore.Metrics
	DeployBackoff *deploy.Backoff
	Logger        *logging.Logger
}

// handleConn runs one device connection end to end: handshake, device
// session construction, inbound/outbound bridging, periodic tick, and
// idempotent teardown. It blocks until the connection ends.
func (g *Gateway) handleConn(ctx context.Context, transport session.Transport, partitionKey, rowKey string) {
	devicePath := partitionKey + "/" + rowKey
	connID := uuid.New().String()

	if !g.claim(devicePath) {
		_ = transport.Close("session already active")
		return
	}
	defer g.release(devicePath)

	g.logFields("connection opened", logging.Fields{"connId": connID, "devicePath": devicePath})
	defer g.logFields("connection closed", logging.Fields{"connId": connID, "devicePath": devicePath})

	identity, err := g.collab.Auth.ResolveDevice(ctx, partitionKey, rowKey)
	if err != nil {
		g.logf("auth resolve failed for %s: %v", devicePath, err)
		_ = transport.Close("unknown device")
		return
	}

	devkey, err := decodeDeviceKey(identity.DeviceKeyB64)
	if err != nil {
		g.logf("bad device key for %s: %v", devicePath, err)
		_ = transport.Close("server misconfiguration")
		return
	}

	sess, err := session.Accept(transport, devkey)
	if err != nil {
		g.logf("handshake failed for %s: %v", devicePath, err)
		_ = transport.Close("handshake failed")
		return
	}

	devSession := device.New(identity, sess, device.Options{
		PubSub:        g.collab.PubSub,
		Store:         g.collab.Store,
		Scripts:       g.collab.Scripts,
		Parser:        g.collab.Parser,
		Sink:          g.collab.Sink,
		Metrics:       g.collab.Metrics,
		DeployBackoff: g.collab.DeployBackoff,
	})

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var unsub func()
	if g.collab.PubSub != nil {
		unsub, err = g.collab.PubSub.SubToDevice(connCtx, devicePath, func(message any) {
			g.dispatchOutbound(connCtx, devSession, message)
		})
		if err != nil {
			g.logf("subscribe failed for %s: %v", devicePath, err)
		}
	}
	defer func() {
		if unsub != nil {
			unsub()
		}
	}()

	go g.tickLoop(connCtx, devSession)

	for {
		raw, err := sess.ReadRecord()
		if err != nil {
			g.logf("session %s ended: %v", devicePath, err)
			_ = sess.Close("record read failed")
			return
		}
		if err := devSession.HandleInboundFrame(connCtx, raw); err != nil {
			g.logf("inbound frame error on %s: %v", devicePath, err)
		}
	}
}

// tickLoop flushes device.Session stats on the period named in §4.4 until
// ctx is cancelled by teardown.
func (g *Gateway) tickLoop(ctx context.Context, devSession *device.Session) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := devSession.Tick(ctx); err != nil {
				g.logf("tick failed for %s: %v", devSession.Identity.Path(), err)
			}
		}
	}
}

// dispatchOutbound decodes a backend-published message into a
// device.Command and drives it through the session. Messages not shaped
// like a Command (wrong type, bad JSON) are dropped with a log line rather
// than panicking the subscriber callback.
func (g *Gateway) dispatchOutbound(ctx context.Context, devSession *device.Session, message any) {
	var cmd device.Command
	switch v := message.(type) {
	case device.Command:
		cmd = v
	case []byte:
		if err := json.Unmarshal(v, &cmd); err != nil {
			g.logf("dropping unparseable outbound command: %v", err)
			return
		}
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			g.logf("dropping unmarshalable outbound message: %v", err)
			return
		}
		if err := json.Unmarshal(raw, &cmd); err != nil {
			g.logf("dropping outbound message shaped unlike a command: %v", err)
			return
		}
	}
	if err := devSession.HandleOutboundCommand(ctx, cmd); err != nil {
		g.logf("outbound command failed: %v", err)
	}
}

func (g *Gateway) logf(format string, args ...any) {
	if g.collab.Logger != nil {
		g.collab.Logger.Warn(fmt.Sprintf(format, args...))
		return
	}
	log.Printf(format, args...)
}

func (g *Gateway) logFields(msg string, fields logging.Fields) {
	if g.collab.Logger != nil {
		g.collab.Logger.InfoFields(msg, fields)
		return
	}
	log.Printf("%s %s", msg, fields.String())
}

func decodeDeviceKey(b64Key string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(b64Key)
}
