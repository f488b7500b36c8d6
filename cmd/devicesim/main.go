// Command devicesim drives one simulated device through the full §4.2
// handshake and §5 record protocol against a running gatewayd, the
// websocket-era counterpart to the teacher's cmd/client REST flows.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harrylevesque/wssgateway/internal/cryptoprim"
	"github.com/harrylevesque/wssgateway/internal/session"
)

func fillRandom(b []byte) error {
	_, err := rand.Read(b)
	return err
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

// ===== devicesim roadmap =====
// TODO(devicesim-outbound-commands): Decode and print backend-originated
// commands (method/frameTo/setfwd/update/ping) instead of only uploading.
// TODO(devicesim-reconnect): Auto-reconnect with backoff on transport drop.

func main() {
	server := flag.String("server", "ws://localhost:8080", "gatewayd base URL")
	partID := flag.String("part", "part1", "device partition key")
	deviceID := flag.String("device", "dev1", "device row key")
	keyHex := flag.String("key", "", "hex-encoded 32-byte device key (required)")
	label := flag.String("label", "temp", "telemetry kind label to upload")
	value := flag.Float64("value", 21.5, "telemetry value to upload")
	period := flag.Duration("period", 5*time.Second, "interval between uploads")
	flag.Parse()

	if *keyHex == "" {
		fmt.Fprintln(os.Stderr, "devicesim: -key is required (see gendevicekey)")
		os.Exit(1)
	}
	devkey, err := hex.DecodeString(*keyHex)
	if err != nil || len(devkey) != 32 {
		fmt.Fprintln(os.Stderr, "devicesim: -key must be 32 hex-encoded bytes")
		os.Exit(1)
	}

	wsURL := strings.TrimRight(*server, "/") + fmt.Sprintf("/wssk/%s/%s", *partID, *deviceID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicesim: dial %s: %v\n", wsURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	c, err := handshake(conn, devkey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devicesim: handshake: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("devicesim: handshake complete with %s as %s/%s\n", *server, *partID, *deviceID)

	ticker := time.NewTicker(*period)
	defer ticker.Stop()
	for range ticker.C {
		if err := c.uploadBin(*label, *value); err != nil {
			fmt.Fprintf(os.Stderr, "devicesim: upload: %v\n", err)
			return
		}
		fmt.Printf("devicesim: uploaded %s=%v\n", *label, *value)
	}
}

// simClient is the device end of an established session: derived key plus
// independent per-direction nonce counters, the same shape session.Session
// keeps on the gateway side.
type simClient struct {
	conn        *websocket.Conn
	key         [32]byte
	clientNonce [13]byte
	serverNonce [13]byte
}

// handshake runs the device side of §4.2: send the selector, read the
// cleartext server hello, derive the session key, verify the auth record,
// and send the first authenticated all-zero record.
func handshake(conn *websocket.Conn, devkey []byte) (*simClient, error) {
	var clientRandom [16]byte
	if err := fillRandom(clientRandom[:]); err != nil {
		return nil, err
	}
	selector := "devs-key-" + hex.EncodeToString(clientRandom[:])
	if err := conn.WriteMessage(websocket.BinaryMessage, []byte(selector)); err != nil {
		return nil, fmt.Errorf("write selector: %w", err)
	}

	_, hello, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read server hello: %w", err)
	}
	if len(hello) != 24 {
		return nil, fmt.Errorf("server hello length = %d, want 24", len(hello))
	}
	var serverRandom [16]byte
	copy(serverRandom[:], hello[8:24])

	key, err := session.DeriveSessionKey(session.VersionDevs, devkey, clientRandom, serverRandom)
	if err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}

	c := &simClient{
		conn:        conn,
		key:         key,
		clientNonce: cryptoprim.NewNonce(cryptoprim.ClientNonceLeadByte),
		serverNonce: cryptoprim.NewNonce(cryptoprim.ServerNonceLeadByte),
	}

	_, authRecord, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read auth record: %w", err)
	}
	plain, decErr := cryptoprim.DecryptCCM(c.key[:], c.serverNonce[:], authRecord)
	if err := cryptoprim.IncNonce(&c.serverNonce); err != nil {
		return nil, fmt.Errorf("server nonce overflow: %w", err)
	}
	if decErr != nil {
		return nil, fmt.Errorf("decrypt auth record: %w", decErr)
	}
	if len(plain) != 32 {
		return nil, fmt.Errorf("auth record plaintext length = %d, want 32", len(plain))
	}

	if err := c.writeRecord(make([]byte, 32)); err != nil {
		return nil, fmt.Errorf("write first record: %w", err)
	}
	return c, nil
}

func (c *simClient) writeRecord(plaintext []byte) error {
	ciphertext, err := cryptoprim.EncryptCCM(c.key[:], c.clientNonce[:], plaintext)
	if err != nil {
		return err
	}
	if err := cryptoprim.IncNonce(&c.clientNonce); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.BinaryMessage, ciphertext)
}

// uploadBin sends one compressed 0x81 UploadBin frame: the zero-terminated
// label, a u16-LE field count of 1, the u16-LE length of the field name
// "value", that name, and the f64-LE value, matching
// telemetry.DecodingTelemetryParser's wire format.
func (c *simClient) uploadBin(label string, value float64) error {
	payload := encodeUploadBin(label, value)
	frame := make([]byte, 4+len(payload))
	frame[0] = 0x81
	frame[1] = 0x00
	copy(frame[4:], payload)
	return c.writeRecord(frame)
}

func encodeUploadBin(kind string, value float64) []byte {
	name := "value"
	out := make([]byte, 0, len(kind)+1+2+2+len(name)+8)
	out = append(out, []byte(kind)...)
	out = append(out, 0)
	out = appendUint16LE(out, 1)
	out = appendUint16LE(out, uint16(len(name)))
	out = append(out, []byte(name)...)
	out = appendFloat64LE(out, value)
	return out
}

func appendUint16LE(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

func appendFloat64LE(b []byte, f float64) []byte {
	bits := floatBits(f)
	for i := 0; i < 8; i++ {
		b = append(b, byte(bits>>(8*i)))
	}
	return b
}
