package gateway

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"

	"github.com/harrylevesque/wssgateway/internal/cryptoprim"
	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
	"github.com/harrylevesque/wssgateway/internal/model"
	"github.com/harrylevesque/wssgateway/internal/session"
)

type fakeAuthResolver struct {
	identities map[string]model.DeviceIdentity
}

func (a *fakeAuthResolver) ResolveDevice(ctx context.Context, partitionKey, rowKey string) (model.DeviceIdentity, error) {
	id, ok := a.identities[partitionKey+"/"+rowKey]
	if !ok {
		return model.DeviceIdentity{}, &gatewaycore.AuthError{Reason: "unknown device"}
	}
	return id, nil
}

type fakeDeviceStore struct {
	mu      sync.Mutex
	records map[string]model.Record
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{records: map[string]model.Record{}}
}

func (s *fakeDeviceStore) GetDevice(ctx context.Context, partitionKey, rowKey string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[partitionKey+"/"+rowKey], nil
}

func (s *fakeDeviceStore) UpdateDevice(ctx context.Context, partitionKey, rowKey string, mutate func(*model.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := partitionKey + "/" + rowKey
	r := s.records[key]
	mutate(&r)
	s.records[key] = r
	return nil
}

type recordingPubSub struct {
	mu     sync.Mutex
	events []any
}

func (p *recordingPubSub) PubFromDevice(ctx context.Context, devicePath string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, message)
	return nil
}

func (p *recordingPubSub) SubToDevice(ctx context.Context, devicePath string, handler func(message any)) (func(), error) {
	return func() {}, nil
}

func (p *recordingPubSub) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// clientSide drives the device end of a connection: the §4.2 handshake
// plus subsequent record encryption/decryption, mirroring what
// internal/session's loopbackTransport does against Accept directly but
// here over a real websocket.Conn dialed at the gateway's HTTP endpoint.
type clientSide struct {
	conn        *gwebsocket.Conn
	key         [32]byte
	clientNonce [13]byte
	serverNonce [13]byte
}

func dialAndHandshake(t *testing.T, wsURL string, devkey []byte) *clientSide {
	t.Helper()
	conn, _, err := gwebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	var clientRandom [16]byte
	for i := range clientRandom {
		clientRandom[i] = byte(i + 1)
	}
	selector := "devs-key-" + hex.EncodeToString(clientRandom[:])
	if err := conn.WriteMessage(gwebsocket.BinaryMessage, []byte(selector)); err != nil {
		t.Fatalf("write selector: %v", err)
	}

	_, helloMsg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if len(helloMsg) != 24 {
		t.Fatalf("hello len = %d, want 24", len(helloMsg))
	}
	var serverRandom [16]byte
	copy(serverRandom[:], helloMsg[8:24])

	key, err := session.DeriveSessionKey(session.VersionDevs, devkey, clientRandom, serverRandom)
	if err != nil {
		t.Fatalf("DeriveSessionKey: %v", err)
	}

	c := &clientSide{
		conn:        conn,
		key:         key,
		clientNonce: cryptoprim.NewNonce(cryptoprim.ClientNonceLeadByte),
		serverNonce: cryptoprim.NewNonce(cryptoprim.ServerNonceLeadByte),
	}

	_, authRecord, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read auth record: %v", err)
	}
	plain, err := cryptoprim.DecryptCCM(c.key[:], c.serverNonce[:], authRecord)
	if incErr := cryptoprim.IncNonce(&c.serverNonce); incErr != nil {
		t.Fatalf("server nonce overflow: %v", incErr)
	}
	if err != nil {
		t.Fatalf("decrypt auth record: %v", err)
	}
	if len(plain) != 32 {
		t.Fatalf("auth record plaintext len = %d, want 32", len(plain))
	}

	if err := c.writeRecord(make([]byte, 32)); err != nil {
		t.Fatalf("write first record: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c
}

func (c *clientSide) writeRecord(plaintext []byte) error {
	ciphertext, err := cryptoprim.EncryptCCM(c.key[:], c.clientNonce[:], plaintext)
	if err != nil {
		return err
	}
	if err := cryptoprim.IncNonce(&c.clientNonce); err != nil {
		return err
	}
	return c.conn.WriteMessage(gwebsocket.BinaryMessage, ciphertext)
}

func newTestGateway() (*Gateway, *recordingPubSub, *fakeDeviceStore, []byte) {
	devkey := make([]byte, 32)
	for i := range devkey {
		devkey[i] = byte(i)
	}
	auth := &fakeAuthResolver{identities: map[string]model.DeviceIdentity{
		"part1/dev1": {
			PartitionKey: "part1",
			RowKey:       "dev1",
			DisplayName:  "Dev One",
			DeviceKeyB64: base64.StdEncoding.EncodeToString(devkey),
		},
	}}
	store := newFakeDeviceStore()
	pubsub := &recordingPubSub{}
	g := New(Collaborators{
		Auth:   auth,
		Store:  store,
		PubSub: pubsub,
	})
	return g, pubsub, store, devkey
}

// TestGatewayHandshakeAndUploadRoundTrip exercises the full path: HTTP
// upgrade, handshake (§4.2), one compressed upload frame (opcode 0x80),
// and the resulting jacsUpload event reaching the backend pubsub.
func TestGatewayHandshakeAndUploadRoundTrip(t *testing.T) {
	g, pubsub, _, devkey := newTestGateway()
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wssk/part1/dev1"
	c := dialAndHandshake(t, wsURL, devkey)
	defer c.conn.Close()

	// Compressed upload frame: msg[2]==0, opcode 0x0080 LE at offset 0,
	// payload at offset 4: a zero-terminated label followed by one
	// little-endian float64.
	payload := append([]byte("temp\x00"), 0, 0, 0, 0, 0, 0, 0, 0)
	frame := make([]byte, 4+len(payload))
	frame[0] = 0x80
	frame[1] = 0x00
	copy(frame[4:], payload)
	if err := c.writeRecord(frame); err != nil {
		t.Fatalf("write upload frame: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for pubsub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pubsub.count() == 0 {
		t.Fatalf("expected at least one event published to the backend")
	}
}

func TestGatewayRejectsConcurrentSessionForSameDevice(t *testing.T) {
	g, _, _, _ := newTestGateway()
	if !g.claim("part1/dev1") {
		t.Fatalf("first claim should succeed")
	}
	if g.claim("part1/dev1") {
		t.Fatalf("second claim for the same device path should be rejected")
	}
	g.release("part1/dev1")
	if !g.claim("part1/dev1") {
		t.Fatalf("claim should succeed again after release")
	}
}
