package device

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"math"
	"testing"

	"github.com/harrylevesque/wssgateway/internal/deploy"
	"github.com/harrylevesque/wssgateway/internal/model"
)

type fakeWriter struct {
	written [][]byte
}

func (w *fakeWriter) WriteRecord(p []byte) error {
	w.written = append(w.written, append([]byte(nil), p...))
	return nil
}

type fakePubSub struct {
	events []Event
}

func (p *fakePubSub) PubFromDevice(ctx context.Context, devicePath string, message any) error {
	p.events = append(p.events, message.(Event))
	return nil
}

func (p *fakePubSub) SubToDevice(ctx context.Context, devicePath string, handler func(message any)) (func(), error) {
	return func() {}, nil
}

type fakeStore struct {
	record model.Record
}

func (s *fakeStore) GetDevice(ctx context.Context, partitionKey, rowKey string) (model.Record, error) {
	return s.record, nil
}

func (s *fakeStore) UpdateDevice(ctx context.Context, partitionKey, rowKey string, mutate func(*model.Record)) error {
	mutate(&s.record)
	return nil
}

func newTestSession() (*Session, *fakeWriter, *fakePubSub, *fakeStore) {
	identity := model.DeviceIdentity{PartitionKey: "part1", RowKey: "dev1", DisplayName: "Dev One"}
	writer := &fakeWriter{}
	pubsub := &fakePubSub{}
	store := &fakeStore{}
	s := New(identity, writer, Options{
		PubSub:        pubsub,
		Store:         store,
		DeployBackoff: deploy.NewBackoff(),
	})
	return s, writer, pubsub, store
}

func eventOfType(events []Event, typ string) (Event, bool) {
	for _, e := range events {
		if e.Type == typ {
			return e, true
		}
	}
	return Event{}, false
}

// TestUploadEventS3 matches the upload scenario: a compressed frame
// [80 00 00 00 'h' 'i' 00 <f64 3.14>] yields a jacsUpload publish and
// increments d2c.
func TestUploadEventS3(t *testing.T) {
	s, _, pubsub, _ := newTestSession()

	payload := append([]byte("hi"), 0)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(3.14))
	payload = append(payload, buf[:]...)
	msg := append([]byte{0x80, 0x00, 0x00, 0x00}, payload...)

	if err := s.HandleInboundFrame(context.Background(), msg); err != nil {
		t.Fatalf("HandleInboundFrame: %v", err)
	}
	if s.stats.D2C != 1 {
		t.Fatalf("d2c = %d, want 1", s.stats.D2C)
	}
	ev, ok := eventOfType(pubsub.events, "jacsUpload")
	if !ok {
		t.Fatalf("no jacsUpload event published: %+v", pubsub.events)
	}
	var got jacsUploadPayload
	if err := json.Unmarshal(ev.Payload, &got); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if got.Label != "hi" || len(got.Values) != 1 || got.Values[0] != 3.14 {
		t.Fatalf("unexpected upload payload: %+v", got)
	}
}

func TestKeepaliveEcho(t *testing.T) {
	s, writer, _, _ := newTestSession()
	msg := []byte{0x92, 0x00, 0x00, 0x00, 0xAB, 0xCD}
	if err := s.HandleInboundFrame(context.Background(), msg); err != nil {
		t.Fatalf("HandleInboundFrame: %v", err)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one echoed frame, got %d", len(writer.written))
	}
	echoed := EncodeCompressedFrame(0x92, []byte{0xAB, 0xCD})
	if string(writer.written[0]) != string(echoed) {
		t.Fatalf("echo mismatch: got % x, want % x", writer.written[0], echoed)
	}
}

func TestUnknownOpcodeWarns(t *testing.T) {
	s, _, pubsub, _ := newTestSession()
	msg := []byte{0x7F, 0x00, 0x00, 0x00}
	if err := s.HandleInboundFrame(context.Background(), msg); err != nil {
		t.Fatalf("HandleInboundFrame: %v", err)
	}
	if _, ok := eventOfType(pubsub.events, "warning"); !ok {
		t.Fatalf("expected warning event for unknown opcode")
	}
}

// TestDeployStartViaUpdateCommandS4 matches the deploy-start scenario: a
// backend "update" command with a 2048-byte program, followed by a device
// 0x93 report of a mismatched hash, triggers an outbound 0x94 with LE length
// 0x00000800.
func TestDeployStartViaUpdateCommandS4(t *testing.T) {
	s, writer, _, _ := newTestSession()

	program := make([]byte, 2048)
	copy(program, []byte{0x4A, 0x61, 0x63, 0x53, 0x0A, 0x7E, 0x6A, 0x9A})
	cmd := Command{Type: "update", Payload: mustJSON(t, updateCommand{
		ScriptID:      "s1",
		ScriptVersion: "v1",
		ProgramHex:    hex.EncodeToString(program),
	})}
	if err := s.HandleOutboundCommand(context.Background(), cmd); err != nil {
		t.Fatalf("HandleOutboundCommand update: %v", err)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected initial 0x93 request frame, got %d", len(writer.written))
	}

	mismatched := make([]byte, 32)
	deviceMsg := append([]byte{byte(deploy.OpRequestHash), 0x00, 0x00, 0x00}, mismatched...)
	if err := s.HandleInboundFrame(context.Background(), deviceMsg); err != nil {
		t.Fatalf("HandleInboundFrame hash report: %v", err)
	}
	if len(writer.written) != 2 {
		t.Fatalf("expected a second outbound frame (begin upload), got %d", len(writer.written))
	}
	got := writer.written[1]
	gotOpcode := binary.LittleEndian.Uint16(got[0:2])
	if gotOpcode != uint16(deploy.OpBeginUpload) {
		t.Fatalf("opcode = 0x%02x, want 0x94", gotOpcode)
	}
	wantLen := []byte{0x00, 0x08, 0x00, 0x00}
	if string(got[4:8]) != string(wantLen) {
		t.Fatalf("begin-upload length = % x, want % x", got[4:8], wantLen)
	}
}

func TestMethodCommandEncoding(t *testing.T) {
	s, writer, _, _ := newTestSession()
	cmd := Command{Type: "method", Payload: mustJSON(t, methodCommand{RID: 7, Method: "ping", Args: []float64{1, 2}})}
	if err := s.HandleOutboundCommand(context.Background(), cmd); err != nil {
		t.Fatalf("HandleOutboundCommand: %v", err)
	}
	if s.stats.C2D != 1 {
		t.Fatalf("c2d = %d, want 1", s.stats.C2D)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one frame written")
	}
	opcode := binary.LittleEndian.Uint16(writer.written[0][0:2])
	if opcode != 0x83 {
		t.Fatalf("opcode = 0x%02x, want 0x83", opcode)
	}
}

func TestTickFlushesAndResetsStats(t *testing.T) {
	s, _, pubsub, store := newTestSession()
	s.stats.D2C = 3
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !s.stats.IsZero() {
		t.Fatalf("stats not reset after tick: %+v", s.stats)
	}
	if store.record.Stats["d2c"] != 3 {
		t.Fatalf("persisted stats = %+v, want d2c=3", store.record.Stats)
	}
	if _, ok := eventOfType(pubsub.events, "tick"); !ok {
		t.Fatalf("expected a tick event")
	}
}

func TestTickNoOpWhenQuiet(t *testing.T) {
	s, _, pubsub, _ := newTestSession()
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if len(pubsub.events) != 0 {
		t.Fatalf("expected no events on a quiet tick, got %+v", pubsub.events)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	return b
}
