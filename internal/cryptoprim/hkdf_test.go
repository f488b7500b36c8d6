package cryptoprim

import (
	"bytes"
	"crypto/sha256"
	"io"
	"testing"

	"golang.org/x/crypto/hkdf"
)

// TestHKDFMatchesStdlibConstruction is the S1 scenario: devkey = 32 bytes
// 0x01, client_random = 16 bytes 0x02, server_random = 16 bytes 0x03. The
// derived session key must equal HKDF-SHA256(ikm=devkey, salt=empty,
// info=client_random||server_random, L=32).
func TestHKDFMatchesStdlibConstruction(t *testing.T) {
	devkey := bytes.Repeat([]byte{0x01}, 32)
	clientRandom := bytes.Repeat([]byte{0x02}, 16)
	serverRandom := bytes.Repeat([]byte{0x03}, 16)
	info := append(append([]byte{}, clientRandom...), serverRandom...)

	got, err := HKDFSHA256(devkey, info, 32)
	if err != nil {
		t.Fatalf("HKDFSHA256: %v", err)
	}

	r := hkdf.New(sha256.New, devkey, nil, info)
	want := make([]byte, 32)
	if _, err := io.ReadFull(r, want); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(got, want) {
		t.Fatalf("session key mismatch:\ngot  %x\nwant %x", got, want)
	}
}

func TestHKDFDeterministic(t *testing.T) {
	ikm := []byte("ikm-material")
	info := []byte("info-label")
	a, err := HKDFSHA256(ikm, info, 32)
	if err != nil {
		t.Fatal(err)
	}
	b, err := HKDFSHA256(ikm, info, 32)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("HKDF must be deterministic")
	}
}
