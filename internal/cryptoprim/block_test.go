package cryptoprim

import "testing"

func TestBlockRejectsBadSizes(t *testing.T) {
	if _, err := Block(make([]byte, 16), make([]byte, 16)); err != ErrInvalidKeySize {
		t.Fatalf("got %v, want ErrInvalidKeySize", err)
	}
	if _, err := Block(make([]byte, 32), make([]byte, 8)); err != ErrInvalidBlockSize {
		t.Fatalf("got %v, want ErrInvalidBlockSize", err)
	}
}

func TestBlockDeterministic(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	block := make([]byte, 16)
	for i := range block {
		block[i] = byte(16 - i)
	}
	a, err := Block(key, block)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Block(key, block)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("AES block encryption must be deterministic")
	}
}
