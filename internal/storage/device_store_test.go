package storage

import (
	"context"
	"testing"

	"github.com/harrylevesque/wssgateway/internal/model"
)

func TestFileDeviceStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDeviceStore(dir, nil, "gw.example.com:8080")
	if err != nil {
		t.Fatalf("NewFileDeviceStore: %v", err)
	}
	ctx := context.Background()

	err = store.UpdateDevice(ctx, "part1", "dev1", func(r *model.Record) {
		r.DisplayName = "Dev One"
		if r.Stats == nil {
			r.Stats = map[string]int{}
		}
		r.Stats["d2c"] += 3
	})
	if err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}

	err = store.UpdateDevice(ctx, "part1", "dev1", func(r *model.Record) {
		r.Stats["d2c"] += 2
	})
	if err != nil {
		t.Fatalf("UpdateDevice second call: %v", err)
	}

	got, err := store.GetDevice(ctx, "part1", "dev1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.DisplayName != "Dev One" || got.Stats["d2c"] != 5 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestFileDeviceStoreGetMissingIsNotFound(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDeviceStore(dir, nil, "gw.example.com:8080")
	if err != nil {
		t.Fatalf("NewFileDeviceStore: %v", err)
	}
	_, err = store.GetDevice(context.Background(), "partX", "devX")
	if _, ok := err.(*DeviceNotFoundError); !ok {
		t.Fatalf("expected *DeviceNotFoundError, got %T: %v", err, err)
	}
}

func TestFileDeviceStoreEncryptedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	store, err := NewFileDeviceStore(dir, key, "gw.example.com:8080")
	if err != nil {
		t.Fatalf("NewFileDeviceStore: %v", err)
	}
	ctx := context.Background()
	err = store.UpdateDevice(ctx, "part1", "dev2", func(r *model.Record) {
		r.DisplayName = "Encrypted Dev"
	})
	if err != nil {
		t.Fatalf("UpdateDevice: %v", err)
	}
	got, err := store.GetDevice(ctx, "part1", "dev2")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.DisplayName != "Encrypted Dev" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestFileDeviceStoreListDevices(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileDeviceStore(dir, nil, "gw.example.com:8080")
	if err != nil {
		t.Fatalf("NewFileDeviceStore: %v", err)
	}
	ctx := context.Background()
	for _, id := range []string{"dev1", "dev2", "dev3"} {
		if err := store.UpdateDevice(ctx, "part1", id, func(r *model.Record) {
			r.DisplayName = id
		}); err != nil {
			t.Fatalf("UpdateDevice(%s): %v", id, err)
		}
	}
	records, err := store.ListDevices(ctx)
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("ListDevices returned %d records, want 3", len(records))
	}
}

func TestNewFileDeviceStoreRejectsBadKeyLength(t *testing.T) {
	_, err := NewFileDeviceStore(t.TempDir(), []byte("tooshort"), "")
	if err != ErrInvalidKeyLength {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestFileDeviceStoreSelfHost(t *testing.T) {
	store, err := NewFileDeviceStore(t.TempDir(), nil, "gw.example.com:8080")
	if err != nil {
		t.Fatalf("NewFileDeviceStore: %v", err)
	}
	if got := store.SelfHost(); got != "gw.example.com:8080" {
		t.Fatalf("SelfHost() = %q, want gw.example.com:8080", got)
	}
}
