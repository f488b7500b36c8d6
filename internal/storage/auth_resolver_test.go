package storage

import (
	"context"
	"testing"

	"github.com/harrylevesque/wssgateway/internal/model"
)

func TestFileAuthResolverRoundTrip(t *testing.T) {
	dir := t.TempDir()
	resolver, err := NewFileAuthResolver(dir)
	if err != nil {
		t.Fatalf("NewFileAuthResolver: %v", err)
	}
	want := model.DeviceIdentity{
		PartitionKey: "part1",
		RowKey:       "dev1",
		DisplayName:  "Dev One",
		DeviceKeyB64: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
	}
	if err := resolver.PutDeviceIdentity(want); err != nil {
		t.Fatalf("PutDeviceIdentity: %v", err)
	}
	got, err := resolver.ResolveDevice(context.Background(), "part1", "dev1")
	if err != nil {
		t.Fatalf("ResolveDevice: %v", err)
	}
	if got != want {
		t.Fatalf("ResolveDevice = %+v, want %+v", got, want)
	}
}

func TestFileAuthResolverUnknownDevice(t *testing.T) {
	dir := t.TempDir()
	resolver, err := NewFileAuthResolver(dir)
	if err != nil {
		t.Fatalf("NewFileAuthResolver: %v", err)
	}
	_, err = resolver.ResolveDevice(context.Background(), "partX", "devX")
	if _, ok := err.(*DeviceUnknownError); !ok {
		t.Fatalf("expected *DeviceUnknownError, got %T: %v", err, err)
	}
}
