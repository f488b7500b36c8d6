package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harrylevesque/wssgateway/internal/model"
)

// DeviceNotFoundError indicates no record exists yet for a device path.
type DeviceNotFoundError struct {
	PartitionKey, RowKey string
}

func (e *DeviceNotFoundError) Error() string {
	return fmt.Sprintf("storage: no device record for %s/%s", e.PartitionKey, e.RowKey)
}

// FileDeviceStore is a JSON-file-backed DeviceStore, one file per device
// record. Each device path gets its own mutex (lazily created under a meta
// lock) so unrelated devices' read-modify-write cycles never block each
// other, the same per-file serialization shape as the teacher's
// WriteEncryptedUserFile/ReadEncryptedUserFile pair, generalized from one
// mutex per store to one per key.
type FileDeviceStore struct {
	dir       string
	masterKey []byte // nil disables at-rest encryption
	selfHost  string

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewFileDeviceStore creates a store rooted at dir. If masterKey is
// non-nil it must be 32 bytes; device records are then sealed with
// AES-256-GCM at rest. selfHost is the host:port devices/operators should
// reconnect to when emitting a wssk:// connection string for a record in
// this store (see SelfHost); it may be empty if no connection string will
// ever be built against this store.
func NewFileDeviceStore(dir string, masterKey []byte, selfHost string) (*FileDeviceStore, error) {
	if masterKey != nil && len(masterKey) != 32 {
		return nil, ErrInvalidKeyLength
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileDeviceStore{dir: dir, masterKey: masterKey, selfHost: selfHost, locks: map[string]*sync.Mutex{}}, nil
}

// SelfHost implements gatewaycore.SelfHoster.
func (s *FileDeviceStore) SelfHost() string {
	return s.selfHost
}

func (s *FileDeviceStore) lockFor(devicePath string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[devicePath]
	if !ok {
		m = &sync.Mutex{}
		s.locks[devicePath] = m
	}
	return m
}

func (s *FileDeviceStore) path(partitionKey, rowKey string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(partitionKey + "__" + rowKey)
	ext := ".json"
	if s.masterKey != nil {
		ext = ".json.enc"
	}
	return filepath.Join(s.dir, safe+ext)
}

func (s *FileDeviceStore) readLocked(partitionKey, rowKey string) (model.Record, error) {
	blob, err := os.ReadFile(s.path(partitionKey, rowKey))
	if err != nil {
		if os.IsNotExist(err) {
			return model.Record{}, &DeviceNotFoundError{PartitionKey: partitionKey, RowKey: rowKey}
		}
		return model.Record{}, err
	}
	if s.masterKey != nil {
		blob, err = decryptAESGCM(s.masterKey, blob)
		if err != nil {
			return model.Record{}, err
		}
	}
	var r model.Record
	if err := json.Unmarshal(blob, &r); err != nil {
		return model.Record{}, err
	}
	return r, nil
}

func (s *FileDeviceStore) writeLocked(r model.Record) error {
	plain, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	out := plain
	if s.masterKey != nil {
		out, err = encryptAESGCM(s.masterKey, plain)
		if err != nil {
			return err
		}
	}
	return os.WriteFile(s.path(r.PartitionKey, r.RowKey), out, 0600)
}

// GetDevice implements gatewaycore.DeviceStore.
func (s *FileDeviceStore) GetDevice(ctx context.Context, partitionKey, rowKey string) (model.Record, error) {
	m := s.lockFor(partitionKey + "__" + rowKey)
	m.Lock()
	defer m.Unlock()
	return s.readLocked(partitionKey, rowKey)
}

// UpdateDevice implements gatewaycore.DeviceStore: a read-modify-write
// transaction guarded by this device's own mutex, so a slow deploy-state
// flush for one device never blocks another device's tick. The record is
// created if it doesn't exist yet (e.g. the very first tick after a
// device's first connection).
func (s *FileDeviceStore) UpdateDevice(ctx context.Context, partitionKey, rowKey string, mutate func(*model.Record)) error {
	m := s.lockFor(partitionKey + "__" + rowKey)
	m.Lock()
	defer m.Unlock()
	r, err := s.readLocked(partitionKey, rowKey)
	if err != nil {
		if _, ok := err.(*DeviceNotFoundError); !ok {
			return err
		}
		r = model.Record{DeviceIdentity: model.DeviceIdentity{PartitionKey: partitionKey, RowKey: rowKey}}
	}
	mutate(&r)
	return s.writeLocked(r)
}

// ListDevices implements gatewaycore.DeviceLister by scanning every record
// file under the store directory. Each file is read under its own
// per-device lock, so a concurrent UpdateDevice for one device never stalls
// the scan past that single file.
func (s *FileDeviceStore) ListDevices(ctx context.Context) ([]model.Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	records := make([]model.Record, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		partitionKey, rowKey, ok := splitRecordFilename(entry.Name())
		if !ok {
			continue
		}
		r, err := s.GetDevice(ctx, partitionKey, rowKey)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func splitRecordFilename(name string) (partitionKey, rowKey string, ok bool) {
	base := strings.TrimSuffix(strings.TrimSuffix(name, ".enc"), ".json")
	if base == name {
		return "", "", false
	}
	parts := strings.SplitN(base, "__", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
