package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrylevesque/wssgateway/internal/model"
)

// DeviceUnknownError indicates no enrolled identity exists for a device path.
type DeviceUnknownError struct {
	PartitionKey, RowKey string
}

func (e *DeviceUnknownError) Error() string {
	return fmt.Sprintf("storage: device %s/%s not enrolled", e.PartitionKey, e.RowKey)
}

// FileAuthResolver resolves DeviceIdentity from one JSON file per device
// under a directory, the same one-record-per-file lookup GetUserHandler
// performs against the user data directory, generalized from a single
// user ID to a (partitionKey, rowKey) pair.
type FileAuthResolver struct {
	dir string
}

// NewFileAuthResolver creates a resolver rooted at dir.
func NewFileAuthResolver(dir string) (*FileAuthResolver, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileAuthResolver{dir: dir}, nil
}

func (a *FileAuthResolver) path(partitionKey, rowKey string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(partitionKey + "__" + rowKey)
	return filepath.Join(a.dir, safe+".json")
}

// ResolveDevice implements gatewaycore.AuthResolver.
func (a *FileAuthResolver) ResolveDevice(ctx context.Context, partitionKey, rowKey string) (model.DeviceIdentity, error) {
	data, err := os.ReadFile(a.path(partitionKey, rowKey))
	if err != nil {
		if os.IsNotExist(err) {
			return model.DeviceIdentity{}, &DeviceUnknownError{PartitionKey: partitionKey, RowKey: rowKey}
		}
		return model.DeviceIdentity{}, err
	}
	var identity model.DeviceIdentity
	if err := json.Unmarshal(data, &identity); err != nil {
		return model.DeviceIdentity{}, err
	}
	return identity, nil
}

// PutDeviceIdentity enrolls or updates a device's identity file, for use by
// enrollment tooling and tests.
func (a *FileAuthResolver) PutDeviceIdentity(identity model.DeviceIdentity) error {
	data, err := json.MarshalIndent(identity, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.path(identity.PartitionKey, identity.RowKey), data, 0600)
}
