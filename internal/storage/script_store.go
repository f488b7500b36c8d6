package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

// ScriptNotFoundError indicates no compiled body exists for (scriptID, scriptVersion).
type ScriptNotFoundError struct {
	ScriptID, ScriptVersion string
}

func (e *ScriptNotFoundError) Error() string {
	return fmt.Sprintf("storage: no script body for %s@%s", e.ScriptID, e.ScriptVersion)
}

// FileScriptStore is a directory of hex-encoded program-body files, one per
// (scriptID, scriptVersion) pair.
type FileScriptStore struct {
	dir string
}

// NewFileScriptStore creates a store rooted at dir.
func NewFileScriptStore(dir string) (*FileScriptStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileScriptStore{dir: dir}, nil
}

func (s *FileScriptStore) path(scriptID, scriptVersion string) string {
	return filepath.Join(s.dir, scriptID+"@"+scriptVersion+".hex")
}

// GetScriptBody implements gatewaycore.ScriptStore.
func (s *FileScriptStore) GetScriptBody(ctx context.Context, scriptID, scriptVersion string) (gatewaycore.ScriptBody, error) {
	data, err := os.ReadFile(s.path(scriptID, scriptVersion))
	if err != nil {
		if os.IsNotExist(err) {
			return gatewaycore.ScriptBody{}, &ScriptNotFoundError{ScriptID: scriptID, ScriptVersion: scriptVersion}
		}
		return gatewaycore.ScriptBody{}, err
	}
	return gatewaycore.ScriptBody{ProgramBinaryHex: string(data)}, nil
}

// PutScriptBody writes a compiled program body, for use by deployment
// tooling and tests.
func (s *FileScriptStore) PutScriptBody(scriptID, scriptVersion, programBinaryHex string) error {
	return os.WriteFile(s.path(scriptID, scriptVersion), []byte(programBinaryHex), 0600)
}
