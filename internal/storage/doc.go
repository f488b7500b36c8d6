// Package storage provides file-backed reference implementations of the
// DeviceStore and ScriptStore collaborators (§6): JSON records on disk,
// guarded by a per-path mutex, with an optional AES-256-GCM at-rest
// encryption layer.
package storage
