// Package config loads the gateway's JSON configuration file, the same
// load-with-sane-defaults shape as the teacher's internal.LoadConfig, but
// generalized from a single encryption-toggle struct to the full set of
// knobs a standalone gatewayd/operatord deployment needs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Gateway is the effective configuration for one gatewayd + operatord
// deployment sharing a data directory.
type Gateway struct {
	// ListenAddr is the device-facing websocket listener, e.g. ":8080".
	ListenAddr string `json:"listenAddr"`
	// OperatorListenAddr is the operator API listener, e.g. ":8090".
	OperatorListenAddr string `json:"operatorListenAddr"`

	// DataDir roots the on-disk stores: devices/, scripts/, auth/.
	DataDir string `json:"dataDir"`

	// MasterKeyHex, if set, is a 32-byte hex-encoded key enabling at-rest
	// encryption of device records (see storage.FileDeviceStore).
	MasterKeyHex string `json:"masterKeyHex,omitempty"`

	// TLSCertFile/TLSKeyFile, if both set, switch gatewayd to serving over
	// TLS. Empty means plaintext, for local development.
	TLSCertFile string `json:"tlsCertFile,omitempty"`
	TLSKeyFile  string `json:"tlsKeyFile,omitempty"`

	// TLSClientCADir, if set, points gatewayd's TLS listener at a directory
	// of trusted CA certificates (internal/tlsutil.CertManager) and
	// requires devices to present a certificate signed by one of them
	// ahead of the §4.2 application-layer handshake. Empty disables device
	// mTLS.
	TLSClientCADir string `json:"tlsClientCaDir,omitempty"`

	// PublicHost is the host:port devices and operators reach this
	// deployment's gatewayd at; it backs storage.FileDeviceStore.SelfHost
	// for emitting wssk:// connection strings and has no effect on what
	// gatewayd itself binds to.
	PublicHost string `json:"publicHost"`

	// TelemetryRetention is how many decoded UploadBin records
	// telemetry.MemoryTelemetrySink keeps per device partition for the
	// operator API's inspection view. Zero disables retention entirely
	// (telemetry.NoopTelemetrySink is wired instead), for deployments that
	// only care about the events pubsub already carries.
	TelemetryRetention int `json:"telemetryRetention"`

	// LogFile is the path the structured Logger rotates through.
	LogFile string `json:"logFile"`

	// OperatorJWTSecretHex signs operator bearer tokens; OperatorCookieHashKeyHex
	// seeds the gorilla/sessions cookie store gating the login flow.
	OperatorJWTSecretHex     string `json:"operatorJwtSecretHex"`
	OperatorCookieHashKeyHex string `json:"operatorCookieHashKeyHex"`
}

// defaults mirrors the teacher's all-on fallback: every field present in
// the struct but missing from config.json gets a usable value, never a
// zero value that silently breaks the listener.
func defaults() Gateway {
	return Gateway{
		ListenAddr:         ":8080",
		OperatorListenAddr: ":8090",
		DataDir:            "./data",
		PublicHost:         "localhost:8080",
		TelemetryRetention: 50,
		LogFile:            "gatewayd.log",
	}
}

// Load reads path as JSON into a Gateway, filling any field the file
// doesn't mention with its default rather than leaving it zero-valued.
func Load(path string) (Gateway, error) {
	cfg := defaults()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Gateway{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	// Decoding into cfg (already holding defaults) only overwrites the
	// keys actually present in the file, the same fill-missing-fields
	// behavior as the teacher's LoadConfig.
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Gateway{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	return cfg, nil
}
