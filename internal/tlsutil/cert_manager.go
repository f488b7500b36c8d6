// Package tlsutil adapts the teacher's certs.CertManager (directory of
// PEM/CRT files, expiry checks) from a standalone cert inspector into the
// gateway's TLS listener configuration: loading a server keypair and an
// optional trusted-CA pool for gatewayd's device-facing listener.
package tlsutil

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNoCertificatesFound is returned when a CA directory contains no
// .crt/.pem files.
var ErrNoCertificatesFound = errors.New("tlsutil: no certificates found in directory")

// CertManager loads and inspects the certificate material backing a
// gatewayd TLS listener: a server keypair plus, optionally, a directory of
// trusted CA certificates for verifying client certificates.
type CertManager struct {
	certDir string
}

// NewCertManager creates a CertManager rooted at certDir, the same
// directory-of-PEM-files layout the teacher's certs package uses for CA
// material.
func NewCertManager(certDir string) *CertManager {
	return &CertManager{certDir: certDir}
}

// LoadServerKeyPair loads a certificate/key pair for use as the TLS
// listener's own identity.
func (cm *CertManager) LoadServerKeyPair(certFile, keyFile string) (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsutil: load key pair: %w", err)
	}
	return cert, nil
}

// LoadCertificates walks certDir loading every .crt/.pem file, the same
// traversal as the teacher's CertManager.LoadCertificates.
func (cm *CertManager) LoadCertificates() ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	err := filepath.Walk(cm.certDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasSuffix(info.Name(), ".crt") || strings.HasSuffix(info.Name(), ".pem") {
			cert, err := loadCertificate(path)
			if err != nil {
				return fmt.Errorf("tlsutil: load %s: %w", path, err)
			}
			certs = append(certs, cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(certs) == 0 {
		return nil, ErrNoCertificatesFound
	}
	return certs, nil
}

func loadCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("tlsutil: failed to parse certificate PEM")
	}
	return x509.ParseCertificate(block.Bytes)
}

// ClientCAPool builds a cert pool from every certificate in certDir,
// suitable for tls.Config.ClientCAs when gatewayd wants to require device
// mTLS ahead of the application-layer handshake in §4.2.
func (cm *CertManager) ClientCAPool() (*x509.CertPool, error) {
	certs, err := cm.LoadCertificates()
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	for _, cert := range certs {
		pool.AddCert(cert)
	}
	return pool, nil
}

// IsExpired reports whether cert's validity window has already closed.
func (cm *CertManager) IsExpired(cert *x509.Certificate) bool {
	return cert.NotAfter.Before(time.Now())
}
