package cluster

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// TLSClientConfig builds the tls.Config for the descriptor's material.
// Returns nil when no TLS reference was configured. The trust bundle
// extends the system roots; the client certificate pair is optional so a
// trust-only reference still works.
func (d *Descriptor) TLSClientConfig() (*tls.Config, error) {
	if d.tls == nil {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if d.tls.CAFile != "" {
		pemBytes, err := os.ReadFile(d.tls.CAFile)
		if err != nil {
			return nil, fmt.Errorf("cluster: read trust bundle: %w", err)
		}
		roots, err := x509.SystemCertPool()
		if err != nil || roots == nil {
			roots = x509.NewCertPool()
		}
		if !roots.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("cluster: no certificates in trust bundle %s", d.tls.CAFile)
		}
		cfg.RootCAs = roots
	}

	if d.tls.CertFile != "" || d.tls.KeyFile != "" {
		if d.tls.CertFile == "" || d.tls.KeyFile == "" {
			return nil, errors.New("cluster: client certificate and key must both be set")
		}
		certPEM, err := os.ReadFile(d.tls.CertFile)
		if err != nil {
			return nil, fmt.Errorf("cluster: read client certificate: %w", err)
		}
		keyPEM, err := os.ReadFile(d.tls.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("cluster: read client key: %w", err)
		}
		keyPEM, err = decryptKeyPEM(keyPEM, d.tls.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("cluster: load client key pair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}

	return cfg, nil
}

// decryptKeyPEM returns keyPEM unchanged for plain keys and decrypts
// legacy passphrase-protected PEM blocks (the keystore format the
// original material providers hand out).
func decryptKeyPEM(keyPEM []byte, passphrase string) ([]byte, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("cluster: key file contains no PEM data")
	}
	if !x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy keystore material
		return keyPEM, nil
	}
	if passphrase == "" {
		return nil, errors.New("cluster: key file is encrypted and no passphrase was supplied")
	}
	der, err := x509.DecryptPEMBlock(block, []byte(passphrase)) //nolint:staticcheck // legacy keystore material
	if err != nil {
		return nil, fmt.Errorf("cluster: decrypt client key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der}), nil
}
