package cluster

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/graphwire/graphwire/internal/config"
)

// writeTestKeyPair writes a self-signed certificate and its key into dir
// and returns their paths along with the raw key PEM.
func writeTestKeyPair(t *testing.T, dir string) (certFile, keyFile string, keyPEM []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "cluster test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})

	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatal(err)
	}
	return certFile, keyFile, keyPEM
}

func buildWithTLS(t *testing.T, material config.StaticTLSMaterial) *Descriptor {
	t.Helper()
	settings := &config.Settings{
		ContactPoints: []string{"localhost"},
		Port:          config.DefaultPort,
		Path:          config.DefaultPath,
		TLS:           material,
	}
	d, err := Build(settings)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return d
}

func TestTLSClientConfigNilWithoutReference(t *testing.T) {
	d, err := Build(&config.Settings{
		ContactPoints: []string{"localhost"},
		Port:          config.DefaultPort,
		Path:          config.DefaultPath,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	cfg, err := d.TLSClientConfig()
	if err != nil {
		t.Fatalf("TLSClientConfig() error = %v", err)
	}
	if cfg != nil {
		t.Error("TLSClientConfig() should be nil without a TLS reference")
	}
}

func TestTLSClientConfigTrustBundle(t *testing.T) {
	caFile, _, _ := writeTestKeyPair(t, t.TempDir())

	d := buildWithTLS(t, config.StaticTLSMaterial{CA: caFile})
	cfg, err := d.TLSClientConfig()
	if err != nil {
		t.Fatalf("TLSClientConfig() error = %v", err)
	}
	if cfg.RootCAs == nil {
		t.Error("trust bundle should populate RootCAs")
	}
	if cfg.MinVersion != tls.VersionTLS12 {
		t.Errorf("MinVersion = %x, want TLS 1.2", cfg.MinVersion)
	}
}

func TestTLSClientConfigGarbageTrustBundle(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, []byte("not pem"), 0o600); err != nil {
		t.Fatal(err)
	}

	d := buildWithTLS(t, config.StaticTLSMaterial{CA: caFile})
	if _, err := d.TLSClientConfig(); err == nil {
		t.Error("trust bundle without certificates should be rejected")
	}
}

func TestTLSClientConfigClientPair(t *testing.T) {
	certFile, keyFile, _ := writeTestKeyPair(t, t.TempDir())

	d := buildWithTLS(t, config.StaticTLSMaterial{Cert: certFile, Key: keyFile})
	cfg, err := d.TLSClientConfig()
	if err != nil {
		t.Fatalf("TLSClientConfig() error = %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("Certificates length = %d, want 1", len(cfg.Certificates))
	}
}

func TestTLSClientConfigCertWithoutKey(t *testing.T) {
	certFile, _, _ := writeTestKeyPair(t, t.TempDir())

	d := buildWithTLS(t, config.StaticTLSMaterial{Cert: certFile})
	if _, err := d.TLSClientConfig(); err == nil {
		t.Error("client certificate without key should be rejected")
	}
}

func TestTLSClientConfigEncryptedKey(t *testing.T) {
	dir := t.TempDir()
	certFile, _, keyPEM := writeTestKeyPair(t, dir)

	block, _ := pem.Decode(keyPEM)
	encrypted, err := x509.EncryptPEMBlock(rand.Reader, block.Type, block.Bytes, []byte("hunter2"), x509.PEMCipherAES256) //nolint:staticcheck // legacy keystore material
	if err != nil {
		t.Fatalf("encrypt key: %v", err)
	}
	keyFile := filepath.Join(dir, "enc-key.pem")
	if err := os.WriteFile(keyFile, pem.EncodeToMemory(encrypted), 0o600); err != nil {
		t.Fatal(err)
	}

	// Without the passphrase the material is unusable.
	d := buildWithTLS(t, config.StaticTLSMaterial{Cert: certFile, Key: keyFile})
	if _, err := d.TLSClientConfig(); err == nil {
		t.Error("encrypted key without passphrase should be rejected")
	}

	// With the passphrase the pair loads.
	d = buildWithTLS(t, config.StaticTLSMaterial{Cert: certFile, Key: keyFile, Passphrase: "hunter2"})
	cfg, err := d.TLSClientConfig()
	if err != nil {
		t.Fatalf("TLSClientConfig() error = %v", err)
	}
	if len(cfg.Certificates) != 1 {
		t.Errorf("Certificates length = %d, want 1", len(cfg.Certificates))
	}
}
