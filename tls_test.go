package webostv

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// startTLSListener runs a bare TLS listener presenting a fresh
// self-signed certificate, standing in for the TV's SSAP endpoint for
// tests that need a real handshake rather than an in-memory fake.
func startTLSListener(t *testing.T) (host string, port int) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "tv.local"},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
	})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				if tc, ok := c.(*tls.Conn); ok {
					_ = tc.Handshake()
				}
			}(conn)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

// flipFirstBodyByte mutates one character of a PEM file's base64 body
// while leaving the BEGIN/END markers intact, so the file still parses
// as a PEM block but no longer decodes to the original certificate.
func flipFirstBodyByte(data []byte) []byte {
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b := []byte(line)
		if b[0] == 'A' {
			b[0] = 'B'
		} else {
			b[0] = 'A'
		}
		lines[i] = string(b)
		break
	}
	return []byte(strings.Join(lines, "\n"))
}

func selfSignedCert(t *testing.T, commonName string) *x509.Certificate {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now(),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}

func TestBuildTLSConfigAcceptsPinnedCertificate(t *testing.T) {
	cert := selfSignedCert(t, "webostv")
	cfg := BuildTLSConfig(cert)
	if err := cfg.VerifyPeerCertificate([][]byte{cert.Raw}, nil); err != nil {
		t.Fatalf("expected pinned certificate to verify, got %v", err)
	}
}

func TestBuildTLSConfigRejectsMismatchedCertificate(t *testing.T) {
	pinned := selfSignedCert(t, "webostv")
	other := selfSignedCert(t, "impostor")
	cfg := BuildTLSConfig(pinned)
	err := cfg.VerifyPeerCertificate([][]byte{other.Raw}, nil)
	if !errors.Is(err, ErrCertificateMismatch) {
		t.Fatalf("expected ErrCertificateMismatch, got %v", err)
	}
}

func TestCertificatePEMRoundTrip(t *testing.T) {
	cert := selfSignedCert(t, "webostv")
	pem := EncodeCertificatePEM(cert)
	decoded, err := DecodeCertificatePEM(pem)
	if err != nil {
		t.Fatalf("DecodeCertificatePEM: %v", err)
	}
	if !decoded.Equal(cert) {
		t.Fatal("expected decoded certificate to equal the original")
	}
}

// TestVerifyCertificateScenarioS6 is scenario S6 from spec.md §8:
// extracting a TV's certificate and verifying it against the live
// endpoint succeeds, but mutating a single byte of the stored file
// causes verification to fail.
func TestVerifyCertificateScenarioS6(t *testing.T) {
	host, port := startTLSListener(t)

	path := filepath.Join(t.TempDir(), "a.pem")
	if _, err := ExtractCertificatePEM(host, port, path); err != nil {
		t.Fatalf("ExtractCertificatePEM: %v", err)
	}

	ok, err := VerifyCertificate(path, host, port)
	if err != nil {
		t.Fatalf("VerifyCertificate: %v", err)
	}
	if !ok {
		t.Fatal("expected freshly extracted certificate to verify")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := os.WriteFile(path, flipFirstBodyByte(data), 0o644); err != nil {
		t.Fatalf("write mutated certificate: %v", err)
	}

	ok, err = VerifyCertificate(path, host, port)
	if err != nil {
		t.Fatalf("VerifyCertificate after mutation: %v", err)
	}
	if ok {
		t.Fatal("expected mutated certificate to fail verification")
	}
}

func TestBuildContextPrecedence(t *testing.T) {
	explicit := &tls.Config{ServerName: "explicit"}
	cfg, err := BuildContext(TLSPolicy{SSLContext: explicit, CertFile: "unused.pem"})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if cfg != explicit {
		t.Fatal("expected SSLContext to take precedence over CertFile")
	}

	cert := selfSignedCert(t, "webostv")
	path := filepath.Join(t.TempDir(), "pinned.pem")
	if err := os.WriteFile(path, EncodeCertificatePEM(cert), 0o644); err != nil {
		t.Fatalf("write pinned cert: %v", err)
	}
	cfg, err = BuildContext(TLSPolicy{CertFile: path})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if err := cfg.VerifyPeerCertificate([][]byte{cert.Raw}, nil); err != nil {
		t.Fatalf("expected pinned certificate to verify: %v", err)
	}

	noVerify := false
	cfg, err = BuildContext(TLSPolicy{VerifySSL: &noVerify})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if !cfg.InsecureSkipVerify {
		t.Fatal("expected verify_ssl=false to produce an InsecureSkipVerify config")
	}

	cfg, err = BuildContext(TLSPolicy{})
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if cfg.InsecureSkipVerify {
		t.Fatal("expected default policy to use system trust")
	}
}
