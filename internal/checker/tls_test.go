package checker

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTLSVersionString(t *testing.T) {
	tests := []struct {
		version  uint16
		expected string
	}{
		{versionSSL30, "SSL 3.0"},
		{tls.VersionTLS10, "TLS 1.0"},
		{tls.VersionTLS11, "TLS 1.1"},
		{tls.VersionTLS12, "TLS 1.2"},
		{tls.VersionTLS13, "TLS 1.3"},
		{0x9999, "Unknown (0x9999)"},
	}

	for _, tt := range tests {
		result := tlsVersionString(tt.version)
		if result != tt.expected {
			t.Errorf("tlsVersionString(0x%04x) = %s, want %s", tt.version, result, tt.expected)
		}
	}
}

func TestCipherSuiteString(t *testing.T) {
	if got := cipherSuiteString(tls.TLS_AES_128_GCM_SHA256); got != "TLS_AES_128_GCM_SHA256" {
		t.Errorf("unexpected cipher name %q", got)
	}
	if got := cipherSuiteString(tls.TLS_RSA_WITH_RC4_128_SHA); got != "TLS_RSA_WITH_RC4_128_SHA" {
		t.Errorf("insecure suites should keep their name, got %q", got)
	}
	for _, unknown := range []uint16{0xfefe, 0x0000} {
		want := fmt.Sprintf("Unknown (0x%04x)", unknown)
		if got := cipherSuiteString(unknown); got != want {
			t.Errorf("cipherSuiteString(0x%04x) = %q, want %q", unknown, got, want)
		}
	}
}

func TestPublicKeySize(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa key: %v", err)
	}
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519 key: %v", err)
	}

	tests := []struct {
		name string
		key  any
		want int
	}{
		{"rsa", &rsaKey.PublicKey, 2048},
		{"ecdsa", &ecKey.PublicKey, 256},
		{"ed25519", edPub, 256},
		{"unknown", "not a key", 0},
	}
	for _, tt := range tests {
		if got := publicKeySize(tt.key); got != tt.want {
			t.Errorf("%s: publicKeySize = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestDescribeCertificate_PreservesIssuerAttributes(t *testing.T) {
	cert := selfSignedCertificate(t, pkix.Name{
		Country:      []string{"US"},
		Organization: []string{"Example, Inc."},
		CommonName:   "Example Issuing CA",
	}, time.Now().Add(24*time.Hour))

	var facts CertificateFacts
	describeCertificate(&facts, cert, "www.example.com")

	if facts.Valid {
		t.Fatal("describeCertificate must not mark certificates valid")
	}
	var org string
	for _, attr := range facts.Issuer {
		if attr.Key == "organizationName" {
			org = attr.Value
		}
	}
	if org != "Example, Inc." {
		t.Fatalf("expected organizationName with comma preserved, got %+v", facts.Issuer)
	}
	if !facts.HostnameMatch {
		t.Error("expected hostname match for www.example.com")
	}
	if facts.KeySize != 256 {
		t.Errorf("expected P-256 key size, got %d", facts.KeySize)
	}
}

func TestTLSProbe_TrustedServer(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	target := targetFor(t, server.URL)
	probe := &TLSProbe{Timeout: 2 * time.Second, RootCAs: poolFor(server)}

	facts := probe.Probe(context.Background(), target)

	if facts.Failed() {
		t.Fatalf("unexpected probe failure: %s (%s)", facts.ErrorKind, facts.ErrorMessage)
	}
	if !facts.HTTPSSupported || !facts.Valid {
		t.Fatalf("expected supported and valid, got %+v", facts)
	}
	if facts.TLSVersion != "TLS 1.3" {
		t.Errorf("expected TLS 1.3, got %s", facts.TLSVersion)
	}
	if len(facts.Issuer) == 0 {
		t.Error("expected issuer attributes")
	}
	if facts.NotAfter.IsZero() {
		t.Error("expected NotAfter to be recorded")
	}
}

func TestTLSProbe_UntrustedServerKeepsLeafFacts(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	probe := &TLSProbe{Timeout: 2 * time.Second, RootCAs: x509.NewCertPool()}
	facts := probe.Probe(context.Background(), targetFor(t, server.URL))

	if facts.ErrorKind != ErrorKindTLSHandshake {
		t.Fatalf("expected tls handshake failure, got %q", facts.ErrorKind)
	}
	if facts.HTTPSSupported || facts.Valid {
		t.Fatal("failed verification must not report support or validity")
	}
	if len(facts.Issuer) == 0 {
		t.Error("expected leaf issuer to be recorded despite failure")
	}
}

func TestTLSProbe_ExpiredAtProbeTime(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	probe := &TLSProbe{
		Timeout: 2 * time.Second,
		RootCAs: poolFor(server),
		now:     func() time.Time { return server.Certificate().NotAfter.Add(time.Hour) },
	}
	facts := probe.Probe(context.Background(), targetFor(t, server.URL))

	if facts.Valid {
		t.Fatal("expected certificate to be invalid after NotAfter")
	}
	if facts.ErrorKind != ErrorKindTLSHandshake {
		t.Errorf("expected tls handshake failure, got %q", facts.ErrorKind)
	}
}

func TestTLSProbe_PlainHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	probe := &TLSProbe{Timeout: 2 * time.Second}
	facts := probe.Probe(context.Background(), targetFor(t, server.URL))

	if facts.ErrorKind != ErrorKindTLSHandshake {
		t.Fatalf("expected tls handshake failure, got %q (%s)", facts.ErrorKind, facts.ErrorMessage)
	}
	if facts.HTTPSSupported {
		t.Error("plain HTTP server must not report HTTPS support")
	}
}

func TestTLSProbe_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	probe := &TLSProbe{Timeout: 2 * time.Second}
	facts := probe.Probe(context.Background(), targetFor(t, "https://"+addr))

	if facts.ErrorKind != ErrorKindConnectionRefused {
		t.Fatalf("expected connection refused, got %q (%s)", facts.ErrorKind, facts.ErrorMessage)
	}
	if facts.HTTPSSupported || facts.Valid {
		t.Error("refused connection must not report support or validity")
	}
}

func TestTLSProbe_SilentServerTimesOut(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-done
		conn.Close()
	}()

	probe := &TLSProbe{Timeout: 200 * time.Millisecond}
	start := time.Now()
	facts := probe.Probe(context.Background(), targetFor(t, "https://"+ln.Addr().String()))

	if facts.ErrorKind != ErrorKindTimeout {
		t.Fatalf("expected timeout, got %q (%s)", facts.ErrorKind, facts.ErrorMessage)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("probe exceeded its deadline: %s", elapsed)
	}
}

func targetFor(t *testing.T, raw string) Target {
	t.Helper()
	target, err := ParseTarget(raw)
	if err != nil {
		t.Fatalf("ParseTarget(%q): %v", raw, err)
	}
	return target
}

func poolFor(server *httptest.Server) *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(server.Certificate())
	return pool
}

func selfSignedCertificate(t *testing.T, name pkix.Name, notAfter time.Time) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      name,
		DNSNames:     []string{"www.example.com", "example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		IsCA:         true,

		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}
	return cert
}
